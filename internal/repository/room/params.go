package room

type SetRoomParams struct {
	RoomId       string `json:"room_id"`
	HostId       string `json:"host_id"`
	HostName     string `json:"host_name"`
	HostToken    string `json:"-"`
	IsLocked     bool   `json:"is_locked"`
	Passcode     string `json:"-"`
	IsChatLocked bool   `json:"is_chat_locked"`
	VideoUrl     string `json:"video_url"`
	VideoType    string `json:"video_type"`
	CreatedAt    int64  `json:"created_at"`
}

type UpdateRoomSettingsParams struct {
	RoomId       string  `json:"room_id"`
	IsLocked     bool    `json:"is_locked"`
	Passcode     *string `json:"-"`
	IsChatLocked bool    `json:"is_chat_locked"`
}

type UpdateRoomHostParams struct {
	RoomId   string `json:"room_id"`
	HostId   string `json:"host_id"`
	HostName string `json:"host_name"`
}

type UpdateRoomVideoParams struct {
	RoomId    string `json:"room_id"`
	VideoUrl  string `json:"video_url"`
	VideoType string `json:"video_type"`
}

type SetUserParams struct {
	UserId   string `json:"user_id"`
	Name     string `json:"name"`
	IsHost   bool   `json:"is_host"`
	JoinedAt int64  `json:"joined_at"`
	RoomId   string `json:"room_id"`
}

type GetUserParams struct {
	UserId string `json:"user_id"`
	RoomId string `json:"room_id"`
}

type RemoveUserParams struct {
	UserId string `json:"user_id"`
	RoomId string `json:"room_id"`
}

type UpdateUserIsHostParams struct {
	UserId string `json:"user_id"`
	RoomId string `json:"room_id"`
	IsHost bool   `json:"is_host"`
}

type SetVideoMetaParams struct {
	RoomId          string `json:"room_id"`
	OriginalUrl     string `json:"original_url"`
	PlaybackUrl     string `json:"playback_url"`
	VideoType       string `json:"video_type"`
	DeliveryType    string `json:"delivery_type"`
	RequiresProxy   bool   `json:"requires_proxy"`
	DecisionReasons string `json:"decision_reasons"`
	Timestamp       int64  `json:"timestamp"`
}

type SetVideoStateParams struct {
	RoomId         string  `json:"room_id"`
	IsPlaying      bool    `json:"is_playing"`
	CurrentTime    float64 `json:"current_time"`
	Duration       float64 `json:"duration"`
	LastUpdateTime int64   `json:"last_update_time"`
}

type SetMessageParams struct {
	MessageId  string `json:"message_id"`
	RoomId     string `json:"room_id"`
	UserId     string `json:"user_id"`
	UserName   string `json:"user_name"`
	Message    string `json:"message"`
	Timestamp  int64  `json:"timestamp"`
	Type       string `json:"type"`
	SystemType string `json:"system_type"`
	ReplyTo    string `json:"reply_to"`
}

type GetMessageParams struct {
	MessageId string `json:"message_id"`
	RoomId    string `json:"room_id"`
}

type UpdateMessageReactionsParams struct {
	MessageId string `json:"message_id"`
	RoomId    string `json:"room_id"`
	Reactions string `json:"reactions"`
}
