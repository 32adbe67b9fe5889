package room

// Room is the persisted room hash. An empty Passcode means no passcode is
// set; a valid passcode is always 4 digits.
type Room struct {
	HostId       string `redis:"host_id" json:"host_id"`
	HostName     string `redis:"host_name" json:"host_name"`
	HostToken    string `redis:"host_token" json:"-"`
	IsLocked     bool   `redis:"is_locked" json:"is_locked"`
	Passcode     string `redis:"passcode" json:"-"`
	IsChatLocked bool   `redis:"is_chat_locked" json:"is_chat_locked"`
	VideoUrl     string `redis:"video_url" json:"video_url"`
	VideoType    string `redis:"video_type" json:"video_type"`
	CreatedAt    int64  `redis:"created_at" json:"created_at"`
}

type User struct {
	Name     string `redis:"name" json:"name"`
	IsHost   bool   `redis:"is_host" json:"is_host"`
	JoinedAt int64  `redis:"joined_at" json:"joined_at"`
}

// VideoMeta stores DecisionReasons as a JSON array string.
type VideoMeta struct {
	OriginalUrl     string `redis:"original_url"`
	PlaybackUrl     string `redis:"playback_url"`
	VideoType       string `redis:"video_type"`
	DeliveryType    string `redis:"delivery_type"`
	RequiresProxy   bool   `redis:"requires_proxy"`
	DecisionReasons string `redis:"decision_reasons"`
	Timestamp       int64  `redis:"timestamp"`
}

type VideoState struct {
	IsPlaying      bool    `redis:"is_playing"`
	CurrentTime    float64 `redis:"current_time"`
	Duration       float64 `redis:"duration"`
	LastUpdateTime int64   `redis:"last_update_time"`
}

// Message stores Reactions as a JSON object string (emoji -> user id list).
type Message struct {
	UserId     string `redis:"user_id"`
	UserName   string `redis:"user_name"`
	Message    string `redis:"message"`
	Timestamp  int64  `redis:"timestamp"`
	Type       string `redis:"type"`
	SystemType string `redis:"system_type"`
	Reactions  string `redis:"reactions"`
	ReplyTo    string `redis:"reply_to"`
}
