package domain

import "time"

const (
	VideoTypeYoutube = "youtube"
	VideoTypeMP4     = "mp4"
	VideoTypeHLS     = "hls"
)

const (
	DeliveryTypeDirect    = "direct"
	DeliveryTypeFileProxy = "file-proxy"
	DeliveryTypeHLS       = "hls"
	DeliveryTypeYoutube   = "youtube"
)

const (
	MessageTypeUser   = "user"
	MessageTypeSystem = "system"
)

const (
	SystemMessageJoin        = "join"
	SystemMessageLeave       = "leave"
	SystemMessageKick        = "kick"
	SystemMessagePromote     = "promote"
	SystemMessageVideoChange = "video-change"
	SystemMessageVideoPlayed = "video-played"
	SystemMessageVideoPaused = "video-paused"
)

type RoomSettings struct {
	IsLocked     bool    `json:"is_locked"`
	Passcode     *string `json:"passcode"`
	IsChatLocked bool    `json:"is_chat_locked"`
}

type Room struct {
	Id        string       `json:"id"`
	HostId    string       `json:"host_id"`
	HostName  string       `json:"host_name"`
	Settings  RoomSettings `json:"settings"`
	VideoUrl  string       `json:"video_url"`
	VideoType string       `json:"video_type"`
	CreatedAt int64        `json:"created_at"`
}

type User struct {
	Id       string `json:"id"`
	Name     string `json:"name"`
	IsHost   bool   `json:"is_host"`
	JoinedAt int64  `json:"joined_at"`
}

// VideoMeta describes how the current video is actually delivered.
// DecisionReasons is an append-only trail of tags explaining how PlaybackUrl
// was derived.
type VideoMeta struct {
	OriginalUrl     string   `json:"original_url"`
	PlaybackUrl     string   `json:"playback_url"`
	VideoType       string   `json:"video_type"`
	DeliveryType    string   `json:"delivery_type"`
	RequiresProxy   bool     `json:"requires_proxy"`
	DecisionReasons []string `json:"decision_reasons"`
	Timestamp       int64    `json:"timestamp"`
}

// VideoState is a checkpoint of the host's playback position, not a live
// clock. Consumers derive the current position with CurrentPosition.
type VideoState struct {
	IsPlaying      bool    `json:"is_playing"`
	CurrentTime    float64 `json:"current_time"`
	Duration       float64 `json:"duration"`
	LastUpdateTime int64   `json:"last_update_time"`
}

// CurrentPosition derives the playback position at the given moment from the
// checkpoint, clamped to [0, duration] when the duration is known.
func (s VideoState) CurrentPosition(now time.Time) float64 {
	position := s.CurrentTime
	if s.IsPlaying {
		position += float64(now.UnixMilli()-s.LastUpdateTime) / 1000
	}

	if position < 0 {
		position = 0
	}
	if s.Duration > 0 && position > s.Duration {
		position = s.Duration
	}

	return position
}

type ChatMessage struct {
	Id         string              `json:"id"`
	UserId     string              `json:"user_id"`
	UserName   string              `json:"user_name"`
	Message    string              `json:"message"`
	Timestamp  int64               `json:"timestamp"`
	RoomId     string              `json:"room_id"`
	Type       string              `json:"type"`
	SystemType string              `json:"system_type,omitempty"`
	Reactions  map[string][]string `json:"reactions,omitempty"`
	ReplyTo    *string             `json:"reply_to,omitempty"`
}
