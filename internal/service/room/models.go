package room

import "github.com/watchroom/server/internal/domain"

type User struct {
	Id       string `json:"id"`
	Name     string `json:"name"`
	IsHost   bool   `json:"is_host"`
	JoinedAt int64  `json:"joined_at"`
}

// SettingsView is the client-visible slice of the room settings. The
// passcode value itself never leaves the server.
type SettingsView struct {
	IsLocked     bool `json:"is_locked"`
	HasPasscode  bool `json:"has_passcode"`
	IsChatLocked bool `json:"is_chat_locked"`
}

// RoomView is the snapshot sent to a user on join.
type RoomView struct {
	Id         string             `json:"id"`
	HostId     string             `json:"host_id"`
	HostName   string             `json:"host_name"`
	Settings   SettingsView       `json:"settings"`
	VideoUrl   string             `json:"video_url"`
	VideoType  string             `json:"video_type"`
	VideoMeta  *domain.VideoMeta  `json:"video_meta"`
	VideoState *domain.VideoState `json:"video_state"`
	Users      []User             `json:"users"`
	CreatedAt  int64              `json:"created_at"`
}
