package room

import "errors"

var (
	ErrRoomNotFound       = errors.New("room not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrMessageNotFound    = errors.New("message not found")
	ErrVideoMetaNotFound  = errors.New("video meta not found")
	ErrVideoStateNotFound = errors.New("video state not found")
)
