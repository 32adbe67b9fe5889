package connection

import "errors"

var ErrNotFound = errors.New("connection not found")

// Session is the (user, room) context attached to one live connection.
type Session struct {
	UserId string
	RoomId string
}
