package domain

import (
	"errors"
	"fmt"
)

var (
	ErrRoomNotFound     = errors.New("room not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrMessageNotFound  = errors.New("message not found")
	ErrPeerNotFound     = errors.New("that user just left")
	ErrPermissionDenied = errors.New("permission denied")
	ErrNameConflict     = errors.New("name is already taken")
	ErrRoomLocked       = errors.New("room is locked")
	ErrChannelFull      = errors.New("channel is full")
	ErrValidation       = errors.New("validation error")
)

// PasscodeRequiredError carries the room id so the client can open the
// passcode prompt for the right room instead of treating it as a failure.
type PasscodeRequiredError struct {
	RoomId string
}

func (e PasscodeRequiredError) Error() string {
	return fmt.Sprintf("passcode required for room %s", e.RoomId)
}

const (
	CodeNotFound         = "not_found"
	CodePermission       = "permission"
	CodeConflict         = "conflict"
	CodeRoomLocked       = "room_locked"
	CodePasscodeRequired = "passcode_required"
	CodeCapacity         = "capacity"
	CodeValidation       = "validation"
	CodeInternal         = "internal"
)

// Code maps an error to its stable client-visible code. Unclassified errors
// map to CodeInternal and must not be surfaced verbatim.
func Code(err error) string {
	var passcodeRequired PasscodeRequiredError
	switch {
	case errors.Is(err, ErrRoomNotFound),
		errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrMessageNotFound),
		errors.Is(err, ErrPeerNotFound):
		return CodeNotFound
	case errors.Is(err, ErrPermissionDenied):
		return CodePermission
	case errors.Is(err, ErrNameConflict):
		return CodeConflict
	case errors.Is(err, ErrRoomLocked):
		return CodeRoomLocked
	case errors.As(err, &passcodeRequired):
		return CodePasscodeRequired
	case errors.Is(err, ErrChannelFull):
		return CodeCapacity
	case errors.Is(err, ErrValidation):
		return CodeValidation
	default:
		return CodeInternal
	}
}
