package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCurrentPosition(t *testing.T) {
	checkpoint := time.Now()

	// paused checkpoints do not advance
	state := VideoState{
		IsPlaying:      false,
		CurrentTime:    42,
		LastUpdateTime: checkpoint.UnixMilli(),
	}
	assert.Equal(t, float64(42), state.CurrentPosition(checkpoint.Add(10*time.Second)))

	// playing checkpoints advance with wall time
	state.IsPlaying = true
	assert.InDelta(t, 52, state.CurrentPosition(checkpoint.Add(10*time.Second)), 0.01)

	// a known duration clamps the derived position
	state.Duration = 45
	assert.Equal(t, float64(45), state.CurrentPosition(checkpoint.Add(10*time.Second)))

	// clock skew cannot produce a negative position
	state = VideoState{
		IsPlaying:      true,
		CurrentTime:    1,
		LastUpdateTime: checkpoint.UnixMilli(),
	}
	assert.Equal(t, float64(0), state.CurrentPosition(checkpoint.Add(-10*time.Second)))
}

func TestErrorCodes(t *testing.T) {
	assert.Equal(t, CodeNotFound, Code(ErrRoomNotFound))
	assert.Equal(t, CodeNotFound, Code(ErrPeerNotFound))
	assert.Equal(t, CodePermission, Code(ErrPermissionDenied))
	assert.Equal(t, CodeConflict, Code(ErrNameConflict))
	assert.Equal(t, CodeRoomLocked, Code(ErrRoomLocked))
	assert.Equal(t, CodePasscodeRequired, Code(PasscodeRequiredError{RoomId: "r1"}))
	assert.Equal(t, CodeCapacity, Code(ErrChannelFull))
	assert.Equal(t, CodeInternal, Code(assert.AnError))
}
