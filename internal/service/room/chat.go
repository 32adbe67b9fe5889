package room

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/watchroom/server/internal/domain"
	"github.com/watchroom/server/internal/repository/room"
)

type SendMessageParams struct {
	RoomId   string
	SenderId string
	Message  string
	ReplyTo  *string
}

type SendMessageResponse struct {
	Message domain.ChatMessage
}

func (s service) SendMessage(ctx context.Context, params *SendMessageParams) (SendMessageResponse, error) {
	user, err := s.roomRepo.GetUser(ctx, &room.GetUserParams{
		UserId: params.SenderId,
		RoomId: params.RoomId,
	})
	if err != nil {
		if errors.Is(err, room.ErrUserNotFound) {
			return SendMessageResponse{}, domain.ErrUserNotFound
		}
		return SendMessageResponse{}, fmt.Errorf("failed to get user: %w", err)
	}

	messageId := uuid.NewString()
	now := time.Now().UnixMilli()

	var replyTo string
	if params.ReplyTo != nil {
		replyTo = *params.ReplyTo
	}

	if err := s.roomRepo.SetMessage(ctx, &room.SetMessageParams{
		MessageId: messageId,
		RoomId:    params.RoomId,
		UserId:    params.SenderId,
		UserName:  user.Name,
		Message:   params.Message,
		Timestamp: now,
		Type:      domain.MessageTypeUser,
		ReplyTo:   replyTo,
	}); err != nil {
		s.logger.InfoContext(ctx, "failed to set message", "error", err)
		return SendMessageResponse{}, fmt.Errorf("failed to set message: %w", err)
	}

	return SendMessageResponse{
		Message: domain.ChatMessage{
			Id:        messageId,
			UserId:    params.SenderId,
			UserName:  user.Name,
			Message:   params.Message,
			Timestamp: now,
			RoomId:    params.RoomId,
			Type:      domain.MessageTypeUser,
			ReplyTo:   params.ReplyTo,
		},
	}, nil
}

type SendSystemMessageParams struct {
	RoomId     string
	SystemType string
	UserId     string
	UserName   string
	Message    string
}

// SendSystemMessage appends a system-typed chat message (joins, kicks, video
// changes and similar room events).
func (s service) SendSystemMessage(ctx context.Context, params *SendSystemMessageParams) (SendMessageResponse, error) {
	messageId := uuid.NewString()
	now := time.Now().UnixMilli()

	if err := s.roomRepo.SetMessage(ctx, &room.SetMessageParams{
		MessageId:  messageId,
		RoomId:     params.RoomId,
		UserId:     params.UserId,
		UserName:   params.UserName,
		Message:    params.Message,
		Timestamp:  now,
		Type:       domain.MessageTypeSystem,
		SystemType: params.SystemType,
	}); err != nil {
		s.logger.InfoContext(ctx, "failed to set system message", "error", err)
		return SendMessageResponse{}, fmt.Errorf("failed to set system message: %w", err)
	}

	return SendMessageResponse{
		Message: domain.ChatMessage{
			Id:         messageId,
			UserId:     params.UserId,
			UserName:   params.UserName,
			Message:    params.Message,
			Timestamp:  now,
			RoomId:     params.RoomId,
			Type:       domain.MessageTypeSystem,
			SystemType: params.SystemType,
		},
	}, nil
}

type ToggleReactionParams struct {
	RoomId    string
	SenderId  string
	MessageId string
	Emoji     string
}

type ToggleReactionResponse struct {
	MessageId string
	Reactions map[string][]string
}

// ToggleReaction adds or removes the sender from the emoji's user set. This
// is the only post-creation mutation a message allows.
func (s service) ToggleReaction(ctx context.Context, params *ToggleReactionParams) (ToggleReactionResponse, error) {
	message, err := s.roomRepo.GetMessage(ctx, &room.GetMessageParams{
		MessageId: params.MessageId,
		RoomId:    params.RoomId,
	})
	if err != nil {
		if errors.Is(err, room.ErrMessageNotFound) {
			return ToggleReactionResponse{}, domain.ErrMessageNotFound
		}
		return ToggleReactionResponse{}, fmt.Errorf("failed to get message: %w", err)
	}

	reactions := make(map[string][]string)
	if message.Reactions != "" {
		if err := json.Unmarshal([]byte(message.Reactions), &reactions); err != nil {
			s.logger.InfoContext(ctx, "failed to decode reactions", "error", err)
		}
	}

	userIds := reactions[params.Emoji]
	found := false
	for i, userId := range userIds {
		if userId == params.SenderId {
			userIds = append(userIds[:i], userIds[i+1:]...)
			found = true
			break
		}
	}
	if !found {
		userIds = append(userIds, params.SenderId)
	}

	if len(userIds) == 0 {
		delete(reactions, params.Emoji)
	} else {
		reactions[params.Emoji] = userIds
	}

	encoded, err := json.Marshal(reactions)
	if err != nil {
		return ToggleReactionResponse{}, fmt.Errorf("failed to encode reactions: %w", err)
	}

	if err := s.roomRepo.UpdateMessageReactions(ctx, &room.UpdateMessageReactionsParams{
		MessageId: params.MessageId,
		RoomId:    params.RoomId,
		Reactions: string(encoded),
	}); err != nil {
		s.logger.InfoContext(ctx, "failed to update message reactions", "error", err)
		return ToggleReactionResponse{}, fmt.Errorf("failed to update message reactions: %w", err)
	}

	return ToggleReactionResponse{
		MessageId: params.MessageId,
		Reactions: reactions,
	}, nil
}

type GetUserNameParams struct {
	RoomId string
	UserId string
}

// GetUserName resolves a user's display name, used by typing relays and
// system messages.
func (s service) GetUserName(ctx context.Context, params *GetUserNameParams) (string, error) {
	user, err := s.roomRepo.GetUser(ctx, &room.GetUserParams{
		UserId: params.UserId,
		RoomId: params.RoomId,
	})
	if err != nil {
		if errors.Is(err, room.ErrUserNotFound) {
			return "", domain.ErrUserNotFound
		}
		return "", fmt.Errorf("failed to get user: %w", err)
	}

	return user.Name, nil
}
