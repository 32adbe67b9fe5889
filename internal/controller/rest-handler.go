package controller

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/watchroom/server/internal/domain"
	"github.com/watchroom/server/pkg/rest"
)

// handleGetRoomPreview serves the join-form preflight over plain HTTP; no
// websocket needed just to see whether a room exists and what it will ask
// for.
func (c *controller) handleGetRoomPreview(w http.ResponseWriter, r *http.Request) {
	roomId := chi.URLParam(r, "roomId")

	preview, err := c.roomService.GetRoomPreview(r.Context(), roomId)
	if err != nil {
		if errors.Is(err, domain.ErrRoomNotFound) {
			rest.WriteJSON(w, http.StatusNotFound, rest.Envelope{
				"error": domain.Code(err),
			})
			return
		}

		c.logger.ErrorContext(r.Context(), "failed to get room preview", "error", err, "room_id", roomId)
		rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{
			"error": domain.CodeInternal,
		})
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{
		"room": preview,
	})
}
