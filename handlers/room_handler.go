package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"animal-chat/backend/apperrors"
	"animal-chat/backend/cache"
	"animal-chat/backend/database"
	"animal-chat/backend/live"
	"animal-chat/backend/metrics"
	"animal-chat/backend/utils"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RoomHandler serves the room lifecycle: create, lookup, membership,
// messages. Every mutation is announced on the broker so live
// subscribers and the activity trigger observe it.
type RoomHandler struct {
	Broker *live.Broker
	Recent *cache.RecentRooms
}

// CreateRoomRequest is the room creation payload.
type CreateRoomRequest struct {
	Name string `json:"name"`
}

// SendMessageRequest is the message payload.
type SendMessageRequest struct {
	Content string `json:"content"`
}

func roomIDFromRequest(r *http.Request) (primitive.ObjectID, error) {
	roomIDStr := mux.Vars(r)["id"]
	if roomIDStr == "" {
		return primitive.NilObjectID, apperrors.Validation("room ID is required")
	}
	roomID, err := primitive.ObjectIDFromHex(roomIDStr)
	if err != nil {
		return primitive.NilObjectID, apperrors.Validation("invalid room ID format")
	}
	return roomID, nil
}

// CreateRoom creates a room with the caller as host.
func (h *RoomHandler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	var req CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		sendJSONError(w, "Room name is required", http.StatusBadRequest)
		return
	}

	userID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		sendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	username, err := utils.GetUsernameFromContext(r.Context())
	if err != nil {
		sendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	room, err := database.CreateRoom(r.Context(), req.Name, userID, username)
	if err != nil {
		sendError(w, err)
		return
	}

	h.Broker.Publish(r.Context(), live.Event{Type: live.EventRoomCreated, RoomID: room.ID.Hex()})
	h.recordVisit(r.Context(), userID, room.ID)

	log.Info().Str("roomId", room.ID.Hex()).Str("createdBy", userID.Hex()).Msg("Room created")
	sendJSON(w, http.StatusCreated, room)
}

// GetRoom returns the room document and records the visit in the
// caller's recent-rooms history.
func (h *RoomHandler) GetRoom(w http.ResponseWriter, r *http.Request) {
	roomID, err := roomIDFromRequest(r)
	if err != nil {
		sendError(w, err)
		return
	}

	room, err := database.GetRoom(r.Context(), roomID)
	if err != nil {
		sendError(w, err)
		return
	}

	if userID, err := utils.GetUserIDFromContext(r.Context()); err == nil {
		h.recordVisit(r.Context(), userID, roomID)
	}
	sendJSON(w, http.StatusOK, room)
}

// JoinRoom adds the caller to the room's participant set. Joining a
// room you already belong to succeeds without a duplicate.
func (h *RoomHandler) JoinRoom(w http.ResponseWriter, r *http.Request) {
	roomID, err := roomIDFromRequest(r)
	if err != nil {
		sendError(w, err)
		return
	}
	userID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		sendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	username, err := utils.GetUsernameFromContext(r.Context())
	if err != nil {
		sendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if _, err := database.GetRoom(r.Context(), roomID); err != nil {
		sendError(w, err)
		return
	}

	if err := database.JoinRoom(r.Context(), roomID, userID, username); err != nil {
		sendError(w, err)
		return
	}

	h.Broker.Publish(r.Context(), live.Event{Type: live.EventParticipantJoined, RoomID: roomID.Hex()})
	h.recordVisit(r.Context(), userID, roomID)
	sendJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// LeaveRoom removes the caller from the participant set. The room
// survives even when this empties it; only the sweeper deletes rooms.
func (h *RoomHandler) LeaveRoom(w http.ResponseWriter, r *http.Request) {
	roomID, err := roomIDFromRequest(r)
	if err != nil {
		sendError(w, err)
		return
	}
	userID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		sendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := database.LeaveRoom(r.Context(), roomID, userID); err != nil {
		sendError(w, err)
		return
	}

	h.Broker.Publish(r.Context(), live.Event{Type: live.EventParticipantLeft, RoomID: roomID.Hex()})
	sendJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// MassExit evicts every participant from the room. Messages and the
// room itself remain; live subscribers observe themselves removed.
func (h *RoomHandler) MassExit(w http.ResponseWriter, r *http.Request) {
	roomID, err := roomIDFromRequest(r)
	if err != nil {
		sendError(w, err)
		return
	}
	if _, err := utils.GetUserIDFromContext(r.Context()); err != nil {
		sendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if _, err := database.GetRoom(r.Context(), roomID); err != nil {
		sendError(w, err)
		return
	}

	if err := database.MassExit(r.Context(), roomID); err != nil {
		sendError(w, err)
		return
	}

	h.Broker.Publish(r.Context(), live.Event{Type: live.EventMassExit, RoomID: roomID.Hex()})
	log.Info().Str("roomId", roomID.Hex()).Msg("Mass exit performed")
	sendJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// SendMessage appends a message to the room. The sender identity is
// the authenticated caller; only current members may post.
func (h *RoomHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	roomID, err := roomIDFromRequest(r)
	if err != nil {
		sendError(w, err)
		return
	}
	userID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		sendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	username, err := utils.GetUsernameFromContext(r.Context())
	if err != nil {
		sendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	member, err := database.IsMember(r.Context(), roomID, userID)
	if err != nil {
		sendError(w, err)
		return
	}
	if !member {
		sendJSONError(w, "Join the room before sending messages", http.StatusForbidden)
		return
	}

	msg, err := database.InsertMessage(r.Context(), roomID, userID, username, req.Content)
	if err != nil {
		sendError(w, err)
		return
	}
	metrics.MessagesTotal.Inc()

	h.Broker.Publish(r.Context(), live.Event{Type: live.EventMessageCreated, RoomID: roomID.Hex()})
	sendJSON(w, http.StatusCreated, msg)
}

// GetMessages returns the room's ordered message history. An optional
// limit query parameter caps the result.
func (h *RoomHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	roomID, err := roomIDFromRequest(r)
	if err != nil {
		sendError(w, err)
		return
	}

	var limit int64
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.ParseInt(raw, 10, 64)
		if err != nil || limit < 0 {
			sendJSONError(w, "Invalid limit", http.StatusBadRequest)
			return
		}
	}

	if _, err := database.GetRoom(r.Context(), roomID); err != nil {
		sendError(w, err)
		return
	}

	messages, err := database.GetMessageHistory(r.Context(), roomID, limit)
	if err != nil {
		sendError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, map[string]interface{}{"messages": messages})
}

// GetParticipants returns the room's current participant set plus
// whether the caller is in it.
func (h *RoomHandler) GetParticipants(w http.ResponseWriter, r *http.Request) {
	roomID, err := roomIDFromRequest(r)
	if err != nil {
		sendError(w, err)
		return
	}

	if _, err := database.GetRoom(r.Context(), roomID); err != nil {
		sendError(w, err)
		return
	}

	participants, err := database.ListParticipants(r.Context(), roomID)
	if err != nil {
		sendError(w, err)
		return
	}

	isMember := false
	if userID, err := utils.GetUserIDFromContext(r.Context()); err == nil {
		for _, p := range participants {
			if p.UserID == userID {
				isMember = true
				break
			}
		}
	}

	sendJSON(w, http.StatusOK, map[string]interface{}{
		"participants": participants,
		"isMember":     isMember,
	})
}

// RecentRoomEntry is one row of the caller's room history.
type RecentRoomEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RecentRooms returns the caller's recently visited rooms, newest
// first, dropping rooms that have since been reclaimed.
func (h *RoomHandler) RecentRooms(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		sendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	ids, err := h.Recent.List(r.Context(), userID.Hex())
	if err != nil {
		log.Error().Err(err).Msg("Failed to read recent rooms")
		sendJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	rooms := make([]RecentRoomEntry, 0, len(ids))
	for _, idStr := range ids {
		roomID, err := primitive.ObjectIDFromHex(idStr)
		if err != nil {
			continue
		}
		room, err := database.GetRoom(r.Context(), roomID)
		if errors.Is(err, apperrors.ErrNotFound) {
			// Reclaimed since the visit: drop it from the history too.
			if err := h.Recent.Forget(r.Context(), userID.Hex(), idStr); err != nil {
				log.Warn().Err(err).Str("roomId", idStr).Msg("Failed to forget reclaimed room")
			}
			continue
		}
		if err != nil {
			sendError(w, err)
			return
		}
		rooms = append(rooms, RecentRoomEntry{ID: room.ID.Hex(), Name: room.Name})
	}

	lastAccessed, err := h.Recent.LastAccessed(r.Context(), userID.Hex())
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read last accessed room")
		lastAccessed = ""
	}

	sendJSON(w, http.StatusOK, map[string]interface{}{
		"rooms":        rooms,
		"lastAccessed": lastAccessed,
	})
}

// recordVisit updates the caller's room history. Best-effort: a cache
// failure never affects the primary action.
func (h *RoomHandler) recordVisit(ctx context.Context, userID, roomID primitive.ObjectID) {
	if h.Recent == nil {
		return
	}
	if err := h.Recent.RecordVisit(ctx, userID.Hex(), roomID.Hex()); err != nil {
		log.Warn().Err(err).Str("roomId", roomID.Hex()).Msg("Failed to record room visit")
	}
}
