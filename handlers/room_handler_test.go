package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"animal-chat/backend/live"
	"animal-chat/backend/models"
	"animal-chat/backend/utils"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newRoomHandler() *RoomHandler {
	return &RoomHandler{Broker: live.NewBroker(nil)}
}

func authedRequest(method, target string, body []byte) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	ctx := context.WithValue(req.Context(), utils.UserIDKey, primitive.NewObjectID())
	ctx = context.WithValue(ctx, utils.UsernameKey, "tester")
	return req.WithContext(ctx)
}

func TestCreateRoomInvalidBody(t *testing.T) {
	h := newRoomHandler()
	req := authedRequest(http.MethodPost, "/api/rooms", []byte("{not json"))
	rr := httptest.NewRecorder()

	h.CreateRoom(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCreateRoomMissingName(t *testing.T) {
	h := newRoomHandler()
	body, _ := json.Marshal(CreateRoomRequest{Name: "   "})
	req := authedRequest(http.MethodPost, "/api/rooms", body)
	rr := httptest.NewRecorder()

	h.CreateRoom(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)

	var resp models.ErrorResponse
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "Room name is required", resp.Message)
}

func TestCreateRoomUnauthenticated(t *testing.T) {
	h := newRoomHandler()
	body, _ := json.Marshal(CreateRoomRequest{Name: "Giraffe Room"})
	req := httptest.NewRequest(http.MethodPost, "/api/rooms", bytes.NewReader(body))
	rr := httptest.NewRecorder()

	h.CreateRoom(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestGetRoomInvalidID(t *testing.T) {
	h := newRoomHandler()
	req := authedRequest(http.MethodGet, "/api/rooms/not-a-hex-id", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "not-a-hex-id"})
	rr := httptest.NewRecorder()

	h.GetRoom(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestJoinRoomUnauthenticated(t *testing.T) {
	h := newRoomHandler()
	req := httptest.NewRequest(http.MethodPost, "/api/rooms/x/join", nil)
	req = mux.SetURLVars(req, map[string]string{"id": primitive.NewObjectID().Hex()})
	rr := httptest.NewRecorder()

	h.JoinRoom(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestSendMessageInvalidBody(t *testing.T) {
	h := newRoomHandler()
	req := authedRequest(http.MethodPost, "/api/rooms/x/messages", []byte("oops"))
	req = mux.SetURLVars(req, map[string]string{"id": primitive.NewObjectID().Hex()})
	rr := httptest.NewRecorder()

	h.SendMessage(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGetMessagesInvalidLimit(t *testing.T) {
	h := newRoomHandler()
	req := authedRequest(http.MethodGet, "/api/rooms/x/messages?limit=-3", nil)
	req = mux.SetURLVars(req, map[string]string{"id": primitive.NewObjectID().Hex()})
	rr := httptest.NewRecorder()

	h.GetMessages(rr, req)

	// Never reaches storage: the limit is rejected up front.
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
