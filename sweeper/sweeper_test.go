package sweeper

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"animal-chat/backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/mock/gomock"
)

// fakeStore is an in-memory Store for behavioral tests. Deleting
// children of a missing room is a no-op, like the real store.
type fakeStore struct {
	mu           sync.Mutex
	rooms        map[primitive.ObjectID]models.Room
	messages     map[primitive.ObjectID]int
	participants map[primitive.ObjectID]int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		rooms:        make(map[primitive.ObjectID]models.Room),
		messages:     make(map[primitive.ObjectID]int),
		participants: make(map[primitive.ObjectID]int),
	}
}

func (f *fakeStore) addRoom(lastActivity time.Time, messages, participants int) primitive.ObjectID {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := primitive.NewObjectID()
	f.rooms[id] = models.Room{ID: id, Name: "room", LastActivity: lastActivity}
	f.messages[id] = messages
	f.participants[id] = participants
	return id
}

func (f *fakeStore) ListInactiveRooms(_ context.Context, before time.Time) ([]models.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Room
	for _, r := range f.rooms {
		if r.LastActivity.Before(before) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) DeleteRoomMessages(_ context.Context, roomID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.messages, roomID)
	return nil
}

func (f *fakeStore) DeleteRoomParticipants(_ context.Context, roomID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.participants, roomID)
	return nil
}

func (f *fakeStore) DeleteRoom(_ context.Context, roomID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rooms, roomID)
	return nil
}

func (f *fakeStore) has(roomID primitive.ObjectID) (room, messages, participants bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, room = f.rooms[roomID]
	_, messages = f.messages[roomID]
	_, participants = f.participants[roomID]
	return
}

const threshold = 4320 * time.Minute

func TestRunOnceDeletesStaleRoomCompletely(t *testing.T) {
	store := newFakeStore()
	t0 := time.Now().Add(-threshold - time.Minute)
	stale := store.addRoom(t0, 5, 2)

	s := New(store, threshold, 9*time.Minute)
	require.NoError(t, s.RunOnce(context.Background()))

	room, messages, participants := store.has(stale)
	assert.False(t, room, "stale room document should be deleted")
	assert.False(t, messages, "stale room messages should be deleted")
	assert.False(t, participants, "stale room participants should be deleted")
}

func TestRunOnceLeavesFreshRoomUntouched(t *testing.T) {
	store := newFakeStore()
	fresh := store.addRoom(time.Now().Add(-48*time.Hour), 3, 1)

	s := New(store, threshold, 9*time.Minute)
	require.NoError(t, s.RunOnce(context.Background()))

	room, messages, participants := store.has(fresh)
	assert.True(t, room)
	assert.True(t, messages)
	assert.True(t, participants)
}

func TestRunOnceThresholdBoundary(t *testing.T) {
	// Room created at T0 with no further activity: a sweep at T0+3d+1min
	// deletes it, a sweep at T0+2d leaves it intact.
	t0 := time.Now()
	store := newFakeStore()
	id := store.addRoom(t0, 1, 1)

	s := New(store, threshold, 9*time.Minute)

	s.now = func() time.Time { return t0.Add(48 * time.Hour) }
	require.NoError(t, s.RunOnce(context.Background()))
	room, _, _ := store.has(id)
	assert.True(t, room, "room should survive a sweep at T0+2d")

	s.now = func() time.Time { return t0.Add(72*time.Hour + time.Minute) }
	require.NoError(t, s.RunOnce(context.Background()))
	room, _, _ = store.has(id)
	assert.False(t, room, "room should be reclaimed at T0+3d+1min")
}

func TestRunOnceDeletesChildrenBeforeParent(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockStore(ctrl)

	roomID := primitive.NewObjectID()
	store.EXPECT().ListInactiveRooms(gomock.Any(), gomock.Any()).
		Return([]models.Room{{ID: roomID}}, nil)
	gomock.InOrder(
		store.EXPECT().DeleteRoomMessages(gomock.Any(), roomID).Return(nil),
		store.EXPECT().DeleteRoomParticipants(gomock.Any(), roomID).Return(nil),
		store.EXPECT().DeleteRoom(gomock.Any(), roomID).Return(nil),
	)

	s := New(store, threshold, 9*time.Minute)
	assert.NoError(t, s.RunOnce(context.Background()))
}

func TestRunOnceAbortsWholeRunOnDeletionError(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockStore(ctrl)

	first := primitive.NewObjectID()
	second := primitive.NewObjectID()
	store.EXPECT().ListInactiveRooms(gomock.Any(), gomock.Any()).
		Return([]models.Room{{ID: first}, {ID: second}}, nil)
	store.EXPECT().DeleteRoomMessages(gomock.Any(), first).Return(nil)
	store.EXPECT().DeleteRoomParticipants(gomock.Any(), first).
		Return(errors.New("quota exceeded"))
	// No expectations for the second room: a deletion error is fatal to
	// the run and nothing after it may be touched.

	s := New(store, threshold, 9*time.Minute)
	err := s.RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), first.Hex())
}

func TestRunOnceScanErrorSurfaces(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockStore(ctrl)
	store.EXPECT().ListInactiveRooms(gomock.Any(), gomock.Any()).
		Return(nil, errors.New("network down"))

	s := New(store, threshold, 9*time.Minute)
	assert.Error(t, s.RunOnce(context.Background()))
}

func TestRerunAfterPartialFailureCompletesCleanly(t *testing.T) {
	store := newFakeStore()
	old := time.Now().Add(-threshold - time.Hour)
	// One room fully deleted by the interrupted run, one left partially
	// deleted: messages already gone, participants and room remaining.
	partial := store.addRoom(old, 0, 3)
	store.mu.Lock()
	delete(store.messages, partial)
	store.mu.Unlock()
	untouched := store.addRoom(old, 2, 2)

	s := New(store, threshold, 9*time.Minute)
	require.NoError(t, s.RunOnce(context.Background()))

	for _, id := range []primitive.ObjectID{partial, untouched} {
		room, messages, participants := store.has(id)
		assert.False(t, room)
		assert.False(t, messages)
		assert.False(t, participants)
	}
}

func TestStateReturnsToIdle(t *testing.T) {
	store := newFakeStore()
	s := New(store, threshold, 9*time.Minute)

	assert.Equal(t, StateIdle, s.State())
	require.NoError(t, s.RunOnce(context.Background()))
	assert.Equal(t, StateIdle, s.State())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "scanning", StateScanning.String())
	assert.Equal(t, "deleting", StateDeleting.String())
}
