// Package sweeper reclaims inactive rooms. A scheduled run scans for
// rooms whose lastActivity is older than the configured threshold and
// deletes each one children-first: messages, then participants, then
// the room document.
package sweeper

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"animal-chat/backend/metrics"
	"animal-chat/backend/models"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Store is the storage surface the sweeper needs.
type Store interface {
	ListInactiveRooms(ctx context.Context, before time.Time) ([]models.Room, error)
	DeleteRoomMessages(ctx context.Context, roomID primitive.ObjectID) error
	DeleteRoomParticipants(ctx context.Context, roomID primitive.ObjectID) error
	DeleteRoom(ctx context.Context, roomID primitive.ObjectID) error
}

// State is the sweeper's run state.
type State int32

const (
	StateIdle State = iota
	StateScanning
	StateDeleting
)

func (s State) String() string {
	switch s {
	case StateScanning:
		return "scanning"
	case StateDeleting:
		return "deleting"
	default:
		return "idle"
	}
}

// Sweeper deletes rooms inactive beyond a threshold. Any deletion
// error aborts the whole run; there is no per-room retry or resumption
// checkpoint. Re-running after a partial failure is safe: fully
// deleted rooms no longer match the scan, and deleting already-deleted
// children is a no-op.
type Sweeper struct {
	store     Store
	threshold time.Duration
	timeout   time.Duration
	state     atomic.Int32
	now       func() time.Time
}

// New creates a sweeper. threshold is the inactivity cutoff, timeout
// is the per-run budget.
func New(store Store, threshold, timeout time.Duration) *Sweeper {
	return &Sweeper{
		store:     store,
		threshold: threshold,
		timeout:   timeout,
		now:       time.Now,
	}
}

// State returns the current run state.
func (s *Sweeper) State() State {
	return State(s.state.Load())
}

// RunOnce performs a single sweep within the run budget.
func (s *Sweeper) RunOnce(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	s.state.Store(int32(StateScanning))
	defer s.state.Store(int32(StateIdle))

	cutoff := s.now().Add(-s.threshold)
	rooms, err := s.store.ListInactiveRooms(ctx, cutoff)
	if err != nil {
		metrics.SweeperRunsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("scan inactive rooms: %w", err)
	}
	log.Info().Int("count", len(rooms)).Time("cutoff", cutoff).Msg("Found inactive rooms to delete")

	s.state.Store(int32(StateDeleting))
	deleted := 0
	for _, room := range rooms {
		if err := s.deleteRoom(ctx, room.ID); err != nil {
			metrics.SweeperRunsTotal.WithLabelValues("error").Inc()
			return fmt.Errorf("delete room %s: %w", room.ID.Hex(), err)
		}
		deleted++
		metrics.RoomsReclaimedTotal.Inc()
	}

	metrics.SweeperRunsTotal.WithLabelValues("ok").Inc()
	log.Info().Int("deleted", deleted).Msg("Reclamation sweep completed")
	return nil
}

// deleteRoom removes a room's children before the room itself, so an
// interrupted sweep never leaves orphaned messages or participants
// behind a missing parent.
func (s *Sweeper) deleteRoom(ctx context.Context, roomID primitive.ObjectID) error {
	if err := s.store.DeleteRoomMessages(ctx, roomID); err != nil {
		return err
	}
	if err := s.store.DeleteRoomParticipants(ctx, roomID); err != nil {
		return err
	}
	return s.store.DeleteRoom(ctx, roomID)
}

// Run sweeps once per interval until the context is cancelled. Run
// errors are logged only; the next scheduled run self-heals.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.RunOnce(ctx); err != nil {
				log.Error().Err(err).Msg("Reclamation sweep failed")
			}
		}
	}
}
