package store

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"koinonia.church/koinonia/station/model"
)

func setupStore(t *testing.T) *Store {
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func entry(memberID, eventID, number, qr string) model.RosterEntry {
	return model.RosterEntry{
		MemberID:         memberID,
		EventID:          eventID,
		FullName:         "Member " + memberID,
		FellowshipNumber: number,
		QRCode:           qr,
		RegionName:       "North",
		SyncedAt:         time.Now(),
	}
}

func pending(memberID, eventID string) model.PendingCheckIn {
	return model.PendingCheckIn{
		ID:        uuid.NewString(),
		MemberID:  memberID,
		EventID:   eventID,
		Method:    model.MethodQR,
		FullName:  "Member " + memberID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

func TestReplaceRoster(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	require.NoError(t, s.ReplaceRoster(ctx, "e1", []model.RosterEntry{
		entry("m1", "e1", "AAA001", "Q1"),
		entry("m2", "e1", "AAA002", "Q2"),
	}))

	n, err := s.RosterCount(ctx, "e1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	// a second sync fully replaces the old set
	require.NoError(t, s.ReplaceRoster(ctx, "e1", []model.RosterEntry{
		entry("m3", "e1", "AAA003", "Q3"),
	}))

	n, err = s.RosterCount(ctx, "e1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, err = s.FindRosterByQR(ctx, "e1", "Q1")
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := s.FindRosterByQR(ctx, "e1", "Q3")
	require.NoError(t, err)
	assert.Equal(t, "m3", got.MemberID)
}

func TestReplaceRosterRejectsForeignEventRows(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	require.NoError(t, s.ReplaceRoster(ctx, "e1", []model.RosterEntry{entry("m1", "e1", "AAA001", "Q1")}))

	// the bad batch aborts the transaction; the previous roster survives
	err := s.ReplaceRoster(ctx, "e1", []model.RosterEntry{
		entry("m2", "e1", "AAA002", "Q2"),
		entry("m3", "e2", "AAA003", "Q3"),
	})
	require.Error(t, err)

	got, err := s.FindRosterByQR(ctx, "e1", "Q1")
	require.NoError(t, err)
	assert.Equal(t, "m1", got.MemberID)
}

func TestReplaceRosterConcurrentReader(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "station.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	ctx := context.Background()

	makeRoster := func(size int) []model.RosterEntry {
		entries := make([]model.RosterEntry, 0, size)
		for i := 0; i < size; i++ {
			entries = append(entries, entry(fmt.Sprintf("m%04d", i), "e1", fmt.Sprintf("A%05d", i), fmt.Sprintf("Q%d", i)))
		}
		return entries
	}
	small := makeRoster(300)
	large := makeRoster(500)

	require.NoError(t, s.ReplaceRoster(ctx, "e1", small))

	// a reader polling mid-replace must see the whole old set or the whole
	// new set, never a partial one
	done := make(chan struct{})
	readerDone := make(chan struct{})
	var reads, partial atomic.Int64
	go func() {
		defer close(readerDone)
		for {
			select {
			case <-done:
				return
			default:
			}
			n, err := s.RosterCount(ctx, "e1")
			if err != nil {
				// sqlite may refuse a read mid-write; only successful
				// reads say anything about what a reader observes
				continue
			}
			reads.Add(1)
			if n != 300 && n != 500 {
				partial.Store(n)
			}
		}
	}()

	for i := 0; i < 20; i++ {
		next := large
		if i%2 == 1 {
			next = small
		}
		require.NoError(t, s.ReplaceRoster(ctx, "e1", next))
	}
	close(done)
	<-readerDone

	assert.Positive(t, reads.Load())
	assert.Zero(t, partial.Load(), "a reader observed a half-replaced roster")
}

func TestRosterLookupsScopedToEvent(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	// same member in two simultaneously-active events
	require.NoError(t, s.ReplaceRoster(ctx, "e1", []model.RosterEntry{entry("m1", "e1", "AAA001", "Q1")}))
	require.NoError(t, s.ReplaceRoster(ctx, "e2", []model.RosterEntry{entry("m1", "e2", "AAA001", "Q1")}))

	got, err := s.FindRosterByFellowshipNumber(ctx, "e1", "AAA001")
	require.NoError(t, err)
	assert.Equal(t, "e1", got.EventID)

	_, err = s.FindRosterByQR(ctx, "e3", "Q1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEnqueueDuplicateGuard(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	require.NoError(t, s.Enqueue(ctx, pending("m1", "e1")))

	err := s.Enqueue(ctx, pending("m1", "e1"))
	assert.ErrorIs(t, err, ErrAlreadyQueued)

	n, err := s.PendingCount(ctx, "e1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestEnqueueScopedToEvent(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	// the same member may queue once per event
	require.NoError(t, s.Enqueue(ctx, pending("m1", "e1")))
	require.NoError(t, s.Enqueue(ctx, pending("m1", "e2")))

	exists, err := s.PendingExists(ctx, "e1", "m1")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = s.PendingExists(ctx, "e3", "m1")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestListPendingOrdered(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	early := pending("m1", "e1")
	early.Timestamp = "2026-03-01T09:00:00Z"
	late := pending("m2", "e1")
	late.Timestamp = "2026-03-01T10:00:00Z"

	require.NoError(t, s.Enqueue(ctx, late))
	require.NoError(t, s.Enqueue(ctx, early))

	rows, err := s.ListPending(ctx, "e1")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "m1", rows[0].MemberID)
	assert.Equal(t, "m2", rows[1].MemberID)
}
