package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	v1 "koinonia.church/koinonia/membership/v1"
	"koinonia.church/koinonia/membership/v1/common"
	"koinonia.church/koinonia/station/model"
	"koinonia.church/koinonia/station/store"
)

type fakeOracle struct {
	online bool
}

func (f *fakeOracle) Online(context.Context) bool { return f.online }

type fakeLive struct {
	member *common.MemberDTO
	err    error
	calls  int
	last   v1.CheckInRequest
}

func (f *fakeLive) CheckIn(_ context.Context, req v1.CheckInRequest) (*common.MemberDTO, error) {
	f.calls++
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	return f.member, nil
}

func setupReconciler(t *testing.T, live *fakeLive, online bool) (*Reconciler, *store.Store) {
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	r := NewReconciler(live, st, &fakeOracle{online: online}, zap.NewNop())
	r.Now = func() time.Time { return time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC) }
	return r, st
}

func seedRoster(t *testing.T, st *store.Store, eventID string) {
	t.Helper()
	require.NoError(t, st.ReplaceRoster(context.Background(), eventID, []model.RosterEntry{{
		MemberID:         "m1",
		EventID:          eventID,
		FullName:         "Grace Chen",
		FellowshipNumber: "AAA001",
		PhoneNumber:      "555-0101",
		QRCode:           "Q1",
		RegionName:       "North",
		SyncedAt:         time.Now(),
	}}))
}

// Scenario A: unreachable network, roster match, fellowship-number lookup.
func TestOfflineCheckInByFellowshipNumber(t *testing.T) {
	live := &fakeLive{}
	r, st := setupReconciler(t, live, false)
	ctx := context.Background()
	seedRoster(t, st, "E1")

	res, err := r.CheckIn(ctx, Attempt{Identifier: "aaa001", Method: model.MethodFellowshipNumber, EventID: "E1"})
	require.NoError(t, err)
	assert.Equal(t, ModeOffline, res.Mode)
	assert.Equal(t, "m1", res.Member.MemberID)
	assert.Equal(t, "Grace Chen", res.Member.FullName)
	assert.Zero(t, live.calls, "live path must not be touched while offline")

	n, err := st.PendingCount(ctx, "E1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	rows, err := st.ListPending(ctx, "E1")
	require.NoError(t, err)
	assert.Equal(t, "2026-03-01T09:30:00Z", rows[0].Timestamp)
	assert.Equal(t, model.MethodFellowshipNumber, rows[0].Method)
}

// Manual entry is a typed fellowship number: normalized the same way and
// recorded with its own method.
func TestOfflineCheckInManualEntry(t *testing.T) {
	r, st := setupReconciler(t, &fakeLive{}, false)
	ctx := context.Background()
	seedRoster(t, st, "E1")

	res, err := r.CheckIn(ctx, Attempt{Identifier: " aaa001 ", Method: model.MethodManual, EventID: "E1"})
	require.NoError(t, err)
	assert.Equal(t, ModeOffline, res.Mode)
	assert.Equal(t, "m1", res.Member.MemberID)

	rows, err := st.ListPending(ctx, "E1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, model.MethodManual, rows[0].Method)
}

// Scenario B: repeating the same offline lookup is rejected, and still
// exactly one row is queued (P1).
func TestOfflineDuplicateRejected(t *testing.T) {
	r, st := setupReconciler(t, &fakeLive{}, false)
	ctx := context.Background()
	seedRoster(t, st, "E1")

	_, err := r.CheckIn(ctx, Attempt{Identifier: "AAA001", Method: model.MethodFellowshipNumber, EventID: "E1"})
	require.NoError(t, err)

	_, err = r.CheckIn(ctx, Attempt{Identifier: "AAA001", Method: model.MethodFellowshipNumber, EventID: "E1"})
	var rejected *RejectedError
	require.True(t, errors.As(err, &rejected))
	assert.True(t, rejected.Pending)
	assert.Contains(t, rejected.Reason, "pending sync")

	n, err := st.PendingCount(ctx, "E1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

// Scenario C: no roster was ever synced for the event.
func TestOfflineRosterNotSynced(t *testing.T) {
	r, _ := setupReconciler(t, &fakeLive{}, false)

	_, err := r.CheckIn(context.Background(), Attempt{Identifier: "Q1", Method: model.MethodQR, EventID: "E1"})
	var failure *FailureError
	require.True(t, errors.As(err, &failure))
	assert.Equal(t, FailureRosterNotSynced, failure.Code)
	assert.Contains(t, failure.Reason, "not synced")
}

func TestOfflineNotEligible(t *testing.T) {
	r, st := setupReconciler(t, &fakeLive{}, false)
	seedRoster(t, st, "E1")

	_, err := r.CheckIn(context.Background(), Attempt{Identifier: "ZZZ999", Method: model.MethodFellowshipNumber, EventID: "E1"})
	var failure *FailureError
	require.True(t, errors.As(err, &failure))
	assert.Equal(t, FailureNotEligible, failure.Code)
}

// Scenario D / P3: a semantic rejection from the server is terminal; no
// roster lookup, no queued row.
func TestSemanticRejectionNeverFallsBack(t *testing.T) {
	live := &fakeLive{err: &v1.APIError{StatusCode: 404, Message: "member not found"}}
	r, st := setupReconciler(t, live, true)
	ctx := context.Background()
	seedRoster(t, st, "E1")

	_, err := r.CheckIn(ctx, Attempt{Identifier: "Q1", Method: model.MethodQR, EventID: "E1"})
	var rejected *RejectedError
	require.True(t, errors.As(err, &rejected))
	assert.Equal(t, "member not found", rejected.Reason)
	assert.False(t, rejected.Pending)

	n, err := st.PendingCount(ctx, "E1")
	require.NoError(t, err)
	assert.Zero(t, n, "no PendingCheckIn may be created after an authoritative rejection")
}

// Scenario E / P4: a connectivity-class failure falls back to the roster and
// queues exactly one row.
func TestTransportFailureFallsBack(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "timeout", err: errors.New("context deadline exceeded")},
		{name: "server error", err: &v1.APIError{StatusCode: 502, Message: "bad gateway"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			live := &fakeLive{err: tt.err}
			r, st := setupReconciler(t, live, true)
			ctx := context.Background()
			seedRoster(t, st, "E1")

			res, err := r.CheckIn(ctx, Attempt{Identifier: "Q1", Method: model.MethodQR, EventID: "E1"})
			require.NoError(t, err)
			assert.Equal(t, ModeOffline, res.Mode)
			assert.Equal(t, 1, live.calls, "live attempt must be fully resolved first")

			n, err := st.PendingCount(ctx, "E1")
			require.NoError(t, err)
			assert.EqualValues(t, 1, n)
		})
	}
}

func TestLiveCheckInSuccess(t *testing.T) {
	live := &fakeLive{member: &common.MemberDTO{
		ID:               "m1",
		FullName:         "Grace Chen",
		FellowshipNumber: "AAA001",
		PhoneNumber:      "555-0101",
		Region:           common.RegionDTO{ID: "r1", Name: "North"},
	}}
	r, st := setupReconciler(t, live, true)
	ctx := context.Background()

	res, err := r.CheckIn(ctx, Attempt{Identifier: "aaa001", Method: model.MethodFellowshipNumber, EventID: "E1"})
	require.NoError(t, err)
	assert.Equal(t, ModeLive, res.Mode)
	assert.Equal(t, "North", res.Member.RegionName)

	// identifier is case-normalized before the server call
	assert.Equal(t, "AAA001", live.last.FellowshipNumber)
	assert.Empty(t, live.last.QRCode)

	n, err := st.PendingCount(ctx, "E1")
	require.NoError(t, err)
	assert.Zero(t, n, "a live success must not touch the queue")
}

// P5: reconciling against one event never matches another event's rows.
func TestEventScopeIsolation(t *testing.T) {
	r, st := setupReconciler(t, &fakeLive{}, false)
	ctx := context.Background()
	seedRoster(t, st, "E1")
	seedRoster(t, st, "E2")

	// queue m1 for E1, then the same member for E2: both succeed
	_, err := r.CheckIn(ctx, Attempt{Identifier: "Q1", Method: model.MethodQR, EventID: "E1"})
	require.NoError(t, err)
	res, err := r.CheckIn(ctx, Attempt{Identifier: "Q1", Method: model.MethodQR, EventID: "E2"})
	require.NoError(t, err)
	assert.Equal(t, ModeOffline, res.Mode)

	n1, _ := st.PendingCount(ctx, "E1")
	n2, _ := st.PendingCount(ctx, "E2")
	assert.EqualValues(t, 1, n1)
	assert.EqualValues(t, 1, n2)

	// an event with no roster stays unreachable even though the identifier
	// exists elsewhere
	_, err = r.CheckIn(ctx, Attempt{Identifier: "Q1", Method: model.MethodQR, EventID: "E3"})
	var failure *FailureError
	require.True(t, errors.As(err, &failure))
	assert.Equal(t, FailureRosterNotSynced, failure.Code)
}

func TestMalformedFellowshipNumberRejected(t *testing.T) {
	live := &fakeLive{}
	r, _ := setupReconciler(t, live, true)

	_, err := r.CheckIn(context.Background(), Attempt{Identifier: "AB1", Method: model.MethodFellowshipNumber, EventID: "E1"})
	var rejected *RejectedError
	require.True(t, errors.As(err, &rejected))
	assert.Zero(t, live.calls, "malformed input never reaches the server")
}
