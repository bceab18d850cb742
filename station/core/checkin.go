// Package core holds the station's reconciliation logic: the check-in
// engine, the roster sync service and event-session selection. The engine is
// stateless across calls; everything durable lives in the store.
package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	v1 "koinonia.church/koinonia/membership/v1"
	"koinonia.church/koinonia/membership/v1/common"
	"koinonia.church/koinonia/station/model"
	"koinonia.church/koinonia/station/store"
)

type Mode string

const (
	ModeLive    Mode = "LIVE"
	ModeOffline Mode = "OFFLINE"
)

// Attempt is one presented identifier against one event. It has no lifecycle
// beyond a single Reconciler.CheckIn call.
type Attempt struct {
	Identifier string
	Method     model.Method
	EventID    string
}

// MemberSnapshot is the display data for a successful check-in. On the live
// path it comes from the server; offline it comes from the cached roster.
type MemberSnapshot struct {
	MemberID         string `json:"memberId"`
	FullName         string `json:"fullName"`
	FellowshipNumber string `json:"fellowshipNumber"`
	PhoneNumber      string `json:"phoneNumber"`
	RegionName       string `json:"regionName"`
}

type Result struct {
	Member MemberSnapshot `json:"member"`
	Mode   Mode           `json:"mode"`
}

// RejectedError is an authoritative "no": either the server answered with a
// client-error class outcome, or the offline duplicate guard fired. Never
// retried automatically and never followed by a fallback.
type RejectedError struct {
	Reason string
	// Pending marks the offline duplicate guard: the member is already in
	// the sync queue for this event.
	Pending bool
}

func (e *RejectedError) Error() string { return e.Reason }

type FailureCode string

const (
	// FailureRosterNotSynced: no roster was ever downloaded for this event,
	// so offline eligibility cannot be verified.
	FailureRosterNotSynced FailureCode = "ROSTER_NOT_SYNCED"
	// FailureNotEligible: the roster is present but the identifier matched
	// no entry.
	FailureNotEligible FailureCode = "NOT_ELIGIBLE"
)

// FailureError is offline-data insufficiency; the code tells the surface
// which corrective action to suggest (sync the roster vs verify
// registration).
type FailureError struct {
	Code   FailureCode
	Reason string
}

func (e *FailureError) Error() string { return e.Reason }

// LiveClient is the live check-in collaborator; *v1.AttendanceEndpoint
// satisfies it.
type LiveClient interface {
	CheckIn(ctx context.Context, req v1.CheckInRequest) (*common.MemberDTO, error)
}

// Reconciler decides, per attempt, between the live path and the local
// fallback. It holds no internal mutex; the surface serializes attempts.
type Reconciler struct {
	Live   LiveClient
	Store  *store.Store
	Oracle Oracle
	Log    *zap.Logger

	// Now is the client clock used to stamp queued check-ins.
	Now func() time.Time
}

func NewReconciler(live LiveClient, st *store.Store, oracle Oracle, log *zap.Logger) *Reconciler {
	return &Reconciler{
		Live:   live,
		Store:  st,
		Oracle: oracle,
		Log:    log,
		Now:    time.Now,
	}
}

// CheckIn runs one reconciliation attempt to completion. The live check is
// fully resolved before the offline path is ever entered.
func (r *Reconciler) CheckIn(ctx context.Context, attempt Attempt) (*Result, error) {
	identifier, err := r.normalize(attempt)
	if err != nil {
		return nil, &RejectedError{Reason: err.Error()}
	}

	if r.Oracle.Online(ctx) {
		result, err := r.checkInLive(ctx, attempt.EventID, identifier, attempt.Method)
		if err == nil {
			return result, nil
		}

		var rejected *RejectedError
		if errors.As(err, &rejected) {
			// an authoritative "no" is terminal; falling back to local state
			// here could contradict the server's record
			return nil, rejected
		}

		r.Log.Warn("live check-in abandoned, falling back to offline",
			zap.String("event_id", attempt.EventID),
			zap.String("method", string(attempt.Method)),
			zap.Error(err))
	}

	return r.checkInOffline(ctx, attempt.EventID, identifier, attempt.Method)
}

// normalize prepares the identifier for lookup. Manual entry is an operator
// typing a fellowship number, so it normalizes the same way; QR payloads are
// opaque and pass through verbatim.
func (r *Reconciler) normalize(attempt Attempt) (string, error) {
	if attempt.Method != model.MethodQR {
		return model.NormalizeFellowshipNumber(attempt.Identifier)
	}
	if attempt.Identifier == "" {
		return "", fmt.Errorf("empty scan identifier")
	}
	return attempt.Identifier, nil
}

func (r *Reconciler) checkInLive(ctx context.Context, eventID, identifier string, method model.Method) (*Result, error) {
	req := v1.CheckInRequest{
		EventID: eventID,
		Method:  string(method),
	}
	if method == model.MethodQR {
		req.QRCode = identifier
	} else {
		req.FellowshipNumber = identifier
	}

	member, err := r.Live.CheckIn(ctx, req)
	if err != nil {
		var apiErr *v1.APIError
		if errors.As(err, &apiErr) && apiErr.IsRejection() {
			return nil, &RejectedError{Reason: apiErr.Message}
		}
		// timeout, 5xx or transport error: connectivity-class
		return nil, err
	}

	return &Result{
		Member: MemberSnapshot{
			MemberID:         member.ID,
			FullName:         member.FullName,
			FellowshipNumber: member.FellowshipNumber,
			PhoneNumber:      member.PhoneNumber,
			RegionName:       member.Region.Name,
		},
		Mode: ModeLive,
	}, nil
}

func (r *Reconciler) checkInOffline(ctx context.Context, eventID, identifier string, method model.Method) (*Result, error) {
	var entry *model.RosterEntry
	var err error
	if method == model.MethodQR {
		entry, err = r.Store.FindRosterByQR(ctx, eventID, identifier)
	} else {
		entry, err = r.Store.FindRosterByFellowshipNumber(ctx, eventID, identifier)
	}

	if errors.Is(err, store.ErrNotFound) {
		n, countErr := r.Store.RosterCount(ctx, eventID)
		if countErr != nil {
			return nil, countErr
		}
		if n == 0 {
			return nil, &FailureError{
				Code:   FailureRosterNotSynced,
				Reason: "roster not synced for this event; cannot verify offline",
			}
		}
		return nil, &FailureError{
			Code:   FailureNotEligible,
			Reason: "member not found in the event roster; verify registration",
		}
	}
	if err != nil {
		return nil, err
	}

	queued := model.PendingCheckIn{
		ID:        uuid.NewString(),
		MemberID:  entry.MemberID,
		EventID:   eventID,
		Method:    method,
		FullName:  entry.FullName,
		Timestamp: r.Now().UTC().Format(time.RFC3339),
	}
	if err := r.Store.Enqueue(ctx, queued); err != nil {
		if errors.Is(err, store.ErrAlreadyQueued) {
			return nil, &RejectedError{
				Reason:  fmt.Sprintf("%s already scanned; check-in pending sync", entry.FullName),
				Pending: true,
			}
		}
		return nil, err
	}

	r.Log.Info("offline check-in queued",
		zap.String("event_id", eventID),
		zap.String("member_id", entry.MemberID),
		zap.String("method", string(method)))

	return &Result{
		Member: MemberSnapshot{
			MemberID:         entry.MemberID,
			FullName:         entry.FullName,
			FellowshipNumber: entry.FellowshipNumber,
			PhoneNumber:      entry.PhoneNumber,
			RegionName:       entry.RegionName,
		},
		Mode: ModeOffline,
	}, nil
}
