package core

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"koinonia.church/koinonia/membership/v1/common"
	"koinonia.church/koinonia/station/model"
	"koinonia.church/koinonia/station/store"
	"koinonia.church/koinonia/utils"
)

// RosterClient is the roster download collaborator; *v1.AttendanceEndpoint
// satisfies it.
type RosterClient interface {
	OfflineRoster(ctx context.Context, eventID string) ([]common.MemberDTO, error)
}

// SyncService downloads an event's eligible-member snapshot and atomically
// replaces the local roster with it. A failed download leaves the previous
// roster untouched.
type SyncService struct {
	Client RosterClient
	Store  *store.Store
	Log    *zap.Logger

	Now func() time.Time
}

func NewSyncService(client RosterClient, st *store.Store, log *zap.Logger) *SyncService {
	return &SyncService{
		Client: client,
		Store:  st,
		Log:    log,
		Now:    time.Now,
	}
}

// Sync returns the size of the just-installed roster.
func (s *SyncService) Sync(ctx context.Context, eventID string) (int, error) {
	members, err := s.Client.OfflineRoster(ctx, eventID)
	if err != nil {
		return 0, fmt.Errorf("download roster for event %s: %w", eventID, err)
	}

	syncedAt := s.Now()
	entries := utils.Map(members, func(m common.MemberDTO) model.RosterEntry {
		number := m.FellowshipNumber
		if normalized, err := model.NormalizeFellowshipNumber(number); err == nil {
			number = normalized
		}
		return model.RosterEntry{
			MemberID:         m.ID,
			EventID:          eventID,
			FullName:         m.FullName,
			FellowshipNumber: number,
			PhoneNumber:      m.PhoneNumber,
			QRCode:           m.QRCode,
			RegionName:       m.Region.Name,
			SyncedAt:         syncedAt,
		}
	})

	if err := s.Store.ReplaceRoster(ctx, eventID, entries); err != nil {
		return 0, fmt.Errorf("replace roster for event %s: %w", eventID, err)
	}

	s.Log.Info("roster synced",
		zap.String("event_id", eventID),
		zap.Int("members", len(entries)))

	return len(entries), nil
}
