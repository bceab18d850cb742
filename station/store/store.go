// Package store owns the station's embedded database: the per-event roster
// snapshot and the pending sync queue. All mutations go through here so the
// two invariants hold regardless of caller: a roster replace is atomic per
// event, and the queue holds at most one row per (member, event).
package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"koinonia.church/koinonia/station/model"
)

var (
	// ErrNotFound means no roster row matched the lookup.
	ErrNotFound = errors.New("store: roster entry not found")
	// ErrAlreadyQueued means a pending check-in already exists for the
	// (member, event) pair.
	ErrAlreadyQueued = errors.New("store: check-in already queued")
)

type Store struct {
	db *gorm.DB
}

// Open opens (or creates) the station database at path and migrates the
// schema. Use ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open station store: %w", err)
	}
	return New(db)
}

// New wraps an existing gorm handle and migrates the schema.
func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&model.RosterEntry{}, &model.PendingCheckIn{}); err != nil {
		return nil, fmt.Errorf("migrate station store: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ReplaceRoster swaps the entire roster for one event in a single
// transaction. A reader never observes the roster half-replaced; on error
// the previous roster is left untouched.
func (s *Store) ReplaceRoster(ctx context.Context, eventID string, entries []model.RosterEntry) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("event_id = ?", eventID).Delete(&model.RosterEntry{}).Error; err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}
		for i := range entries {
			if entries[i].EventID != eventID {
				return fmt.Errorf("roster entry for member %s carries event %s, expected %s",
					entries[i].MemberID, entries[i].EventID, eventID)
			}
		}
		return tx.CreateInBatches(entries, 200).Error
	})
}

func (s *Store) RosterCount(ctx context.Context, eventID string) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&model.RosterEntry{}).
		Where("event_id = ?", eventID).
		Count(&n).Error
	return n, err
}

// FindRosterByQR matches a QR payload verbatim, scoped strictly to the event.
func (s *Store) FindRosterByQR(ctx context.Context, eventID, qrCode string) (*model.RosterEntry, error) {
	return s.findRoster(ctx, eventID, "qr_code = ?", qrCode)
}

// FindRosterByFellowshipNumber expects an already-normalized number.
func (s *Store) FindRosterByFellowshipNumber(ctx context.Context, eventID, number string) (*model.RosterEntry, error) {
	return s.findRoster(ctx, eventID, "fellowship_number = ?", number)
}

func (s *Store) findRoster(ctx context.Context, eventID, cond string, arg string) (*model.RosterEntry, error) {
	var entry model.RosterEntry
	err := s.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Where(cond, arg).
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// Enqueue appends one pending check-in. The duplicate guard and the insert
// run in one transaction so two interleaved attempts cannot both queue; the
// composite unique index backstops the guard.
func (s *Store) Enqueue(ctx context.Context, pending model.PendingCheckIn) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		err := tx.Model(&model.PendingCheckIn{}).
			Where("event_id = ? AND member_id = ?", pending.EventID, pending.MemberID).
			Count(&n).Error
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrAlreadyQueued
		}
		return tx.Create(&pending).Error
	})
}

func (s *Store) PendingExists(ctx context.Context, eventID, memberID string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&model.PendingCheckIn{}).
		Where("event_id = ? AND member_id = ?", eventID, memberID).
		Count(&n).Error
	return n > 0, err
}

func (s *Store) PendingCount(ctx context.Context, eventID string) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&model.PendingCheckIn{}).
		Where("event_id = ?", eventID).
		Count(&n).Error
	return n, err
}

func (s *Store) ListPending(ctx context.Context, eventID string) ([]model.PendingCheckIn, error) {
	var rows []model.PendingCheckIn
	err := s.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("timestamp").
		Find(&rows).Error
	return rows, err
}
