package model

import "time"

type Method string

const (
	MethodQR               Method = "QR"
	MethodFellowshipNumber Method = "FELLOWSHIP_NUMBER"
	MethodManual           Method = "MANUAL"
)

// PendingCheckIn is one offline check-in awaiting upload. Rows are appended
// by the reconciliation engine and drained by an external sync job; the
// station never mutates them. At most one row may exist per (member, event).
type PendingCheckIn struct {
	ID       string `gorm:"primaryKey;size:36" json:"id"`
	MemberID string `gorm:"size:64;not null;uniqueIndex:idx_pending_member_event" json:"memberId"`
	EventID  string `gorm:"size:64;not null;uniqueIndex:idx_pending_member_event" json:"eventId"`
	Method   Method `gorm:"size:24;not null" json:"method"`
	FullName string `gorm:"size:255;not null" json:"fullName"`

	// Client-clock capture time, ISO-8601.
	Timestamp string `gorm:"size:40;not null" json:"timestamp"`

	CreatedAt time.Time `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP;<-:create" json:"-"`
}

func (PendingCheckIn) TableName() string {
	return "station_sync_queue"
}
