package model

import "time"

// RosterEntry is a denormalized snapshot of one member eligible for offline
// check-in at one event. The whole set for an event is replaced on every
// sync, never patched.
type RosterEntry struct {
	ID               uint   `gorm:"primaryKey" json:"-"`
	MemberID         string `gorm:"size:64;not null;uniqueIndex:idx_roster_member_event" json:"memberId"`
	EventID          string `gorm:"size:64;not null;uniqueIndex:idx_roster_member_event;index:idx_roster_event_qr;index:idx_roster_event_fn" json:"eventId"`
	FullName         string `gorm:"size:255;not null" json:"fullName"`
	FellowshipNumber string `gorm:"size:6;not null;index:idx_roster_event_fn" json:"fellowshipNumber"`
	PhoneNumber      string `gorm:"size:32" json:"phoneNumber"`
	QRCode           string `gorm:"size:255;index:idx_roster_event_qr" json:"qrCode"`
	RegionName       string `gorm:"size:128" json:"regionName"`

	SyncedAt time.Time `gorm:"not null" json:"syncedAt"`
}

func (RosterEntry) TableName() string {
	return "station_roster"
}
