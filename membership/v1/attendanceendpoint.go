package v1

import (
	"context"
	"fmt"

	"koinonia.church/koinonia/membership/v1/common"
)

type AttendanceEndpoint struct {
	transport *Transport
}

type CheckInRequest struct {
	EventID          string `json:"eventId"`
	Method           string `json:"method"` // QR | FELLOWSHIP_NUMBER | MANUAL
	QRCode           string `json:"qrCode,omitempty"`
	FellowshipNumber string `json:"fellowshipNumber,omitempty"`
}

type checkInResponse struct {
	Member common.MemberDTO `json:"member"`
}

type offlineRosterResponse struct {
	Members []common.MemberDTO `json:"members"`
}

// CheckIn performs a live check-in against the authoritative server. The
// returned member snapshot is authoritative display data. A semantic "no"
// comes back as an *APIError with IsRejection() true.
func (e *AttendanceEndpoint) CheckIn(ctx context.Context, req CheckInRequest) (*common.MemberDTO, error) {
	var resp checkInResponse
	if err := e.transport.Post(ctx, "/attendance/check-in", req, &resp); err != nil {
		return nil, err
	}
	return &resp.Member, nil
}

// OfflineRoster downloads the full snapshot of members eligible for offline
// check-in at the event.
func (e *AttendanceEndpoint) OfflineRoster(ctx context.Context, eventID string) ([]common.MemberDTO, error) {
	var resp offlineRosterResponse
	if err := e.transport.Get(ctx, fmt.Sprintf("/attendance/%s/offline-roster", eventID), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Members, nil
}
