package v1

import "time"

type MembershipClient struct {
	Transport  *Transport
	Events     *EventEndpoint
	Volunteers *VolunteerEndpoint
	Attendance *AttendanceEndpoint
}

// NewMembershipClient initializes the API client
func NewMembershipClient(baseURL string, token string, timeout time.Duration) *MembershipClient {
	t := NewTransport(baseURL, token, timeout)
	return &MembershipClient{
		Transport:  t,
		Events:     &EventEndpoint{transport: t},
		Volunteers: &VolunteerEndpoint{transport: t},
		Attendance: &AttendanceEndpoint{transport: t},
	}
}
