package common

type RegionDTO struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

type MemberDTO struct {
	ID               string    `json:"id"`
	FullName         string    `json:"fullName"`
	FellowshipNumber string    `json:"fellowshipNumber"`
	PhoneNumber      string    `json:"phoneNumber"`
	QRCode           string    `json:"qrCode,omitempty"`
	Region           RegionDTO `json:"region"`
}

type EventDTO struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Date      DateOnly `json:"date"`
	StartTime string   `json:"startTime"` // HH:mm
	EndTime   string   `json:"endTime"`   // HH:mm
	IsActive  bool     `json:"isActive"`
}
