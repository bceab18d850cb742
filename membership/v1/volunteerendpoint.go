package v1

import (
	"context"
	"fmt"
)

type VolunteerEndpoint struct {
	transport *Transport
}

type checkPermissionResponse struct {
	HasPermission bool `json:"hasPermission"`
}

// CheckPermission reports whether the authenticated volunteer may run the
// check-in surface for the given event.
func (e *VolunteerEndpoint) CheckPermission(ctx context.Context, eventID string) (bool, error) {
	var resp checkPermissionResponse
	if err := e.transport.Get(ctx, fmt.Sprintf("/volunteers/%s/check-permission", eventID), nil, &resp); err != nil {
		return false, err
	}
	return resp.HasPermission, nil
}
