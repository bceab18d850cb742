package v1

import (
	"context"

	"koinonia.church/koinonia/membership/v1/common"
)

type EventEndpoint struct {
	transport *Transport
}

// Active lists the events currently inside their check-in window. Zero, one
// or many events may be active at the same time.
func (e *EventEndpoint) Active(ctx context.Context) ([]common.EventDTO, error) {
	var events []common.EventDTO
	if err := e.transport.Get(ctx, "/events/active", nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}
