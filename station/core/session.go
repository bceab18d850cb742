package core

import (
	"errors"

	"koinonia.church/koinonia/membership/v1/common"
	"koinonia.church/koinonia/utils"
)

var (
	// ErrNoActiveEvent: nothing to check in to right now.
	ErrNoActiveEvent = errors.New("no active event")
	// ErrEventChoiceRequired: several events are active and the surface must
	// name one.
	ErrEventChoiceRequired = errors.New("multiple active events; an event must be selected")
)

// SelectEvent picks the event a scanning session targets. Exactly one event
// must be selected before scanning begins: a single active event is chosen
// automatically, several require an explicit requested id.
func SelectEvent(events []common.EventDTO, requestedID string) (*common.EventDTO, error) {
	active := utils.Filter(events, func(e common.EventDTO) bool { return e.IsActive })

	if requestedID != "" {
		found := utils.Find(active, func(e common.EventDTO) bool { return e.ID == requestedID })
		if found == nil {
			return nil, ErrNoActiveEvent
		}
		return found, nil
	}

	switch len(active) {
	case 0:
		return nil, ErrNoActiveEvent
	case 1:
		return &active[0], nil
	default:
		return nil, ErrEventChoiceRequired
	}
}
