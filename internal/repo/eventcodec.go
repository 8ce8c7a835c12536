package repo

import (
	"encoding/json"
	"fmt"

	"github.com/Basim108/galactic-delivery-system.backend/internal/domain"
)

// encodeEvent serializes a domain event into the (kind, payload) pair stored
// in the trip event journal.
func encodeEvent(event domain.Event) (domain.EventKind, []byte, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return "", nil, fmt.Errorf("marshal %s event: %w", event.Kind(), err)
	}
	return event.Kind(), payload, nil
}

// decodeEvent deserializes a journal row back into its concrete event type.
// An unknown kind is a data corruption error, not a domain error.
func decodeEvent(kind domain.EventKind, payload []byte) (domain.Event, error) {
	var (
		event domain.Event
		err   error
	)

	switch kind {
	case domain.KindTripCreated:
		var e domain.TripCreated
		err = json.Unmarshal(payload, &e)
		event = e
	case domain.KindTripStarted:
		var e domain.TripStarted
		err = json.Unmarshal(payload, &e)
		event = e
	case domain.KindCheckpointReached:
		var e domain.CheckpointReached
		err = json.Unmarshal(payload, &e)
		event = e
	case domain.KindIncidentReported:
		var e domain.IncidentReported
		err = json.Unmarshal(payload, &e)
		event = e
	case domain.KindTripCompleted:
		var e domain.TripCompleted
		err = json.Unmarshal(payload, &e)
		event = e
	case domain.KindTripAborted:
		var e domain.TripAborted
		err = json.Unmarshal(payload, &e)
		event = e
	default:
		return nil, fmt.Errorf("unsupported trip event kind %q", kind)
	}

	if err != nil {
		return nil, fmt.Errorf("unmarshal %s event: %w", kind, err)
	}
	return event, nil
}
