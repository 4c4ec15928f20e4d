package amqp

import (
	"encoding/json"
	"time"
)

// Record change operations carried on the event stream.
const (
	OpCreated = "created"
	OpUpdated = "updated"
	OpDeleted = "deleted"
)

// RecordEvent announces a change to one record. It carries identifiers only;
// consumers that need the full record fetch it from storage, so a stale
// event never replays stale data.
type RecordEvent struct {
	Kind       string    `json:"kind"`
	Op         string    `json:"op"`
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	OccurredAt time.Time `json:"occurredAt"`
}

func NewRecordEvent(kind, op, id, userID string) *RecordEvent {
	return &RecordEvent{
		Kind:       kind,
		Op:         op,
		ID:         id,
		UserID:     userID,
		OccurredAt: time.Now().UTC(),
	}
}

func (e *RecordEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func RecordEventFromJSON(data []byte) (*RecordEvent, error) {
	var ev RecordEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}
