package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// SnapshotSyncMessage asks the worker to export one snapshot. It carries
// only the row id; the worker loads the snapshot from the database.
type SnapshotSyncMessage struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

var errInvalidMessageID = errors.New("message id must be positive")

// NewSnapshotSyncMessage creates a sync message for the snapshot id.
func NewSnapshotSyncMessage(id int64) *SnapshotSyncMessage {
	return &SnapshotSyncMessage{
		ID:        id,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *SnapshotSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// SnapshotSyncMessageFromJSON decodes and validates a message body.
func SnapshotSyncMessageFromJSON(data []byte) (*SnapshotSyncMessage, error) {
	var msg SnapshotSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.ID <= 0 {
		return nil, errInvalidMessageID
	}
	return &msg, nil
}
