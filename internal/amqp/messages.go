package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// ProfileSyncMessage asks the worker to mirror a company profile.
// It carries only the owner and the version that was written; the worker
// reads the profile itself so a late message never overwrites newer data.
type ProfileSyncMessage struct {
	UID       string    `json:"uid"`
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

var errMissingUID = errors.New("profile sync message without uid")

func NewProfileSyncMessage(uid string, version int64) *ProfileSyncMessage {
	return &ProfileSyncMessage{
		UID:       uid,
		Version:   version,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ProfileSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ProfileSyncMessageFromJSON decodes a message, rejecting one without a uid.
func ProfileSyncMessageFromJSON(data []byte) (*ProfileSyncMessage, error) {
	var msg ProfileSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.UID == "" {
		return nil, errMissingUID
	}
	return &msg, nil
}
