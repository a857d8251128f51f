package collab

import (
	"encoding/json"
	"log/slog"
)

// PresenceManager tracks cursors and selections of the users in a room. It
// is only used from the hub goroutine.
type PresenceManager struct {
	presences map[string]*PresencePayload // userID -> presence
}

func NewPresenceManager() *PresenceManager {
	return &PresenceManager{
		presences: make(map[string]*PresencePayload),
	}
}

func (pm *PresenceManager) Update(userID string, p *PresencePayload) {
	pm.presences[userID] = p
}

func (pm *PresenceManager) Remove(userID string) {
	delete(pm.presences, userID)
}

// StateMessage returns the presence.state message for a joining client, or
// nil when nobody else is present.
func (pm *PresenceManager) StateMessage() *Message {
	if len(pm.presences) == 0 {
		return nil
	}
	payload, err := json.Marshal(PresenceStatePayload{Presences: pm.presences})
	if err != nil {
		slog.Error("marshal presence state", "error", err)
		return nil
	}
	return &Message{
		Type:    TypePresenceState,
		Payload: payload,
	}
}
