package models

// Domain event types published to the event bus
const (
	EventUserRegistered    = "user.registered"
	EventUserPasswordReset = "user.password_reset"
	EventUserDeleted       = "user.deleted"
	EventItemCreated       = "item.created"
	EventItemUpdated       = "item.updated"
	EventItemDeleted       = "item.deleted"
)

// Event represents a domain event, keyed by the entity it concerns.
type Event struct {
	EventID   string            `json:"event_id"`       // EventID is a unique identifier for the event.
	Type      string            `json:"type"`           // Type is one of the Event* constants.
	Timestamp int64             `json:"timestamp"`      // Timestamp is the Unix time (seconds) the event happened.
	UserID    string            `json:"user_id"`        // UserID is the user the event concerns.
	EntityID  string            `json:"entity_id"`      // EntityID is the item id for item events, the user id otherwise.
	Data      map[string]string `json:"data,omitempty"` // Data carries small, non-sensitive attributes.
}
