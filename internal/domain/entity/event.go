package entity

import "time"

// UserEventType identifies what happened to an account.
type UserEventType string

const (
	UserEventSignedUp UserEventType = "user.signed_up"
	UserEventLoggedIn UserEventType = "user.logged_in"
	UserEventDeleted  UserEventType = "user.deleted"
)

// UserEvent is emitted to the event sink after an account change has been persisted.
type UserEvent struct {
	RequestID  string        `json:"request_id,omitempty"`
	Type       UserEventType `json:"type"`
	UserID     string        `json:"user_id"`
	Email      string        `json:"email,omitempty"`
	Provider   string        `json:"provider,omitempty"`
	OccurredAt time.Time     `json:"occurred_at"`
}
