package models

import "time"

// Activity actions recorded after a successful mutation.
const (
	ActionUserCreated = "user.created"
	ActionUserSignup  = "user.signup"
	ActionUserLogin   = "user.login"
	ActionUserUpdated = "user.updated"
	ActionUserDeleted = "user.deleted"
	ActionPinCreated  = "pin.created"
	ActionPinUpdated  = "pin.updated"
	ActionPinDeleted  = "pin.deleted"
	ActionPinSaved    = "pin.saved"
	ActionPinRemoved  = "pin.removed"
)

// Activity is one row of the audit log.
type Activity struct {
	ID     int64     `json:"id"`
	Action string    `json:"action"`
	UserID string    `json:"userId"`
	PinID  string    `json:"pinId,omitempty"`
	At     time.Time `json:"at"`
}
