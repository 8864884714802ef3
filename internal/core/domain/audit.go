package domain

import "time"

// Audit actions recorded by the authentication flow.
const (
	ActionLogin          = "user_login"
	ActionLoginFailed    = "failed_login_attempt"
	ActionLogout         = "user_logout"
	ActionUserRegistered = "user_registered"
)

// AuditEntry is one row of the system log.
type AuditEntry struct {
	ID         string         `json:"id" bson:"_id"`
	UserID     string         `json:"user_id,omitempty" bson:"user_id,omitempty"`
	Action     string         `json:"action" bson:"action"`
	EntityType string         `json:"entity_type,omitempty" bson:"entity_type,omitempty"`
	EntityID   string         `json:"entity_id,omitempty" bson:"entity_id,omitempty"`
	Details    map[string]any `json:"details,omitempty" bson:"details,omitempty"`
	IPAddress  string         `json:"ip_address,omitempty" bson:"ip_address,omitempty"`
	UserAgent  string         `json:"user_agent,omitempty" bson:"user_agent,omitempty"`
	CreatedAt  time.Time      `json:"created_at" bson:"created_at"`
}
