package audit

import (
	"log"
	"time"
)

// EventType represents the type of audit event
type EventType string

const (
	EventLogin             EventType = "login"
	EventLoginFailed       EventType = "login_failed"
	EventLogout            EventType = "logout"
	EventUserCreated       EventType = "user_created"
	EventPasswordChange    EventType = "password_change"
	EventPasswordResetSent EventType = "password_reset_sent"
	EventPasswordReset     EventType = "password_reset"
	Event2FAEnabled        EventType = "2fa_enabled"
	Event2FADisabled       EventType = "2fa_disabled"
	EventProfileUpdated    EventType = "profile_updated"
	EventHandleClaimed     EventType = "handle_claimed"
	EventForwardingUpdated EventType = "forwarding_updated"
	EventStatusUpdated     EventType = "status_updated"
	EventDNSRecordCreated  EventType = "dns_record_created"
	EventDNSRecordDeleted  EventType = "dns_record_deleted"
)

// Log records an audit event
// In production, this should write to a database or external audit service
func Log(eventType EventType, userID, targetID string, details map[string]interface{}) {
	timestamp := time.Now().UTC().Format(time.RFC3339)

	// For now, log to stdout. In production, store in DB or send to audit service
	log.Printf("AUDIT [%s] event=%s user=%s target=%s details=%v",
		timestamp, eventType, userID, targetID, details)
}

// LogWithIP records an audit event with IP address
func LogWithIP(eventType EventType, userID, targetID, ip string, details map[string]interface{}) {
	if details == nil {
		details = make(map[string]interface{})
	}
	details["ip"] = ip
	Log(eventType, userID, targetID, details)
}
