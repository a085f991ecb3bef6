package domain

import "time"

// AuditAction names an authentication event worth keeping a trail of.
type AuditAction string

const (
	AuditLogin    AuditAction = "login"
	AuditRegister AuditAction = "register"
	AuditLogout   AuditAction = "logout"
	AuditDelete   AuditAction = "delete_user"
)

// AuditOutcome is the result of an audited action.
type AuditOutcome string

const (
	OutcomeSuccess AuditOutcome = "success"
	OutcomeFailure AuditOutcome = "failure"
)

// AuditEvent is a single entry of the authentication audit trail. It never
// carries passwords, salts or session tokens.
type AuditEvent struct {
	Action    AuditAction
	Outcome   AuditOutcome
	UserID    string // empty when the actor could not be resolved
	Username  string
	Reason    string // short machine-friendly failure reason
	Timestamp time.Time
}
