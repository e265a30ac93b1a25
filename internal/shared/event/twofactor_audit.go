package event

import "time"

const TwoFactorAuditDestination string = "twofactor_audit"

type TwoFactorAuditMessage struct {
	UserID   int64             `json:"user_id"`
	Action   string            `json:"action"`
	Success  bool              `json:"success"`
	At       time.Time         `json:"at"`
	Metadata map[string]string `json:"metadata,omitempty"`
}
