package entity

// Method is the confirmed (or pending) second factor of an account.
type Method int16

const (
	// MethodNone means two-factor authentication is not set up.
	MethodNone Method = 0

	// MethodTOTP means an authenticator-app time-based code.
	MethodTOTP Method = 1

	// MethodEmail means a one-time code delivered by email.
	MethodEmail Method = 2
)

func (m Method) String() string {
	switch m {
	case MethodTOTP:
		return "totp"
	case MethodEmail:
		return "email"
	default:
		return "none"
	}
}

// Channel is the out-of-band delivery channel of a challenge.
type Channel int16

const (
	ChannelUnknown  Channel = 0
	ChannelEmail    Channel = 1
	ChannelTelegram Channel = 2
)

func (c Channel) String() string {
	switch c {
	case ChannelEmail:
		return "email"
	case ChannelTelegram:
		return "telegram"
	default:
		return "unknown"
	}
}

// AuditAction identifies a two-factor state transition or verification
// attempt reported to the audit stream.
type AuditAction string

const (
	AuditTOTPEnabled           AuditAction = "totp_enabled"
	AuditTOTPConfirmed         AuditAction = "totp_confirmed"
	AuditTOTPVerified          AuditAction = "totp_verified"
	AuditEmailConfirmed        AuditAction = "email_confirmed"
	AuditChallengeRequested    AuditAction = "challenge_requested"
	AuditChallengeVerified     AuditAction = "challenge_verified"
	AuditRecoveryCodeConsumed  AuditAction = "recovery_code_consumed"
	AuditRecoveryCodesRotated  AuditAction = "recovery_codes_rotated"
	AuditTwoFactorDisabled     AuditAction = "twofactor_disabled"
	AuditVerificationLockedOut AuditAction = "verification_locked_out"
)
