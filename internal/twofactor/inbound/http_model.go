package inbound

import "time"

type EnableTOTPResponse struct {
	URI          string `json:"uri"`
	MaskedSecret string `json:"masked_secret"`
}

func (EnableTOTPResponse) Message() string {
	return "Scan the QR code with your authenticator app, then confirm with a generated code."
}

type ConfirmTOTPRequest struct {
	Code string `json:"code"`
}

type ConfirmTOTPResponse struct {
	RecoveryCodes []string `json:"recovery_codes"`
}

func (ConfirmTOTPResponse) Message() string {
	return "Two-factor authentication is now active. Store these recovery codes somewhere safe; they are shown only once."
}

type VerifyTOTPRequest struct {
	Code string `json:"code"`
}

type VerifyTOTPResponse struct {
	AccessToken string `json:"access_token"`
}

type RequestChallengeResponse struct {
	ChallengeID string    `json:"challenge_id"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func (RequestChallengeResponse) Message() string {
	return "We sent a verification code to your email address."
}

type VerifyChallengeRequest struct {
	ChallengeID string `json:"challenge_id"`
	Code        string `json:"code"`
}

type VerifyChallengeResponse struct {
	AccessToken string `json:"access_token"`
}

type VerifyRecoveryCodeRequest struct {
	Code string `json:"code"`
}

type VerifyRecoveryCodeResponse struct {
	AccessToken string `json:"access_token"`
	Remaining   int64  `json:"remaining"`
}

type RotateRecoveryCodesResponse struct {
	RecoveryCodes []string `json:"recovery_codes"`
}

func (RotateRecoveryCodesResponse) Message() string {
	return "Recovery codes replaced. Previous codes no longer work."
}

type StatusResponse struct {
	Method                 string     `json:"method"`
	Confirmed              bool       `json:"confirmed"`
	ConfirmedAt            *time.Time `json:"confirmed_at,omitempty"`
	MaskedSecret           string     `json:"masked_secret,omitempty"`
	ProvisioningURI        string     `json:"provisioning_uri,omitempty"`
	RemainingRecoveryCodes int64      `json:"remaining_recovery_codes"`
	LockedUntil            *time.Time `json:"locked_until,omitempty"`
}

type DisableResponse struct{}

func (DisableResponse) Message() string {
	return "Two-factor authentication has been disabled."
}
