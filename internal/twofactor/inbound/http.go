package inbound

import (
	"context"
	"net/http"

	"github.com/toolvault/toolvault/internal/pkg/router"
	"github.com/toolvault/toolvault/internal/twofactor/usecase"
)

type uc interface {
	EnableTOTP(ctx context.Context) (*usecase.EnableTOTPOutput, error)
	ConfirmTOTP(ctx context.Context, in usecase.ConfirmTOTPInput) (*usecase.ConfirmTOTPOutput, error)
	VerifyTOTP(ctx context.Context, in usecase.VerifyTOTPInput) (*usecase.VerifyTOTPOutput, error)

	RequestChallenge(ctx context.Context) (*usecase.RequestChallengeOutput, error)
	VerifyChallenge(ctx context.Context, in usecase.VerifyChallengeInput) (*usecase.VerifyChallengeOutput, error)

	VerifyRecoveryCode(ctx context.Context, in usecase.VerifyRecoveryCodeInput) (*usecase.VerifyRecoveryCodeOutput, error)
	RotateRecoveryCodes(ctx context.Context) (*usecase.RotateRecoveryCodesOutput, error)

	Status(ctx context.Context) (*usecase.StatusOutput, error)
	QRCode(ctx context.Context) (*usecase.QRCodeOutput, error)
	Disable(ctx context.Context) error
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	// TOTP enrollment & step-up
	r.POST("/api/v1/twofactor/totp/setup", end.EnableTOTP)
	r.POST("/api/v1/twofactor/totp/confirm", end.ConfirmTOTP)
	r.POST("/api/v1/twofactor/totp/verify", end.VerifyTOTP) // reachable pending second factor

	// Email challenges (reachable pending second factor)
	r.POST("/api/v1/twofactor/challenges", end.RequestChallenge)
	r.POST("/api/v1/twofactor/challenges/verify", end.VerifyChallenge)

	// Recovery codes
	r.POST("/api/v1/twofactor/recovery-codes/verify", end.VerifyRecoveryCode) // reachable pending second factor
	r.POST("/api/v1/twofactor/recovery-codes", end.RotateRecoveryCodes)

	// State
	r.GET("/api/v1/twofactor", end.Status)
	r.GETRaw("/api/v1/twofactor/qr", http.HandlerFunc(end.QRCode))
	r.DELETE("/api/v1/twofactor", end.Disable)
}
