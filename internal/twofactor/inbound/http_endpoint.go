package inbound

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/toolvault/toolvault/internal/pkg/goerror"
	"github.com/toolvault/toolvault/internal/pkg/router"
	"github.com/toolvault/toolvault/internal/twofactor/usecase"
)

// HTTPEndpoint exposes HTTP handlers for the two-factor workflows.
type HTTPEndpoint struct {
	uc uc
}

// EnableTOTP provisions a fresh authenticator secret for the caller.
func (h *HTTPEndpoint) EnableTOTP(r *router.Request) (any, error) {
	resp, err := h.uc.EnableTOTP(r.Context())
	if err != nil {
		return nil, err
	}

	return EnableTOTPResponse{
		URI:          resp.URI,
		MaskedSecret: resp.MaskedSecret,
	}, nil
}

// ConfirmTOTP verifies the first authenticator code and activates the factor.
func (h *HTTPEndpoint) ConfirmTOTP(r *router.Request) (any, error) {
	var req ConfirmTOTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.ConfirmTOTP(r.Context(), usecase.ConfirmTOTPInput{Code: req.Code})
	if err != nil {
		return nil, err
	}

	return ConfirmTOTPResponse{RecoveryCodes: resp.RecoveryCodes}, nil
}

// VerifyTOTP completes a login step-up with an authenticator code.
func (h *HTTPEndpoint) VerifyTOTP(r *router.Request) (any, error) {
	var req VerifyTOTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.VerifyTOTP(r.Context(), usecase.VerifyTOTPInput{Code: req.Code})
	if err != nil {
		return nil, err
	}

	return VerifyTOTPResponse{AccessToken: resp.AccessToken}, nil
}

// RequestChallenge emails a one-time code to the caller's address.
func (h *HTTPEndpoint) RequestChallenge(r *router.Request) (any, error) {
	resp, err := h.uc.RequestChallenge(r.Context())
	if err != nil {
		return nil, err
	}

	return RequestChallengeResponse{
		ChallengeID: strconv.FormatInt(resp.ChallengeID, 10),
		ExpiresAt:   resp.ExpiresAt,
	}, nil
}

// VerifyChallenge completes a login step-up with an emailed code.
func (h *HTTPEndpoint) VerifyChallenge(r *router.Request) (any, error) {
	var req VerifyChallengeRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	id, err := strconv.ParseInt(req.ChallengeID, 10, 64)
	if err != nil {
		return nil, goerror.NewInvalidFormat("challenge_id must be a numeric string")
	}

	resp, err := h.uc.VerifyChallenge(r.Context(), usecase.VerifyChallengeInput{
		ChallengeID: id,
		Code:        req.Code,
	})
	if err != nil {
		return nil, err
	}

	return VerifyChallengeResponse{AccessToken: resp.AccessToken}, nil
}

// VerifyRecoveryCode completes a login step-up by spending a backup code.
func (h *HTTPEndpoint) VerifyRecoveryCode(r *router.Request) (any, error) {
	var req VerifyRecoveryCodeRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.VerifyRecoveryCode(r.Context(), usecase.VerifyRecoveryCodeInput{Code: req.Code})
	if err != nil {
		return nil, err
	}

	return VerifyRecoveryCodeResponse{
		AccessToken: resp.AccessToken,
		Remaining:   resp.Remaining,
	}, nil
}

// RotateRecoveryCodes replaces the caller's backup codes with a new set.
func (h *HTTPEndpoint) RotateRecoveryCodes(r *router.Request) (any, error) {
	resp, err := h.uc.RotateRecoveryCodes(r.Context())
	if err != nil {
		return nil, err
	}

	return RotateRecoveryCodesResponse{RecoveryCodes: resp.RecoveryCodes}, nil
}

// Status reports the caller's two-factor configuration.
func (h *HTTPEndpoint) Status(r *router.Request) (any, error) {
	resp, err := h.uc.Status(r.Context())
	if err != nil {
		return nil, err
	}

	return StatusResponse{
		Method:                 resp.Method.String(),
		Confirmed:              resp.Confirmed,
		ConfirmedAt:            resp.ConfirmedAt,
		MaskedSecret:           resp.MaskedSecret,
		ProvisioningURI:        resp.ProvisioningURI,
		RemainingRecoveryCodes: resp.RemainingRecoveryCodes,
		LockedUntil:            resp.LockedUntil,
	}, nil
}

// QRCode streams the provisioning URI as a PNG. It bypasses the JSON
// codec because the body is an image.
func (h *HTTPEndpoint) QRCode(w http.ResponseWriter, r *http.Request) {
	resp, err := h.uc.QRCode(r.Context())
	if err != nil {
		if setter, ok := w.(interface{ SetError(error) }); ok {
			setter.SetError(err)
		}

		status := http.StatusInternalServerError
		msg := "Internal server error"
		var gerr *goerror.Error
		if errors.As(err, &gerr) {
			status = gerr.StatusCode()
			msg = gerr.Msg()
		}
		http.Error(w, msg, status)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if _, err := w.Write(resp.PNG); err != nil {
		if setter, ok := w.(interface{ SetError(error) }); ok {
			setter.SetError(err)
		}
	}
}

// Disable turns off two-factor authentication for the caller.
func (h *HTTPEndpoint) Disable(r *router.Request) (any, error) {
	if err := h.uc.Disable(r.Context()); err != nil {
		return nil, err
	}

	return DisableResponse{}, nil
}
