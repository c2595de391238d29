package http

import (
	"net/http"

	"github.com/teamforge/iam/internal/iam/service"
	"github.com/teamforge/iam/pkg/httpx"
)

// OTPHandler handles TOTP enrollment for the authenticated user.
type OTPHandler struct {
	OTPService *service.OTPService
}

type otpSetupResponse struct {
	Secret  string `json:"secret"`
	URL     string `json:"url"`
	Issuer  string `json:"issuer"`
	Account string `json:"account"`
}

// HandleSetup handles POST /v1/otp/setup. Returns the provisioning secret
// once; enrollment completes when a code is verified through the login flow.
func (h *OTPHandler) HandleSetup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := httpx.UserIDFromContext(ctx)
	if userID == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	setup, err := h.OTPService.Setup(ctx, userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, otpSetupResponse{
		Secret:  setup.Secret,
		URL:     setup.URL,
		Issuer:  setup.Issuer,
		Account: setup.Account,
	})
}
