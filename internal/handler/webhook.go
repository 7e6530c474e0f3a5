package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log"
	"net/http"

	"pixelgram/internal/httputil"
	"pixelgram/internal/model"
	"pixelgram/internal/service"
)

// maxWebhookBody caps the provisioning payload size.
const maxWebhookBody = 64 * 1024

// WebhookHandler receives user provisioning events from the identity
// provider. Requests are authenticated by an HMAC-SHA256 signature over the
// raw body, not by a bearer token.
type WebhookHandler struct {
	identityService *service.IdentityService
	secret          string
}

func NewWebhookHandler(identityService *service.IdentityService, secret string) *WebhookHandler {
	return &WebhookHandler{identityService: identityService, secret: secret}
}

// ProvisionUser handles POST /webhooks/users
// Idempotent: redelivered events return the already-provisioned user.
func (h *WebhookHandler) ProvisionUser(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		httputil.WriteBadRequest(w, "Failed to read request body")
		return
	}

	if !h.verifySignature(body, r.Header.Get("X-Webhook-Signature")) {
		httputil.WriteUnauthenticated(w, "Invalid webhook signature")
		return
	}

	var req model.ProvisionUserRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}
	if req.ExternalID == "" {
		httputil.WriteValidationFailed(w, "external_id is required")
		return
	}

	user, err := h.identityService.Provision(r.Context(), req)
	if err != nil {
		log.Printf("[ERROR] Provision user handler: external_id=%s err=%v", req.ExternalID, err)
		httputil.WriteInternalError(w, "Failed to provision user")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, user)
}

// verifySignature checks the hex HMAC-SHA256 of the raw body against the
// provider's signature header using a constant-time comparison.
func (h *WebhookHandler) verifySignature(body []byte, signature string) bool {
	if h.secret == "" || signature == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(h.secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}
