package handler

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"

	"pixelgram/internal/model"
	"pixelgram/internal/service"
)

type stubUserRepo struct {
	users map[string]*model.User
}

func (s *stubUserRepo) Create(ctx context.Context, u *model.User) error {
	u.ID = int64(len(s.users) + 1)
	s.users[u.ExternalID] = u
	return nil
}

func (s *stubUserRepo) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return nil, model.ErrUserNotFound
}

func (s *stubUserRepo) GetByExternalID(ctx context.Context, externalID string) (*model.User, error) {
	if u, ok := s.users[externalID]; ok {
		return u, nil
	}
	return nil, model.ErrUserNotFound
}

func (s *stubUserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return nil, model.ErrUserNotFound
}

func (s *stubUserRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return false, nil
}

func (s *stubUserRepo) Search(ctx context.Context, query string, limit int) ([]model.UserSummary, error) {
	return nil, nil
}

func (s *stubUserRepo) UpdateProfile(ctx context.Context, userID int64, req model.UpdateProfileRequest) (*model.User, error) {
	return nil, model.ErrUserNotFound
}

func (s *stubUserRepo) GetSummariesByIDs(ctx context.Context, ids []int64) (map[int64]model.UserSummary, error) {
	return nil, nil
}

func signBody(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func newWebhookHandler(secret string) (*WebhookHandler, *stubUserRepo) {
	repo := &stubUserRepo{users: make(map[string]*model.User)}
	return NewWebhookHandler(service.NewIdentityService(repo), secret), repo
}

func TestWebhookHandler_ProvisionUser_ValidSignature(t *testing.T) {
	h, repo := newWebhookHandler("topsecret")

	body := []byte(`{"external_id":"sub-1","username":"alice"}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/users", bytes.NewReader(body))
	req.Header.Set("X-Webhook-Signature", signBody("topsecret", body))
	rec := httptest.NewRecorder()

	h.ProvisionUser(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", rec.Code, rec.Body.String())
	}
	if _, ok := repo.users["sub-1"]; !ok {
		t.Error("user was not provisioned")
	}
}

func TestWebhookHandler_ProvisionUser_BadSignature(t *testing.T) {
	h, repo := newWebhookHandler("topsecret")

	body := []byte(`{"external_id":"sub-1","username":"alice"}`)

	tests := []struct {
		name      string
		signature string
	}{
		{"missing", ""},
		{"wrong secret", signBody("othersecret", body)},
		{"garbage", "not-a-signature"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/webhooks/users", bytes.NewReader(body))
			if tt.signature != "" {
				req.Header.Set("X-Webhook-Signature", tt.signature)
			}
			rec := httptest.NewRecorder()

			h.ProvisionUser(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
		})
	}

	if len(repo.users) != 0 {
		t.Error("no user should be provisioned on signature failure")
	}
}

func TestWebhookHandler_ProvisionUser_Redelivery(t *testing.T) {
	h, repo := newWebhookHandler("topsecret")

	body := []byte(`{"external_id":"sub-1","username":"alice"}`)
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/webhooks/users", bytes.NewReader(body))
		req.Header.Set("X-Webhook-Signature", signBody("topsecret", body))
		rec := httptest.NewRecorder()

		h.ProvisionUser(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("delivery %d: status = %d, want 200", i+1, rec.Code)
		}
	}

	if len(repo.users) != 1 {
		t.Errorf("users = %d, want 1 after redelivery", len(repo.users))
	}
}

func TestWebhookHandler_ProvisionUser_MissingExternalID(t *testing.T) {
	h, _ := newWebhookHandler("topsecret")

	body := []byte(`{"username":"alice"}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/users", bytes.NewReader(body))
	req.Header.Set("X-Webhook-Signature", signBody("topsecret", body))
	rec := httptest.NewRecorder()

	h.ProvisionUser(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
