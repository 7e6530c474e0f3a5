package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"pixelgram/internal/model"
	"pixelgram/internal/repository"
)

// IdentityService maps authenticated external subjects to user rows. Token
// issuance and validation live with the identity provider; this service only
// resolves and provisions the linked user record.
type IdentityService struct {
	userRepo repository.UserRepository
}

func NewIdentityService(userRepo repository.UserRepository) *IdentityService {
	return &IdentityService{userRepo: userRepo}
}

// Resolve maps an external subject id to its user row.
//
// An empty subject means the request carried no valid identity and yields
// ErrUnauthenticated. A non-empty subject with no linked row yields
// ErrUserNotProvisioned: the caller is authenticated but has not been synced
// yet, which is a legitimate first-contact state rather than a security
// failure. Callers must treat the two distinctly.
func (s *IdentityService) Resolve(ctx context.Context, subject string) (*model.User, error) {
	if subject == "" {
		return nil, model.ErrUnauthenticated
	}

	user, err := s.userRepo.GetByExternalID(ctx, subject)
	if err != nil {
		if err == model.ErrUserNotFound {
			return nil, model.ErrUserNotProvisioned
		}
		return nil, fmt.Errorf("resolve user: %w", err)
	}

	return user, nil
}

// Provision creates the user row for an external subject on first contact.
// Idempotent: a subject that is already provisioned gets its existing row
// back. A taken username falls back to a suffixed variant so webhook
// delivery retries cannot wedge.
func (s *IdentityService) Provision(ctx context.Context, req model.ProvisionUserRequest) (*model.User, error) {
	if req.ExternalID == "" {
		return nil, model.ErrUnauthenticated
	}

	if existing, err := s.userRepo.GetByExternalID(ctx, req.ExternalID); err == nil {
		return existing, nil
	} else if err != model.ErrUserNotFound {
		return nil, fmt.Errorf("check existing user: %w", err)
	}

	username := strings.ToLower(strings.TrimSpace(req.Username))
	if err := model.ValidateUsername(username); err != nil {
		// Provider-supplied usernames can be anything; derive a safe one.
		username = "user_" + uuid.NewString()[:8]
	}

	user := &model.User{
		ExternalID:  req.ExternalID,
		Username:    username,
		DisplayName: req.DisplayName,
		AvatarURL:   req.AvatarURL,
	}

	err := s.userRepo.Create(ctx, user)
	if err == model.ErrUsernameExists {
		user.Username = username + "_" + uuid.NewString()[:6]
		err = s.userRepo.Create(ctx, user)
	}
	if err != nil {
		return nil, fmt.Errorf("provision user: %w", err)
	}

	log.Printf("[IdentityService] Provisioned user: id=%d username=%s", user.ID, user.Username)
	return user, nil
}
