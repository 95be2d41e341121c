package authn

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/assetgrid/assetgrid/internal/shared"
)

// Service wraps authentication business rules: credential verification,
// token issuing and the identity-loading stage of the authorization
// pipeline.
type Service struct {
	repo    Repository
	tokens  *TokenManager
	revoked *RevocationList
}

// NewService constructs a new Service. revoked may be nil when no
// revocation backend is configured.
func NewService(repo Repository, tokens *TokenManager, revoked *RevocationList) *Service {
	return &Service{repo: repo, tokens: tokens, revoked: revoked}
}

// Authenticate validates username/password credentials. Credential failure
// causes collapse into ErrInvalidCredentials so responses do not reveal
// whether the account exists; storage failures stay distinct because they
// are an outage, not a credential problem.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*Subject, error) {
	subject, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrInvalidCredentials
		}
		return nil, NewError(CodeStorageFailure, "internal error", err)
	}
	if !subject.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(subject.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return subject, nil
}

// IssueToken creates a signed access token for the subject.
func (s *Service) IssueToken(subject *Subject) (string, *Claims, error) {
	return s.tokens.Issue(subject.ID, subject.Username)
}

// VerifyCredential validates the bearer token and checks the revocation
// list. It performs no storage lookups beyond the revocation check.
func (s *Service) VerifyCredential(ctx context.Context, tokenString string) (*Claims, error) {
	claims, err := s.tokens.Verify(tokenString)
	if err != nil {
		return nil, err
	}
	if s.revoked != nil {
		revoked, err := s.revoked.IsRevoked(ctx, claims.TokenID)
		if err != nil {
			return nil, NewError(CodeStorageFailure, "internal error", err)
		}
		if revoked {
			return nil, NewError(CodeRevoked, "token revoked", nil)
		}
	}
	return claims, nil
}

// LoadSubject loads the subject's account state. A disabled account never
// reaches role or permission resolution.
func (s *Service) LoadSubject(ctx context.Context, id int64) (*Subject, error) {
	subject, err := s.repo.GetSubjectByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, NewError(CodeSubjectNotFound, "authentication required", err)
		}
		return nil, NewError(CodeStorageFailure, "internal error", err)
	}
	if !subject.IsActive {
		return nil, NewError(CodeAccountDisabled, "account disabled", nil)
	}
	return subject, nil
}

// RevokeToken adds the token's ID to the revocation list until the token
// would have expired on its own.
func (s *Service) RevokeToken(ctx context.Context, claims *Claims) error {
	if s.revoked == nil {
		return nil
	}
	return s.revoked.Revoke(ctx, claims.TokenID, claims.ExpiresAt)
}
