// Package services holds the application layer between the transport and
// the repositories.
package services

import (
	"chat-relay/domain"
	apperrors "chat-relay/errors"
	"chat-relay/repositories"
	"context"
	"fmt"
	"log/slog"
	"time"
)

// TokenService resolves presented bearer tokens through the access-token
// collection. Every failure mode collapses to ErrUnauthorized so callers
// cannot tell a malformed token from an expired one.
type TokenService struct {
	log     *slog.Logger
	tokens  *repositories.AccessTokenRepository
	timeout time.Duration
	now     func() time.Time
}

func NewTokenService(log *slog.Logger, tokens *repositories.AccessTokenRepository, timeout time.Duration) *TokenService {
	return &TokenService{
		log:     log,
		tokens:  tokens,
		timeout: timeout,
		now:     time.Now,
	}
}

func (s *TokenService) Validate(ctx context.Context, token string) (domain.ID, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	stored, found, err := s.tokens.TryGetByID(ctx, domain.ID(token))
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("token lookup: %w", err)
		}
		return "", fmt.Errorf("%w: invalid access token", apperrors.ErrUnauthorized)
	}
	if !found {
		return "", fmt.Errorf("%w: unknown access token", apperrors.ErrUnauthorized)
	}
	if !stored.Valid(s.now()) {
		return "", fmt.Errorf("%w: expired access token", apperrors.ErrUnauthorized)
	}
	return stored.UserID, nil
}
