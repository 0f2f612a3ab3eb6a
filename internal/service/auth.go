package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/capitalize-ai/support-chat/internal/auth"
	"github.com/capitalize-ai/support-chat/internal/model"
	"github.com/capitalize-ai/support-chat/pkg/logger"
	"github.com/capitalize-ai/support-chat/pkg/metrics"
)

// AuthService checks credentials and issues identity tokens.
type AuthService struct {
	users  IdentityFinder
	tokens *auth.TokenIssuer
	logger *logger.Logger
}

// NewAuthService creates an auth service. tokens may be nil, in which case
// logins return no access token.
func NewAuthService(users IdentityFinder, tokens *auth.TokenIssuer, log *logger.Logger) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		logger: log,
	}
}

// Login verifies email and password. Unknown emails and wrong passwords both
// return ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error) {
	email := strings.TrimSpace(req.Email)

	user, err := s.users.FindUserByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		metrics.LoginAttemptsTotal.WithLabelValues("rejected").Inc()
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("login: %w", err)
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		metrics.LoginAttemptsTotal.WithLabelValues("rejected").Inc()
		return nil, ErrInvalidCredentials
	}

	resp := &model.LoginResponse{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
		Role:  user.Role,
	}
	if s.tokens != nil {
		token, err := s.tokens.Issue(user)
		if err != nil {
			metrics.LoginAttemptsTotal.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("login: %w", err)
		}
		resp.AccessToken = token
		resp.ExpiresIn = int64(s.tokens.TTL().Seconds())
	}

	metrics.LoginAttemptsTotal.WithLabelValues("accepted").Inc()
	s.logger.Info("user logged in", zap.Uint("user_id", user.ID))
	return resp, nil
}
