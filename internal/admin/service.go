package admin

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"checkin/internal/auth"
)

var (
	// ErrMissingCredentials is returned when username or password is blank.
	ErrMissingCredentials = errors.New("username and password are required")
	// ErrInvalidCredentials covers both an unknown username and a wrong
	// password.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Store is the persistence the service needs. *Repository implements it.
type Store interface {
	GetByUsername(ctx context.Context, username string) (User, error)
	Create(ctx context.Context, username, passwordHash string) (bool, error)
	Reset(ctx context.Context, username, passwordHash string) error
}

// TokenIssuer signs access tokens. *auth.Issuer implements it.
type TokenIssuer interface {
	Issue(subject, role string) (auth.Token, error)
}

// Service authenticates administrators.
type Service struct {
	store     Store
	issuer    TokenIssuer
	revoker   auth.Revoker
	logger    *zap.Logger
	cost      int
	dummyHash string
}

// NewService wires the admin service. cost is the bcrypt work factor used
// for new hashes.
func NewService(store Store, issuer TokenIssuer, revoker auth.Revoker, logger *zap.Logger, cost int) (*Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	dummy, err := HashPassword("checkin-unknown-user", cost)
	if err != nil {
		return nil, err
	}
	return &Service{
		store:     store,
		issuer:    issuer,
		revoker:   revoker,
		logger:    logger,
		cost:      cost,
		dummyHash: dummy,
	}, nil
}

// Login verifies the credentials and issues an admin token.
func (s *Service) Login(ctx context.Context, username, password string) (auth.Token, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return auth.Token{}, ErrMissingCredentials
	}

	user, err := s.store.GetByUsername(ctx, username)
	switch {
	case errors.Is(err, ErrNotFound):
		// Same bcrypt work as a real account.
		CheckPassword(s.dummyHash, password)
		s.logger.Info("login failed: user not found", zap.String("username", username))
		return auth.Token{}, ErrInvalidCredentials
	case err != nil:
		return auth.Token{}, err
	}

	if !CheckPassword(user.PasswordHash, password) {
		s.logger.Info("login failed: invalid password", zap.String("username", username))
		return auth.Token{}, ErrInvalidCredentials
	}

	tok, err := s.issuer.Issue(user.Username, auth.RoleAdmin)
	if err != nil {
		return auth.Token{}, err
	}
	s.logger.Info("admin logged in", zap.String("username", user.Username), zap.String("jti", tok.ID))
	return tok, nil
}

// Logout revokes the token described by claims until it expires.
func (s *Service) Logout(ctx context.Context, claims auth.Claims) error {
	if claims.ExpiresAt == nil {
		return errors.New("token has no expiry")
	}
	return s.revoker.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
}

// EnsureAdmin seeds the admin account when it does not exist yet. An
// existing account keeps its password.
func (s *Service) EnsureAdmin(ctx context.Context, username, password string) (bool, error) {
	hash, err := HashPassword(password, s.cost)
	if err != nil {
		return false, err
	}
	created, err := s.store.Create(ctx, username, hash)
	if err != nil {
		return false, err
	}
	if created {
		s.logger.Info("admin account seeded", zap.String("username", username))
	}
	return created, nil
}

// ResetAdmin replaces the admin account, setting a new password.
func (s *Service) ResetAdmin(ctx context.Context, username, password string) error {
	if strings.TrimSpace(username) == "" || password == "" {
		return ErrMissingCredentials
	}
	hash, err := HashPassword(password, s.cost)
	if err != nil {
		return err
	}
	if err := s.store.Reset(ctx, username, hash); err != nil {
		return err
	}
	s.logger.Info("admin account reset", zap.String("username", username))
	return nil
}
