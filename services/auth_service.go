package services

import (
	"context"
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"raffle-bff/apperrors"
	"raffle-bff/clients"
	"raffle-bff/reconcile"
	"raffle-bff/session"
	"raffle-bff/store"

	"go.uber.org/zap"
)

// AccountAPI signs users in against the raffle API.
type AccountAPI interface {
	Login(ctx context.Context, req clients.LoginRequest) (*clients.AuthResponse, error)
	Register(ctx context.Context, req clients.RegisterRequest) (*clients.AuthResponse, error)
}

// AuthResult is the outcome of login or register. Session is nil when the
// server accepted a registration without signing the user in.
type AuthResult struct {
	Session *session.Session
	Message string
}

// AuthService defines the interface for sign-in flows. kv is the device's
// store.
type AuthService interface {
	Login(ctx context.Context, kv store.Store, req clients.LoginRequest) (*AuthResult, error)
	Register(ctx context.Context, kv store.Store, req clients.RegisterRequest) (*AuthResult, error)
	Logout(ctx context.Context, kv store.Store, namespace string) error
	Current(ctx context.Context, kv store.Store) (*session.Session, error)
}

type authServiceImpl struct {
	api      AccountAPI
	sessions *session.Manager
	policy   *reconcile.Policy
	logger   *zap.Logger
}

func NewAuthService(api AccountAPI, sessions *session.Manager, policy *reconcile.Policy, logger *zap.Logger) AuthService {
	return &authServiceImpl{api: api, sessions: sessions, policy: policy, logger: logger}
}

func (s *authServiceImpl) Login(ctx context.Context, kv store.Store, req clients.LoginRequest) (*AuthResult, error) {
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		return nil, apperrors.New(http.StatusBadRequest, "Email and password are required", nil)
	}

	resp, err := s.api.Login(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.Token == "" {
		msg := resp.Message
		if msg == "" {
			msg = "Login failed"
		}
		return nil, apperrors.New(http.StatusUnauthorized, msg, nil)
	}
	return s.establish(ctx, kv, resp)
}

func (s *authServiceImpl) Register(ctx context.Context, kv store.Store, req clients.RegisterRequest) (*AuthResult, error) {
	req.Email = strings.TrimSpace(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.Password == "" {
		return nil, apperrors.New(http.StatusBadRequest, "Name and password are required", nil)
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return nil, apperrors.New(http.StatusBadRequest, "A valid email is required", err)
	}

	resp, err := s.api.Register(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return &AuthResult{Message: resp.Message}, nil
	}
	return s.establish(ctx, kv, resp)
}

func (s *authServiceImpl) establish(ctx context.Context, kv store.Store, resp *clients.AuthResponse) (*AuthResult, error) {
	var user *session.Identity
	if resp.User != nil {
		user = &session.Identity{
			UserID: resp.User.ID,
			Name:   resp.User.Name,
			Email:  resp.User.Email,
			Role:   resp.User.Role,
		}
	}

	id, err := s.sessions.Resolve(resp.Token, user)
	if err != nil {
		s.logger.Warn("Rejected sign-in token", zap.Error(err))
		return nil, apperrors.Wrap(apperrors.ErrInvalidToken, err)
	}
	if id.Role == "" {
		id.Role = session.RoleCustomer
	}
	if err := s.sessions.Save(ctx, kv, resp.Token, id); err != nil {
		return nil, err
	}

	s.logger.Info("User signed in", zap.String("identity", id.Key()), zap.String("role", id.Role))
	return &AuthResult{Session: &session.Session{Token: resp.Token, Identity: id}, Message: resp.Message}, nil
}

// Logout drops the signed-in user's cart and draft, then the session itself.
func (s *authServiceImpl) Logout(ctx context.Context, kv store.Store, namespace string) error {
	sess, err := s.sessions.Load(ctx, kv)
	if errors.Is(err, session.ErrNoSession) {
		return nil
	}
	if err != nil {
		return err
	}

	owner := reconcile.Owner{Namespace: namespace, Identity: sess.Identity, Token: sess.Token}
	if err := s.policy.Logout(ctx, owner); err != nil {
		return err
	}
	return s.sessions.Clear(ctx, kv)
}

func (s *authServiceImpl) Current(ctx context.Context, kv store.Store) (*session.Session, error) {
	sess, err := s.sessions.Load(ctx, kv)
	if errors.Is(err, session.ErrNoSession) {
		return nil, apperrors.ErrAuthRequired
	}
	return sess, err
}
