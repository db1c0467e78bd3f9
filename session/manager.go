package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"raffle-bff/store"

	"go.uber.org/zap"
)

// Keys shared with the browser build of the shop.
const (
	KeyAuthToken   = "auth_token"
	KeyCurrentUser = "current_user"
	KeyTheme       = "theme"
)

// Theme values accepted by SetTheme.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// ErrNoSession is returned by Load when nobody is signed in on the device.
var ErrNoSession = errors.New("session: not signed in")

// Session is what a device remembers about its signed-in user.
type Session struct {
	Token    string
	Identity Identity
}

// Manager persists sessions into a device-scoped store.
type Manager struct {
	secret []byte
	log    *zap.Logger
}

// NewManager creates a Manager. secret may be empty, see ParseToken.
func NewManager(secret []byte, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{secret: secret, log: log}
}

// Resolve turns a login response into an identity: the server's user payload
// when it has one, the token claims otherwise.
func (m *Manager) Resolve(token string, user *Identity) (Identity, error) {
	if user != nil && !user.IsZero() {
		return *user, nil
	}
	id, err := IdentityFromToken(token, m.secret)
	if err != nil {
		return Identity{}, err
	}
	if id.IsZero() {
		return Identity{}, fmt.Errorf("token carries no user id or email")
	}
	return id, nil
}

// Save stores token and identity on the device.
func (m *Manager) Save(ctx context.Context, kv store.Store, token string, id Identity) error {
	if err := kv.Set(ctx, KeyAuthToken, token); err != nil {
		return err
	}
	return store.WriteJSON(ctx, kv, KeyCurrentUser, id)
}

// Load restores the device's session. A missing or unreadable current_user is
// rebuilt from the token; a token that cannot be decoded ends the session.
func (m *Manager) Load(ctx context.Context, kv store.Store) (*Session, error) {
	token, err := kv.Get(ctx, KeyAuthToken)
	if errors.Is(err, store.ErrNotFound) || (err == nil && strings.TrimSpace(token) == "") {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, err
	}

	var id Identity
	found, err := store.ReadJSON(ctx, kv, KeyCurrentUser, &id, m.log)
	if err != nil {
		return nil, err
	}
	if found && !id.IsZero() {
		return &Session{Token: token, Identity: id}, nil
	}

	id, err = IdentityFromToken(token, m.secret)
	if err != nil || id.IsZero() {
		m.log.Warn("Dropping unusable stored session", zap.Error(err))
		if clearErr := m.Clear(ctx, kv); clearErr != nil {
			return nil, clearErr
		}
		return nil, ErrNoSession
	}
	if err := store.WriteJSON(ctx, kv, KeyCurrentUser, id); err != nil {
		return nil, err
	}
	return &Session{Token: token, Identity: id}, nil
}

// Clear forgets the signed-in user. The theme survives.
func (m *Manager) Clear(ctx context.Context, kv store.Store) error {
	return store.Remove(ctx, kv, KeyAuthToken, KeyCurrentUser)
}

// Theme returns the stored theme, defaulting to light.
func (m *Manager) Theme(ctx context.Context, kv store.Store) (string, error) {
	v, err := kv.Get(ctx, KeyTheme)
	if errors.Is(err, store.ErrNotFound) {
		return ThemeLight, nil
	}
	if err != nil {
		return "", err
	}
	if v != ThemeDark {
		return ThemeLight, nil
	}
	return ThemeDark, nil
}

// SetTheme stores the theme. Only light and dark are accepted.
func (m *Manager) SetTheme(ctx context.Context, kv store.Store, theme string) error {
	theme = strings.ToLower(strings.TrimSpace(theme))
	if theme != ThemeLight && theme != ThemeDark {
		return fmt.Errorf("unknown theme %q", theme)
	}
	return kv.Set(ctx, KeyTheme, theme)
}
