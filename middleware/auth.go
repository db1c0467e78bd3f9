package middleware

import (
	"errors"
	"net/http"
	"strings"

	"raffle-bff/apperrors"
	"raffle-bff/clients"
	"raffle-bff/reconcile"
	"raffle-bff/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const OwnerContextKey = "owner"

// RequireAuth resolves the signed-in user: the session stored for the device,
// or a bearer token sent by the caller. The token is attached to the request
// context for calls to the raffle API.
func RequireAuth(sessions *session.Manager, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		owner, err := resolveOwner(c, sessions)
		if err != nil {
			if !errors.Is(err, apperrors.ErrAuthRequired) {
				logger.Warn("Rejected credentials", zap.Error(err))
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": apperrors.ErrAuthRequired.Message})
			return
		}

		c.Set(OwnerContextKey, owner)
		c.Request = c.Request.WithContext(clients.WithToken(c.Request.Context(), owner.Token))
		c.Next()
	}
}

func resolveOwner(c *gin.Context, sessions *session.Manager) (reconcile.Owner, error) {
	owner := reconcile.Owner{Namespace: DeviceID(c)}

	if kv := DeviceStore(c); kv != nil {
		sess, err := sessions.Load(c.Request.Context(), kv)
		switch {
		case err == nil:
			owner.Identity = sess.Identity
			owner.Token = sess.Token
			return owner, nil
		case !errors.Is(err, session.ErrNoSession):
			return owner, err
		}
	}

	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return owner, apperrors.ErrAuthRequired
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	id, err := sessions.Resolve(token, nil)
	if err != nil {
		return owner, err
	}
	owner.Identity = id
	owner.Token = token
	if deviceIssued(c) {
		// token-only callers keep no device between requests
		owner.Namespace = tokenNamespace(id)
	}
	return owner, nil
}

// tokenNamespace is the store namespace for a caller that authenticates with
// a bearer token and sends no device id.
func tokenNamespace(id session.Identity) string {
	return "user:" + id.Key()
}

// RequireAdmin lets Admin and Manager roles through. The raffle API checks
// again; this only keeps other users off the admin pages.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		owner, err := GetOwner(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": apperrors.ErrAuthRequired.Message})
			return
		}
		if !owner.Identity.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": apperrors.ErrForbidden.Message})
			return
		}
		c.Next()
	}
}

// GetOwner returns the owner set by RequireAuth, or ErrAuthRequired.
func GetOwner(c *gin.Context) (reconcile.Owner, error) {
	val, exists := c.Get(OwnerContextKey)
	if !exists {
		return reconcile.Owner{}, apperrors.ErrAuthRequired
	}
	owner, ok := val.(reconcile.Owner)
	if !ok || owner.Identity.IsZero() {
		return reconcile.Owner{}, apperrors.ErrAuthRequired
	}
	return owner, nil
}
