// Package authx guards the administrative routes. A caller authenticates
// with a bearer JWT signed by the platform's HS256 secret or with an API key
// matching a bcrypt hash. With neither configured every request passes.
package authx

import (
	"fmt"
	"strings"

	"github.com/Abraxas-365/expomail/pkg/errx"
	"github.com/Abraxas-365/expomail/pkg/kernel"
	"github.com/Abraxas-365/expomail/pkg/logx"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	APIKeyHeader = "X-API-Key"
	localsKey    = "auth"
)

var authErrors = errx.NewRegistry("AUTH")

var (
	ErrUnauthorized = authErrors.Register("UNAUTHORIZED", errx.TypeAuthorization, 401, "Authentication required")
	ErrInvalidToken = authErrors.Register("INVALID_TOKEN", errx.TypeAuthorization, 401, "Invalid or expired token")
	ErrInvalidKey   = authErrors.Register("INVALID_API_KEY", errx.TypeAuthorization, 401, "Invalid API key")
)

// Claims are the fields read from a platform access token.
type Claims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Authenticator validates admin credentials.
type Authenticator struct {
	secret  []byte
	keyHash []byte
}

// New builds an Authenticator. Empty arguments disable the matching scheme.
func New(jwtSecret, apiKeyHash string) *Authenticator {
	a := &Authenticator{}
	if jwtSecret != "" {
		a.secret = []byte(jwtSecret)
	}
	if apiKeyHash != "" {
		a.keyHash = []byte(apiKeyHash)
	}
	return a
}

// Enabled reports whether any scheme is configured.
func (a *Authenticator) Enabled() bool {
	return len(a.secret) > 0 || len(a.keyHash) > 0
}

// Require returns middleware that rejects unauthenticated requests.
func (a *Authenticator) Require() fiber.Handler {
	if !a.Enabled() {
		logx.Warn("authx: no AUTH_JWT_SECRET or AUTH_API_KEY_HASH configured, admin routes are open")
		return func(c *fiber.Ctx) error { return c.Next() }
	}

	return func(c *fiber.Ctx) error {
		ac, err := a.authenticate(c)
		if err != nil {
			logx.WithFields(logx.Fields{
				"path": c.Path(),
				"ip":   c.IP(),
			}).WithError(err).Debug("authx: rejected request")
			return err
		}
		c.Locals(localsKey, ac)
		c.SetUserContext(kernel.WithAuthContext(c.UserContext(), ac))
		return c.Next()
	}
}

func (a *Authenticator) authenticate(c *fiber.Ctx) (*kernel.AuthContext, error) {
	if key := c.Get(APIKeyHeader); key != "" {
		return a.checkAPIKey(key)
	}

	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return nil, authErrors.New(ErrUnauthorized)
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return nil, authErrors.New(ErrUnauthorized)
	}
	return a.ValidateToken(parts[1])
}

func (a *Authenticator) checkAPIKey(key string) (*kernel.AuthContext, error) {
	if len(a.keyHash) == 0 {
		return nil, authErrors.New(ErrInvalidKey)
	}
	if err := bcrypt.CompareHashAndPassword(a.keyHash, []byte(key)); err != nil {
		return nil, authErrors.New(ErrInvalidKey)
	}
	return &kernel.AuthContext{Subject: "api-key", IsAPIKey: true}, nil
}

// ValidateToken parses an HS256 access token.
func (a *Authenticator) ValidateToken(token string) (*kernel.AuthContext, error) {
	if len(a.secret) == 0 {
		return nil, authErrors.New(ErrInvalidToken)
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, authErrors.NewWithCause(ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, authErrors.New(ErrInvalidToken)
	}

	return &kernel.AuthContext{
		Subject: claims.Subject,
		Email:   claims.Email,
		Role:    claims.Role,
	}, nil
}

// FromCtx returns the caller stored by Require.
func FromCtx(c *fiber.Ctx) (*kernel.AuthContext, bool) {
	ac, ok := c.Locals(localsKey).(*kernel.AuthContext)
	return ac, ok && ac != nil
}
