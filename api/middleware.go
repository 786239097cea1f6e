package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shaj13/go-guardian/auth"
	"github.com/shaj13/go-guardian/auth/strategies/bearer"
	"github.com/shaj13/go-guardian/store"
	"go.uber.org/zap"

	"github.com/linesmerrill/medtrack-api/config"
	"github.com/linesmerrill/medtrack-api/models"
)

// tokenCacheTTL bounds how long a verified token skips signature checks
const tokenCacheTTL = 10 * time.Minute

// expiresAtKey is the auth.Info extension holding a cached token's exp as unix seconds
const expiresAtKey = "exp"

// ErrInvalidToken is returned for missing, malformed, expired or badly signed tokens
var ErrInvalidToken = errors.New("invalid token")

// Claims is the JWT payload issued by the auth service
type Claims struct {
	ID        string      `json:"id"`
	Email     string      `json:"email,omitempty"`
	Username  string      `json:"username,omitempty"`
	UserType  models.Role `json:"userType"`
	FirstName string      `json:"firstName,omitempty"`
	LastName  string      `json:"lastName,omitempty"`
	jwt.RegisteredClaims
}

// Auth verifies bearer tokens through go-guardian with a JWT authenticate func
type Auth struct {
	authenticator auth.Authenticator
	cache         store.Cache
	secret        []byte
	now           func() time.Time
}

// NewAuth sets up the go-guardian bearer strategy for the configured secret
func NewAuth(conf *config.Config) *Auth {
	a := &Auth{secret: []byte(conf.JWTSecret), now: time.Now}
	a.authenticator = auth.New()
	a.cache = store.NewFIFO(context.Background(), tokenCacheTTL)
	tokenStrategy := bearer.New(a.validateToken, a.cache)
	a.authenticator.EnableStrategy(bearer.CachedStrategyKey, tokenStrategy)
	return a
}

func (a *Auth) validateToken(ctx context.Context, r *http.Request, token string) (auth.Info, error) {
	id, claims, err := a.parseClaims(token)
	if err != nil {
		return nil, err
	}
	var extensions map[string][]string
	if claims.ExpiresAt != nil {
		extensions = map[string][]string{expiresAtKey: {strconv.FormatInt(claims.ExpiresAt.Unix(), 10)}}
	}
	return auth.NewDefaultUser(id.Name, id.ID, []string{string(id.Role)}, extensions), nil
}

// ParseToken verifies an HS256 token and returns the identity it carries
func (a *Auth) ParseToken(token string) (Identity, error) {
	id, _, err := a.parseClaims(token)
	return id, err
}

func (a *Auth) parseClaims(token string) (Identity, *Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(a.now))
	if err != nil {
		return Identity{}, nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.ID == "" || !claims.UserType.Valid() {
		return Identity{}, nil, fmt.Errorf("%w: missing id or user type", ErrInvalidToken)
	}
	name := claims.Username
	if name == "" {
		name = claims.Email
	}
	return Identity{ID: claims.ID, Role: claims.UserType, Name: name}, claims, nil
}

// SignToken issues a token for id that expires after ttl
func (a *Auth) SignToken(id Identity, ttl time.Duration) (string, error) {
	claims := Claims{
		ID:       id.ID,
		Username: id.Name,
		UserType: id.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(a.now()),
			ExpiresAt: jwt.NewNumericDate(a.now().Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Authenticate resolves the caller of r from its bearer header, or from the
// token query parameter browsers use for websocket handshakes
func (a *Auth) Authenticate(r *http.Request) (Identity, error) {
	if token := r.URL.Query().Get("token"); token != "" && r.Header.Get("Authorization") == "" {
		return a.ParseToken(token)
	}
	info, err := a.authenticator.Authenticate(r)
	if err != nil {
		return Identity{}, err
	}
	if a.expired(info) {
		// cached entries can outlive exp
		if token, err := bearer.Token(r); err == nil {
			a.cache.Delete(token, r)
		}
		return Identity{}, fmt.Errorf("%w: token is expired", ErrInvalidToken)
	}
	return identityFromInfo(info), nil
}

func (a *Auth) expired(info auth.Info) bool {
	values := info.Extensions()[expiresAtKey]
	if len(values) == 0 {
		return false
	}
	exp, err := strconv.ParseInt(values[0], 10, 64)
	if err != nil {
		return true
	}
	return !a.now().Before(time.Unix(exp, 0))
}

func identityFromInfo(info auth.Info) Identity {
	id := Identity{ID: info.ID(), Name: info.UserName()}
	if groups := info.Groups(); len(groups) > 0 {
		id.Role = models.Role(groups[0])
	}
	return id
}

// Middleware rejects unauthenticated requests and stores the caller's identity
// on the request context
func (a *Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		id, err := a.Authenticate(r)
		if err != nil {
			zap.S().Errorw("unauthorized",
				"url", r.URL.Path,
				"error", err)
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error": "unauthorized"}`))
			return
		}
		zap.S().Debugw("user authenticated", "userID", id.ID, "role", id.Role)
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

// RequireRole only lets callers holding one of roles through
func RequireRole(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFrom(r.Context())
			if !ok || !id.HasRole(roles...) {
				names := make([]string, len(roles))
				for i, role := range roles {
					names[i] = string(role)
				}
				config.ErrorStatus("access denied, requires role "+strings.Join(names, " or "), http.StatusForbidden, w, models.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
