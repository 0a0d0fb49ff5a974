package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ===== Client scope cookie =====

// ScopeConfig controls the signed cookie that identifies one browser profile.
type ScopeConfig struct {
	HMACSecret   []byte
	CookieName   string
	CookieDomain string
	SecureCookie bool
	TTL          time.Duration
}

type ScopeManager struct{ cfg ScopeConfig }

func NewScopeManager(secret, cookieName, domain string, secure bool, ttl time.Duration) *ScopeManager {
	if cookieName == "" {
		cookieName = "client_scope"
	}
	return &ScopeManager{cfg: ScopeConfig{
		HMACSecret:   []byte(secret),
		CookieName:   cookieName,
		CookieDomain: domain, // "" keeps the cookie host-only
		SecureCookie: secure,
		TTL:          ttl,
	}}
}

type ScopeClaims struct {
	jwt.RegisteredClaims
}

func (m *ScopeManager) CookieName() string { return m.cfg.CookieName }

// Mint signs scope into a fresh cookie. An empty scope allocates a new one.
func (m *ScopeManager) Mint(w http.ResponseWriter, scope string) (string, error) {
	if scope == "" {
		scope = uuid.NewString()
	}
	now := time.Now()
	claims := ScopeClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.cfg.TTL)),
			Subject:   scope,
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.cfg.HMACSecret)
	if err != nil {
		return "", err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    signed,
		Path:     "/",
		Domain:   m.cfg.CookieDomain,
		MaxAge:   int(m.cfg.TTL.Seconds()),
		HttpOnly: true,
		Secure:   m.cfg.SecureCookie,
		// Lax: the provider's redirect back is a cross-site top-level GET.
		SameSite: http.SameSiteLaxMode,
	})
	return scope, nil
}

// ParseFromRequest returns the verified claims of the request's scope cookie.
func (m *ScopeManager) ParseFromRequest(r *http.Request) (*ScopeClaims, error) {
	c, err := r.Cookie(m.cfg.CookieName)
	if err != nil {
		return nil, errors.New("missing scope cookie")
	}
	claims := &ScopeClaims{}
	tkn, err := jwt.ParseWithClaims(c.Value, claims, func(t *jwt.Token) (any, error) {
		return m.cfg.HMACSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !tkn.Valid || claims.Subject == "" {
		return nil, errors.New("invalid scope cookie")
	}
	return claims, nil
}

// Resolve returns the request's scope, minting or refreshing the cookie when
// it is missing, invalid, or past half its lifetime.
func (m *ScopeManager) Resolve(w http.ResponseWriter, r *http.Request) (string, error) {
	claims, err := m.ParseFromRequest(r)
	if err != nil {
		return m.Mint(w, "")
	}
	if claims.IssuedAt != nil && time.Since(claims.IssuedAt.Time) > m.cfg.TTL/2 {
		return m.Mint(w, claims.Subject)
	}
	return claims.Subject, nil
}

type scopeCtxKey struct{}

func withScope(ctx context.Context, scope string) context.Context {
	return context.WithValue(ctx, scopeCtxKey{}, scope)
}

// ScopeFrom returns the client scope resolved by the ClientScope middleware.
func ScopeFrom(ctx context.Context) string {
	s, _ := ctx.Value(scopeCtxKey{}).(string)
	return s
}
