package http

import (
	"encoding/hex"
	"net"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/blake2b"
)

// IdentityResolver derives the identity hint for an inbound request.
// The hint is a correlation key for session continuity, not an
// authentication decision. Resolution order:
//
//  1. X-Session-ID header, when the caller manages its own continuity
//  2. the subject claim of a bearer JWT
//  3. a digest of user agent and client IP, for anonymous callers
type IdentityResolver struct {
	jwtSecret []byte
}

// NewIdentityResolver creates an IdentityResolver. The secret is optional:
// without it, bearer subjects are read without signature verification,
// which is fine for a correlation key.
func NewIdentityResolver(jwtSecret []byte) *IdentityResolver {
	return &IdentityResolver{jwtSecret: jwtSecret}
}

// Resolve returns the identity hint for a request. It never fails: the
// anonymous fallback always produces a hint.
func (ir *IdentityResolver) Resolve(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get("X-Session-ID")); id != "" {
		return id
	}

	if sub := ir.bearerSubject(r); sub != "" {
		return "jwt:" + sub
	}

	return anonymousHint(r)
}

// bearerSubject extracts the subject claim from a bearer token, if any
func (ir *IdentityResolver) bearerSubject(r *http.Request) string {
	token := extractBearerToken(r)
	if token == "" {
		return ""
	}

	var claims jwt.RegisteredClaims

	if len(ir.jwtSecret) > 0 {
		parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
			return ir.jwtSecret, nil
		}, jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}))
		if err != nil || !parsed.Valid {
			return ""
		}
		return claims.Subject
	}

	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return ""
	}
	return claims.Subject
}

// anonymousHint digests user agent and client IP into a stable hint
func anonymousHint(r *http.Request) string {
	host := r.RemoteAddr
	if h, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		host = h
	}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		host = strings.TrimSpace(strings.Split(fwd, ",")[0])
	}

	digest := blake2b.Sum256([]byte(r.UserAgent() + "\x00" + host))
	return "anon:" + hex.EncodeToString(digest[:16])
}

// extractBearerToken extracts the Bearer token from Authorization header
func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}

	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
