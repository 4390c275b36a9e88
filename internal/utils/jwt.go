package utils // package utils provides helper functions for token creation and hashing

import (
	"crypto/rand"   // secure random generation for the fallback signing secret
	"crypto/sha256" // SHA-256 hashing for session lookup keys
	"encoding/hex"  // hex encoding of digests and secrets
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library for creating and parsing signed tokens

	"github.com/iliyamo/auth-service/internal/model"
)

// Token types carried in the "type" claim.  Access tokens authenticate a
// single request window; refresh tokens are persisted as sessions and
// exchanged for new access tokens.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

var (
	// ErrTokenExpired is returned by VerifyToken when the token's exp claim
	// is in the past.  The signature may still be valid.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenMalformed covers every other verification failure: bad
	// signature, unexpected algorithm, missing or mistyped claims.
	ErrTokenMalformed = errors.New("token malformed")
)

// Claims is the decoded payload of a verified token.  Role is the snapshot
// taken at issuance time, not the live value from the user record.
type Claims struct {
	Subject   string     // sub: user id
	Type      string     // type: access | refresh
	Role      model.Role // role: admin | user
	IssuedAt  time.Time  // iat
	ExpiresAt time.Time  // exp
}

// IssueToken builds and signs an HS256 JWT carrying {sub, type, role, iat, exp}.
// Timestamps are truncated to whole seconds, so two tokens issued within the
// same second for the same inputs differ only if the primitive adds padding.
func IssueToken(secret, subject string, role model.Role, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub":  subject,
		"type": tokenType,
		"role": string(role),
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(secret))
}

// VerifyToken decodes a token string and checks its signature and expiry.
// It is a pure function of the token, the secret and the current time: no
// database access happens here, so a signature-valid but revoked refresh
// token still verifies and must additionally be checked against the session
// store by the caller.
func VerifyToken(secret, raw string) (Claims, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		// Pin the algorithm family: a token signed with anything but HMAC
		// (e.g. "none" or an asymmetric method) is rejected outright.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenMalformed
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, ErrTokenMalformed
	}
	if !tok.Valid {
		return Claims{}, ErrTokenMalformed
	}
	mc, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrTokenMalformed
	}

	sub, _ := mc["sub"].(string)
	typ, _ := mc["type"].(string)
	roleStr, _ := mc["role"].(string)
	if sub == "" || (typ != TokenTypeAccess && typ != TokenTypeRefresh) {
		return Claims{}, ErrTokenMalformed
	}

	c := Claims{
		Subject: sub,
		Type:    typ,
		Role:    model.ParseRole(roleStr),
	}
	if iat, ok := mc["iat"].(float64); ok {
		c.IssuedAt = time.Unix(int64(iat), 0).UTC()
	}
	if exp, ok := mc["exp"].(float64); ok {
		c.ExpiresAt = time.Unix(int64(exp), 0).UTC()
	}
	return c, nil
}

// HashToken returns the SHA-256 hash of a refresh token as a hex string.
// Sessions store only this digest, so a leaked sessions table cannot be
// replayed as live refresh tokens.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// NewSecret returns a hex-encoded 32-byte random signing secret.  Used at
// startup when JWT_SECRET is not configured; every restart then invalidates
// all outstanding tokens, which is an operational property, not a bug.
func NewSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
