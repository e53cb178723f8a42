package token

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"go-auth-service/internal/model"
)

const minSecretBytes = 32

// DefaultTTL is the validity window applied when none is configured.
const DefaultTTL = 12 * time.Hour

// Codec issues and verifies HMAC-SHA256 signed JWTs. It holds only the
// immutable signing secret and validity window, so a single instance is safe
// for unsynchronized concurrent use.
type Codec struct {
	secret []byte
	ttl    time.Duration
}

// Claims is the decoded content of a verified token. ExpiresAt is surfaced
// as data rather than enforced here: Decode trusts the signature only, and
// freshness is a separate boolean check (IsValid).
type Claims struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Extra     map[string]any
}

// NewCodec decodes the base64 signing secret and validates it is long enough
// to key HMAC-SHA256. An empty or short secret is a startup error, never a
// silent fallback.
func NewCodec(encodedSecret string, ttl time.Duration) (*Codec, error) {
	encodedSecret = strings.TrimSpace(encodedSecret)
	if encodedSecret == "" {
		return nil, fmt.Errorf("signing secret is required")
	}

	secret, err := base64.StdEncoding.DecodeString(encodedSecret)
	if err != nil {
		return nil, fmt.Errorf("signing secret is not valid base64: %w", err)
	}

	if len(secret) < minSecretBytes {
		return nil, fmt.Errorf("signing secret must decode to at least %d bytes, got %d", minSecretBytes, len(secret))
	}

	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &Codec{secret: secret, ttl: ttl}, nil
}

// TTL reports the configured validity window.
func (c *Codec) TTL() time.Duration {
	return c.ttl
}

// Issue signs a token for subject with issued-at now and expiry now+TTL.
// Extra claims ride alongside the registered ones; reserved claim names are
// always overwritten by the codec's own values.
func (c *Codec) Issue(subject string, extraClaims map[string]any, now time.Time) (string, error) {
	if strings.TrimSpace(subject) == "" {
		return "", fmt.Errorf("token subject is required")
	}

	claims := jwt.MapClaims{}
	for k, v := range extraClaims {
		claims[k] = v
	}
	claims["sub"] = subject
	claims["iat"] = now.Unix()
	claims["exp"] = now.Add(c.ttl).Unix()

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// Decode parses the token and verifies its signature before any claim is
// read. It fails with model.ErrInvalidToken on malformed input, a signature
// mismatch, a non-HMAC signing method, or missing required claims. An
// expired but well-signed token decodes successfully; expiry is IsValid's
// concern.
func (c *Codec) Decode(tokenString string) (Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	parsed, err := parser.Parse(tokenString, func(*jwt.Token) (any, error) {
		return c.secret, nil
	})
	if err != nil || !parsed.Valid {
		return Claims{}, model.ErrInvalidToken
	}

	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, model.ErrInvalidToken
	}

	subject, err := mapClaims.GetSubject()
	if err != nil || subject == "" {
		return Claims{}, model.ErrInvalidToken
	}

	expiry, err := mapClaims.GetExpirationTime()
	if err != nil || expiry == nil {
		return Claims{}, model.ErrInvalidToken
	}

	claims := Claims{Subject: subject, ExpiresAt: expiry.Time}

	if issuedAt, err := mapClaims.GetIssuedAt(); err == nil && issuedAt != nil {
		claims.IssuedAt = issuedAt.Time
	}

	for k, v := range mapClaims {
		switch k {
		case "sub", "iat", "exp":
			continue
		}
		if claims.Extra == nil {
			claims.Extra = map[string]any{}
		}
		claims.Extra[k] = v
	}

	return claims, nil
}

// ExtractSubject is a convenience accessor over Decode.
func (c *Codec) ExtractSubject(tokenString string) (string, error) {
	claims, err := c.Decode(tokenString)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// IsValid reports whether the token verifies, names expectedSubject, and is
// unexpired. Expiry is a boolean outcome here, never an error.
func (c *Codec) IsValid(tokenString string, expectedSubject string) bool {
	claims, err := c.Decode(tokenString)
	if err != nil {
		return false
	}

	return claims.Subject == expectedSubject && time.Now().Before(claims.ExpiresAt)
}
