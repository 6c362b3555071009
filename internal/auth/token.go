package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"surveyapi/internal/config"
)

// TokenType separates the purposes a signed token may serve.
type TokenType string

const (
	TokenAccess        TokenType = "access"
	TokenRefresh       TokenType = "refresh"
	TokenActivation    TokenType = "activation"
	TokenPasswordReset TokenType = "password_reset"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// Claims are the JWT claims of every token issued by the API. Subject holds the user id.
type Claims struct {
	Type TokenType `json:"typ"`
	// Fingerprint binds password reset tokens to the password hash they were issued for.
	Fingerprint string `json:"fp,omitempty"`
	jwt.RegisteredClaims
}

// TokenManager signs and validates HS256 tokens.
type TokenManager struct {
	signingKey []byte
	issuer     string
	ttl        map[TokenType]time.Duration
	now        func() time.Time
}

func NewTokenManager(cfg config.AuthConfig) *TokenManager {
	return &TokenManager{
		signingKey: []byte(cfg.JWTSecret),
		issuer:     cfg.Issuer,
		ttl: map[TokenType]time.Duration{
			TokenAccess:        cfg.AccessTokenTTL,
			TokenRefresh:       cfg.RefreshTokenTTL,
			TokenActivation:    cfg.ActivationTokenTTL,
			TokenPasswordReset: cfg.ResetTokenTTL,
		},
		now: time.Now,
	}
}

// TTL returns the lifetime of tokens of the given type.
func (m *TokenManager) TTL(typ TokenType) time.Duration {
	return m.ttl[typ]
}

// Issue signs a token of type typ for userID. fingerprint is only meaningful for reset tokens.
func (m *TokenManager) Issue(userID string, typ TokenType, fingerprint string) (string, *Claims, error) {
	ttl, ok := m.ttl[typ]
	if !ok {
		return "", nil, fmt.Errorf("unknown token type %q", typ)
	}
	now := m.now()
	claims := &Claims{
		Type:        typ,
		Fingerprint: fingerprint,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.signingKey)
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

// Parse validates signature, issuer, expiry and type of tokenString.
func (m *TokenManager) Parse(tokenString string, typ TokenType) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return m.signingKey, nil
	},
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Type != typ || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Remaining is how long the token stays valid, floored at zero.
func (m *TokenManager) Remaining(c *Claims) time.Duration {
	if c == nil || c.ExpiresAt == nil {
		return 0
	}
	d := c.ExpiresAt.Sub(m.now())
	if d < 0 {
		return 0
	}
	return d
}

// PasswordFingerprint derives a short digest of a password hash.
func PasswordFingerprint(passwordHash string) string {
	sum := sha256.Sum256([]byte(passwordHash))
	return hex.EncodeToString(sum[:8])
}
