package tokengenerator

import (
	"errors"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	idmerrors "github.com/tendant/account-idm/pkg/errors"
)

// TokenGenerator interface defines methods for token operations
type TokenGenerator interface {
	// GenerateToken signs a token for subject that expires after expiry
	GenerateToken(subject, kind string, expiry time.Duration) (string, time.Time, error)

	// ParseToken validates a token and returns its claims
	ParseToken(tokenStr string) (*Claims, error)
}

// Claims struct for JWT claims. Subject holds the account id.
type Claims struct {
	Kind string `json:"kind,omitempty"`
	jwt.RegisteredClaims
}

// JwtTokenGenerator signs and verifies HS256 tokens with a shared secret
type JwtTokenGenerator struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// GeneratorOption configures a JwtTokenGenerator
type GeneratorOption func(*JwtTokenGenerator)

// WithClock replaces time.Now, for tests that simulate elapsed time
func WithClock(now func() time.Time) GeneratorOption {
	return func(g *JwtTokenGenerator) {
		g.now = now
	}
}

// NewJwtTokenGenerator creates a new JwtTokenGenerator
func NewJwtTokenGenerator(secret, issuer string, opts ...GeneratorOption) *JwtTokenGenerator {
	g := &JwtTokenGenerator{
		secret: []byte(secret),
		issuer: issuer,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// GenerateToken creates a new token with the given subject
func (g *JwtTokenGenerator) GenerateToken(subject, kind string, expiry time.Duration) (string, time.Time, error) {
	now := g.now().UTC()
	claims := Claims{
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    g.issuer,
			Subject:   subject,
			ID:        uuid.New().String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString(g.secret)
	if err != nil {
		slog.Error("Failed sign JWT Claim string!", "err", err)
		return "", time.Time{}, err
	}
	return ss, claims.ExpiresAt.Time, nil
}

// ParseToken parses and validates a token string. Any failure is an
// authentication error; expiry is reported separately from other causes.
func (g *JwtTokenGenerator) ParseToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims,
		func(token *jwt.Token) (interface{}, error) {
			return g.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(g.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(g.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, idmerrors.New(idmerrors.ErrCodeTokenExpired, "Token expired")
		}
		slog.Debug("Failed parse JWT string", "err", err)
		return nil, idmerrors.Wrap(err, idmerrors.ErrCodeTokenInvalid, "Invalid token")
	}
	if !token.Valid || claims.Subject == "" {
		return nil, idmerrors.New(idmerrors.ErrCodeTokenInvalid, "Invalid token")
	}
	return claims, nil
}
