// Package token mints and validates the bearer tokens returned by login.
package token

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"fundops/internal/identity/models"
	id "fundops/pkg/domain"
	dErrors "fundops/pkg/domain-errors"
	authmw "fundops/pkg/platform/middleware/auth"
)

const audiencePrefix = "fundops/"

// Claims are the access token claims.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// APIVersion reads the version encoded in the audience ("fundops/v1").
func (c *Claims) APIVersion() id.APIVersion {
	for _, aud := range c.Audience {
		if v, ok := strings.CutPrefix(aud, audiencePrefix); ok {
			if parsed, err := id.ParseAPIVersion(v); err == nil {
				return parsed
			}
		}
	}
	return id.DefaultVersion()
}

// Service handles JWT creation and validation.
type Service struct {
	signingKey []byte
	issuer     string
	ttl        time.Duration
	version    id.APIVersion
}

func New(signingKey, issuer string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Service{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		ttl:        ttl,
		version:    id.DefaultVersion(),
	}
}

// Issue signs a token for an authenticated identity.
func (s *Service) Issue(match models.Match, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(s.ttl)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: string(match.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   match.ID.String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			Audience:  []string{audiencePrefix + s.version.String()},
			ID:        uuid.NewString(),
		},
	})

	signed, err := tok.SignedString(s.signingKey)
	if err != nil {
		return "", time.Time{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign token")
	}
	return signed, expiresAt, nil
}

// Parse verifies signature, issuer and expiry.
func (s *Service) Parse(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	if !models.Role(claims.Role).IsValid() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token role")
	}
	return claims, nil
}

// ValidateToken implements auth.TokenValidator.
func (s *Service) ValidateToken(tokenString string) (*authmw.Claims, error) {
	claims, err := s.Parse(tokenString)
	if err != nil {
		return nil, err
	}
	return &authmw.Claims{
		IdentityID: claims.Subject,
		Role:       claims.Role,
		APIVersion: claims.APIVersion().String(),
	}, nil
}
