package jwttoken

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"passport/pkg/domain"
	dErrors "passport/pkg/domain-errors"
)

// Claims are the bearer token claims. The registered subject is the caller's
// address.
type Claims struct {
	jwt.RegisteredClaims
}

// JWTService handles JWT creation and validation
type JWTService struct {
	signingKey []byte
	issuer     string
	now        func() time.Time
}

func NewJWTService(signingKey string, issuer string) *JWTService {
	return &JWTService{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		now:        time.Now,
	}
}

// GenerateToken mints a token whose subject is addr.
func (s *JWTService) GenerateToken(addr domain.Address, expiresIn time.Duration) (string, error) {
	now := s.now()
	newToken := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   addr.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
		},
	})

	signedToken, err := newToken.SignedString(s.signingKey)
	if err != nil {
		return "", err
	}
	return signedToken, nil
}

func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithTimeFunc(s.now))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthenticated, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthenticated, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthenticated, "invalid token claims")
	}
	return claims, nil
}

// Principal validates the token and returns its subject address. This is the
// shape the auth middleware consumes.
func (s *JWTService) Principal(tokenString string) (domain.Address, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return domain.Address{}, err
	}
	addr, err := domain.ParseAddress(claims.Subject)
	if err != nil {
		return domain.Address{}, dErrors.New(dErrors.CodeUnauthenticated, "token subject is not an address")
	}
	return addr, nil
}
