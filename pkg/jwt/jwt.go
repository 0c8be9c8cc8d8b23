package jwt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingSubject = errors.New("token has no subject")
	ErrCannotIssue    = errors.New("service verifies tokens only")
)

// asymmetricMethods are the algorithms accepted from an identity provider key set.
var asymmetricMethods = []string{"RS256", "RS384", "RS512", "ES256", "ES384", "PS256", "EdDSA"}

type Claims struct {
	UserID string `json:"user_id,omitempty"`
	Role   string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Subject is the user id carried by the token. Identity providers put it in
// "sub"; self-issued tokens carry user_id as well.
func (c *Claims) SubjectID() string {
	if c.UserID != "" {
		return c.UserID
	}
	return c.Subject
}

// Service verifies bearer tokens. Built from a shared secret it can also issue them.
type Service struct {
	secretKey []byte
	keyfunc   jwt.Keyfunc
	methods   []string
}

func NewService(secretKey string) *Service {
	s := &Service{
		secretKey: []byte(secretKey),
		methods:   []string{jwt.SigningMethodHS256.Alg()},
	}
	s.keyfunc = func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secretKey, nil
	}
	return s
}

// NewJWKSService verifies against a remote key set that is refreshed in the
// background until ctx is done.
func NewJWKSService(ctx context.Context, jwksURL string) (*Service, error) {
	k, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("failed to load JWKS from %s: %w", jwksURL, err)
	}
	return &Service{keyfunc: k.Keyfunc, methods: asymmetricMethods}, nil
}

// NewKeySetService verifies against a static JWK Set document.
func NewKeySetService(raw json.RawMessage) (*Service, error) {
	k, err := keyfunc.NewJWKSetJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse JWK Set: %w", err)
	}
	return &Service{keyfunc: k.Keyfunc, methods: asymmetricMethods}, nil
}

func (s *Service) GenerateToken(userID, role string) (string, error) {
	if len(s.secretKey) == 0 {
		return "", ErrCannotIssue
	}

	now := time.Now()
	claims := &Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secretKey)
}

func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, s.keyfunc, jwt.WithValidMethods(s.methods))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.SubjectID() == "" {
		return nil, ErrMissingSubject
	}
	return claims, nil
}
