package jwt

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const (
	TokenTypeAccess = "access"
	TokenTypeSSE    = "sse"

	sseTokenTTL = 5 * time.Minute
)

var ErrInvalidClaims = errors.New("invalid token claims")

// Claims identify the caller. They carry no role; the role is resolved
// from the employee record on every request.
type Claims struct {
	UserID     int64
	EmployeeID int64
	Type       string
}

type Service interface {
	GenerateAccessToken(userID, employeeID int64) (token string, expiresAt int64, err error)
	GenerateSSEToken(userID, employeeID int64) (token string, expiresIn int, err error)
	ValidateSSEToken(tokenString string) (Claims, error)
	// ParseClaims reads the claims jwtauth placed on the request context.
	ParseClaims(claims map[string]any, wantType string) (Claims, error)
	JWTAuth() *jwtauth.JWTAuth
	RevokeToken(token string, expiresAt time.Time)
	IsTokenRevoked(token string) bool
}

type JWTService struct {
	accessTokenExpiration time.Duration
	tokenAuth             *jwtauth.JWTAuth
	revokedTokens         map[string]time.Time
	mu                    sync.RWMutex
	now                   func() time.Time
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

func NewJWTService(secretKey string, accessTokenExpiration time.Duration) *JWTService {
	return &JWTService{
		accessTokenExpiration: accessTokenExpiration,
		tokenAuth:             jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
		revokedTokens:         make(map[string]time.Time),
		now:                   time.Now,
	}
}

func (j *JWTService) GenerateAccessToken(userID, employeeID int64) (token string, expiresAt int64, err error) {
	expiresAt = j.now().Add(j.accessTokenExpiration).Unix()
	_, tokenString, err := j.tokenAuth.Encode(map[string]any{
		"user_id":     userID,
		"employee_id": employeeID,
		"type":        TokenTypeAccess,
		"exp":         expiresAt,
	})
	return tokenString, expiresAt, err
}

// GenerateSSEToken issues a short-lived token that EventSource clients pass
// as a query parameter.
func (j *JWTService) GenerateSSEToken(userID, employeeID int64) (token string, expiresIn int, err error) {
	expiresAt := j.now().Add(sseTokenTTL).Unix()
	_, tokenString, err := j.tokenAuth.Encode(map[string]any{
		"user_id":     userID,
		"employee_id": employeeID,
		"type":        TokenTypeSSE,
		"exp":         expiresAt,
	})
	if err != nil {
		return "", 0, err
	}
	return tokenString, int(sseTokenTTL.Seconds()), nil
}

func (j *JWTService) ValidateSSEToken(tokenString string) (Claims, error) {
	token, err := jwtauth.VerifyToken(j.tokenAuth, tokenString)
	if err != nil {
		return Claims{}, err
	}
	claims, err := token.AsMap(context.Background())
	if err != nil {
		return Claims{}, err
	}
	return j.ParseClaims(claims, TokenTypeSSE)
}

func (j *JWTService) ParseClaims(claims map[string]any, wantType string) (Claims, error) {
	tokenType, _ := claims["type"].(string)
	if tokenType != wantType {
		return Claims{}, ErrInvalidClaims
	}
	userID, ok := int64Claim(claims["user_id"])
	if !ok || userID <= 0 {
		return Claims{}, ErrInvalidClaims
	}
	employeeID, ok := int64Claim(claims["employee_id"])
	if !ok || employeeID <= 0 {
		return Claims{}, ErrInvalidClaims
	}
	return Claims{UserID: userID, EmployeeID: employeeID, Type: tokenType}, nil
}

// RevokeToken denies token until it would have expired anyway.
func (j *JWTService) RevokeToken(token string, expiresAt time.Time) {
	j.mu.Lock()
	defer j.mu.Unlock()

	now := j.now()
	for t, exp := range j.revokedTokens {
		if exp.Before(now) {
			delete(j.revokedTokens, t)
		}
	}
	j.revokedTokens[token] = expiresAt
}

func (j *JWTService) IsTokenRevoked(token string) bool {
	j.mu.RLock()
	defer j.mu.RUnlock()
	_, revoked := j.revokedTokens[token]
	return revoked
}

// int64Claim accepts the numeric shapes a decoded JSON claim may take.
func int64Claim(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), n == float64(int64(n))
	case int64:
		return n, true
	case int:
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	}
	return 0, false
}
