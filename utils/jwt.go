package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	issuer = "hostel-pg"

	PurposeSession = "session"
	PurposeReset   = "reset"

	ResetTokenTTL = 30 * time.Minute
)

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	UID     string `json:"uid"`
	Email   string `json:"email"`
	Role    string `json:"role"`
	Purpose string `json:"purpose"`
	// Stamp binds a reset token to the password it was issued against.
	Stamp string `json:"stamp,omitempty"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 tokens for sessions and password
// resets.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) (*TokenIssuer, error) {
	if secret == "" {
		return nil, fmt.Errorf("JWT secret not set")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

func (ti *TokenIssuer) Generate(uid, email, role string) (string, error) {
	return ti.sign(Claims{UID: uid, Email: email, Role: role, Purpose: PurposeSession}, ti.ttl)
}

// GenerateReset issues a reset token carrying stamp, normally
// PasswordStamp of the current hash, so the token dies once the password
// changes.
func (ti *TokenIssuer) GenerateReset(uid, email, stamp string) (string, error) {
	return ti.sign(Claims{UID: uid, Email: email, Purpose: PurposeReset, Stamp: stamp}, ResetTokenTTL)
}

func (ti *TokenIssuer) sign(claims Claims, ttl time.Duration) (string, error) {
	now := ti.now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   claims.UID,
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		Issuer:    issuer,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ti.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Validate parses a session token.
func (ti *TokenIssuer) Validate(tokenString string) (*Claims, error) {
	return ti.parse(tokenString, PurposeSession)
}

func (ti *TokenIssuer) ValidateReset(tokenString string) (*Claims, error) {
	return ti.parse(tokenString, PurposeReset)
}

func (ti *TokenIssuer) parse(tokenString, purpose string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return ti.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(ti.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.UID == "" {
		return nil, ErrInvalidToken
	}
	if claims.Purpose != purpose {
		return nil, fmt.Errorf("%w: wrong token purpose", ErrInvalidToken)
	}
	return claims, nil
}
