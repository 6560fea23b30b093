package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/promoraffle/promoraffle/internal/model"
)

// Issuer is the iss claim on every back-office token.
const Issuer = "promoraffle"

// DefaultTTL is the token lifetime of a back-office session.
const DefaultTTL = 12 * time.Hour

// Claims identifies a back-office user.
type Claims struct {
	UserID   int64  `json:"uid"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Tokens signs and verifies HS256 session tokens.
type Tokens struct {
	Secret []byte
	TTL    time.Duration
	Now    func() time.Time
}

// NewTokens returns a Tokens with the default lifetime.
func NewTokens(secret string) *Tokens {
	return &Tokens{Secret: []byte(secret), TTL: DefaultTTL, Now: time.Now}
}

// Issue signs a token for u. Each token carries a random ID so it can be revoked.
func (t *Tokens) Issue(u *model.User) (string, *Claims, error) {
	now := t.Now()
	claims := &Claims{
		UserID:   u.ID,
		Username: u.Username,
		Role:     u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    Issuer,
			Subject:   u.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.TTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.Secret)
	if err != nil {
		return "", nil, fmt.Errorf("signing token: %w", err)
	}
	return signed, claims, nil
}

// Parse verifies a token and returns its claims.
func (t *Tokens) Parse(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (any, error) {
		return t.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithTimeFunc(t.Now),
	)
	if err != nil {
		return nil, fmt.Errorf("parsing token: %w", err)
	}
	if !model.ValidRole(claims.Role) {
		return nil, errors.New("token carries unknown role")
	}
	return claims, nil
}

// HashPassword bcrypt-hashes a password that already passed the policy.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
