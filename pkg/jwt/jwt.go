package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenTypeAccess = "access"
	clockSkew       = 30 * time.Second
)

var ErrInvalidToken = errors.New("invalid access token")

// Claims là payload do auth service phát hành; service này chỉ verify.
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	Type   string `json:"type"`
	jwt.RegisteredClaims
}

// Subject là người gọi đã xác thực, user id đã parse sẵn.
type Subject struct {
	UserID uuid.UUID
	Role   string
}

// Verifier kiểm tra access token HS256 có hạn dùng.
type Verifier struct {
	secret []byte
	parser *jwt.Parser
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{
		secret: []byte(secret),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
			jwt.WithLeeway(clockSkew),
		),
	}
}

func (v *Verifier) Verify(raw string) (*Subject, error) {
	claims := &Claims{}
	if _, err := v.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	// refresh token không dùng để gọi API
	if claims.Type != tokenTypeAccess {
		return nil, fmt.Errorf("%w: token type %q", ErrInvalidToken, claims.Type)
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: user id %q", ErrInvalidToken, claims.UserID)
	}
	return &Subject{UserID: userID, Role: claims.Role}, nil
}

// Sign phát access token, dùng cho test và tool nội bộ.
func (v *Verifier) Sign(userID uuid.UUID, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: userID.String(),
		Role:   role,
		Type:   tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	})
	return token.SignedString(v.secret)
}
