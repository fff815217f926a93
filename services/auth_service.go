package services

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/showmanfest/luckydraw/utils"
)

const tokenTTL = 24 * time.Hour

type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthService interface {
	// Login checks the operator credentials and issues a signed session
	// token for the admin panel.
	Login(ctx context.Context, input LoginInput) (string, error)
}

type authService struct {
	adminUsername     string
	adminPasswordHash string
	jwtSecret         []byte
}

func NewAuthService(adminUsername, adminPasswordHash string, jwtSecret []byte) AuthService {
	return &authService{
		adminUsername:     adminUsername,
		adminPasswordHash: adminPasswordHash,
		jwtSecret:         jwtSecret,
	}
}

func (s *authService) Login(_ context.Context, input LoginInput) (string, error) {
	if input.Username != s.adminUsername || !utils.CheckPasswordHash(input.Password, s.adminPasswordHash) {
		return "", ErrInvalidCredentials
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  input.Username,
		"role": "admin",
		"iat":  now.Unix(),
		"exp":  now.Add(tokenTTL).Unix(),
	})

	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", err
	}
	return signed, nil
}
