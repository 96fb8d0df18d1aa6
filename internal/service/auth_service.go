package service

import (
	"context"
	"crypto/subtle"
	"errors"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"bridgebot/backend/internal/model"
	"bridgebot/backend/internal/util"
	"bridgebot/backend/pkg/crypto"
	"bridgebot/backend/pkg/jwt"
)

// AuthService authenticates the operator account configured in the environment
type AuthService struct {
	jwtManager   *jwt.JWTManager
	username     string
	passwordHash string
}

func NewAuthService(jwtManager *jwt.JWTManager, username, passwordHash string) *AuthService {
	return &AuthService{
		jwtManager:   jwtManager,
		username:     username,
		passwordHash: passwordHash,
	}
}

// Login checks the operator credentials and issues an access token
func (s *AuthService) Login(ctx context.Context, req *model.LoginRequest) (*model.AuthResponse, error) {
	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(s.username)) == 1
	passOK := crypto.CheckPassword(req.Password, s.passwordHash)
	if !userOK || !passOK {
		return nil, util.NewAppError(401, util.ErrCodeInvalidCredentials, "Invalid username or password")
	}

	token, err := s.jwtManager.GenerateAccessToken(s.username)
	if err != nil {
		return nil, util.ErrInternalServer("Failed to generate access token")
	}

	return &model.AuthResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.jwtManager.AccessTokenDuration().Seconds()),
	}, nil
}

// ValidateToken validates an access token and returns its claims
func (s *AuthService) ValidateToken(ctx context.Context, token string) (*jwt.Claims, error) {
	claims, err := s.jwtManager.ValidateToken(token)
	if err != nil {
		if errors.Is(err, jwtlib.ErrTokenExpired) {
			return nil, util.NewAppError(401, util.ErrCodeTokenExpired, "Token has expired")
		}
		return nil, util.NewAppError(401, util.ErrCodeTokenInvalid, "Invalid token")
	}

	if claims.Username != s.username {
		return nil, util.NewAppError(401, util.ErrCodeTokenInvalid, "Invalid token")
	}
	return claims, nil
}

// Authenticate validates a token and returns the operator it was issued to
func (s *AuthService) Authenticate(ctx context.Context, token string) (string, error) {
	claims, err := s.ValidateToken(ctx, token)
	if err != nil {
		return "", err
	}
	return claims.Username, nil
}
