package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pickem-go/database"
	"pickem-go/logging"
	"pickem-go/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/itbasis/go-clock"
)

const tokenIssuer = "pickem-go"

// AuthService handles authentication operations
type AuthService struct {
	users       UserRepository
	jwtSecret   []byte
	tokenExpiry time.Duration
	admins      map[string]bool
	clock       clock.Clock
	logger      *logging.Logger
}

// JWTClaims represents the claims in our JWT token
type JWTClaims struct {
	UserID   int    `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// NewAuthService creates a new authentication service. Usernames listed in
// adminUsernames are made admins when they sign up.
func NewAuthService(users UserRepository, jwtSecret string, tokenExpiry time.Duration, adminUsernames []string, clk clock.Clock) *AuthService {
	if tokenExpiry <= 0 {
		tokenExpiry = 24 * 30 * time.Hour
	}
	admins := make(map[string]bool, len(adminUsernames))
	for _, name := range adminUsernames {
		if name = strings.TrimSpace(name); name != "" {
			admins[name] = true
		}
	}
	return &AuthService{
		users:       users,
		jwtSecret:   []byte(jwtSecret),
		tokenExpiry: tokenExpiry,
		admins:      admins,
		clock:       clk,
		logger:      logging.WithPrefix("Auth"),
	}
}

// Signup creates the user and returns a token for them
func (a *AuthService) Signup(ctx context.Context, req models.SignupRequest) (*models.AuthResponse, error) {
	existing, err := a.users.GetUserByUsername(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUsernameTaken
	}

	user := &models.User{
		Username: req.Username,
		ImageURL: req.ImageURL,
		IsAdmin:  a.admins[req.Username],
	}
	if err := user.HashPassword(req.Password); err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	if err := a.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}
	a.logger.Infof("New user %q (admin=%t)", user.Username, user.IsAdmin)

	return a.respond(user)
}

// Login authenticates a user and returns a JWT token
func (a *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	user, err := a.users.GetUserByUsername(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.CheckPassword(req.Password) {
		return nil, ErrInvalidCredentials
	}
	return a.respond(user)
}

func (a *AuthService) respond(user *models.User) (*models.AuthResponse, error) {
	token, err := a.GenerateToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &models.AuthResponse{User: user.ToSafeUser(), Token: token}, nil
}

// GenerateToken creates a new JWT token for the user
func (a *AuthService) GenerateToken(user *models.User) (string, error) {
	now := a.clock.Now()
	claims := JWTClaims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(a.tokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.jwtSecret)
}

// ValidateToken validates a JWT token and returns the claims
func (a *AuthService) ValidateToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid token signing method")
		}
		return a.jwtSecret, nil
	},
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(a.clock.Now),
	)
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

// GetUserFromToken validates token and returns the user
func (a *AuthService) GetUserFromToken(ctx context.Context, tokenString string) (*models.User, error) {
	claims, err := a.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	user, err := a.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("user %d: %w", claims.UserID, ErrNotFound)
	}
	return user, nil
}

// DeleteAccount removes the user together with their picks
func (a *AuthService) DeleteAccount(ctx context.Context, userID int) error {
	user, err := a.users.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}
	if err := a.users.DeleteUser(ctx, userID); err != nil {
		return err
	}
	a.logger.Infof("Deleted user %q", user.Username)
	return nil
}
