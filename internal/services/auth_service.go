package services

import (
	"errors"
	"fmt"
	"time"

	"courier/internal/models"
	"courier/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AuthService handles registration, login and principal resolution.
type AuthService struct {
	userRepo   repositories.UserRepository
	roleRepo   repositories.RoleRepository
	jwtSecret  []byte
	tokenDurat time.Duration
	log        *zap.Logger
}

// NewAuthService creates a new AuthService. A non-positive ttl falls back to
// 24 hours.
func NewAuthService(userRepo repositories.UserRepository, roleRepo repositories.RoleRepository, jwtSecret string, ttl time.Duration, log *zap.Logger) *AuthService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &AuthService{
		userRepo:   userRepo,
		roleRepo:   roleRepo,
		jwtSecret:  []byte(jwtSecret),
		tokenDurat: ttl,
		log:        log,
	}
}

// RegisterUser hashes the password and saves the user with the USER role.
func (s *AuthService) RegisterUser(user *models.User) error {
	return s.register(user, models.RoleUser)
}

// EnsureBootstrapUser creates a GOD account with the given credentials when
// no user by that name exists yet.
func (s *AuthService) EnsureBootstrapUser(username, email, password string) error {
	if _, err := s.userRepo.GetByUsername(username); err == nil {
		return nil
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("%w: %v", ErrStoreFailure, err)
	}
	user := &models.User{Name: username, Username: username, Email: email, Password: password}
	if err := s.register(user, models.RoleUser, models.RoleGod); err != nil {
		return err
	}
	s.log.Info("bootstrap user created", zap.String("username", username))
	return nil
}

func (s *AuthService) register(user *models.User, roles ...models.RoleName) error {
	if existing, err := s.userRepo.GetByUsername(user.Username); err == nil && existing != nil {
		return fmt.Errorf("%w: username '%s' already taken", ErrConflict, user.Username)
	}
	if existing, err := s.userRepo.GetByEmail(user.Email); err == nil && existing != nil {
		return fmt.Errorf("%w: email '%s' already registered", ErrConflict, user.Email)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.Password = string(hashedPassword)

	user.Roles = user.Roles[:0]
	for _, name := range roles {
		role, err := s.roleRepo.GetByName(name)
		if err != nil {
			return fmt.Errorf("%w: role %s: %v", ErrStoreFailure, name, err)
		}
		user.Roles = append(user.Roles, *role)
	}

	if err := s.userRepo.Create(user); err != nil {
		return fmt.Errorf("%w: failed to register user: %v", ErrStoreFailure, err)
	}
	return nil
}

// LoginUser authenticates a user and returns a signed JWT.
func (s *AuthService) LoginUser(username, password string) (string, error) {
	user, err := s.userRepo.GetByUsername(username)
	if err != nil {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"jti":      uuid.NewString(),
		"exp":      now.Add(s.tokenDurat).Unix(),
		"iat":      now.Unix(),
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken parses and validates a JWT token, returning the claims if valid.
func (s *AuthService) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		s.log.Debug("token validation failed", zap.Error(err))
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid token")
}

// Authenticate validates the token and loads the user it names, so the
// principal reflects the user's current roles.
func (s *AuthService) Authenticate(tokenString string) (*Principal, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	// JSON numbers decode as float64.
	rawID, ok := claims["user_id"].(float64)
	if !ok || rawID <= 0 {
		return nil, fmt.Errorf("invalid token: missing user_id claim")
	}
	user, err := s.userRepo.GetByID(int64(rawID))
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	return NewPrincipal(user), nil
}
