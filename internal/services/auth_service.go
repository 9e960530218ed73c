package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"shopfusion/internal/models"
	"shopfusion/internal/notify"
	"shopfusion/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Token types carried in the "typ" claim. A token of one type is never
// accepted where another is expected.
const (
	tokenSession = "session"
	tokenVerify  = "verify"
	tokenReset   = "reset"
)

const minPasswordLength = 8

// AuthConfig configures AuthService.
type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration // lifetime of session tokens
	LinkTTL   time.Duration // lifetime of activation and reset links
	BaseURL   string        // public URL the emailed links point to
}

// RegisterInput is the registration form.
type RegisterInput struct {
	FirstName       string `json:"first_name" validate:"required,max=50"`
	LastName        string `json:"last_name" validate:"required,max=50"`
	PhoneNumber     string `json:"phone_number" validate:"required,max=50"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

// ProfileInput holds the fields a user may change on their profile.
type ProfileInput struct {
	FirstName   string `json:"first_name" validate:"required,max=50"`
	LastName    string `json:"last_name" validate:"required,max=50"`
	PhoneNumber string `json:"phone_number" validate:"omitempty,max=50"`
}

// AuthService handles business logic for accounts and authentication.
type AuthService struct {
	userRepo   repositories.UserRepository
	notifier   notify.Notifier
	jwtSecret  []byte
	tokenDurat time.Duration // Duration for which a session JWT is valid
	linkDurat  time.Duration
	baseURL    string
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, notifier notify.Notifier, cfg AuthConfig) *AuthService {
	s := &AuthService{
		userRepo:   userRepo,
		notifier:   notifier,
		jwtSecret:  []byte(cfg.JWTSecret),
		tokenDurat: cfg.TokenTTL,
		linkDurat:  cfg.LinkTTL,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
	}
	if s.tokenDurat <= 0 {
		s.tokenDurat = 24 * time.Hour
	}
	if s.linkDurat <= 0 {
		s.linkDurat = 24 * time.Hour
	}
	return s
}

func checkPassword(password, confirm string) error {
	if password != confirm {
		return validationError("passwords do not match")
	}
	if len(password) < minPasswordLength {
		return validationError("password must be at least %d characters", minPasswordLength)
	}
	return nil
}

// Register creates an inactive account and emails its activation link. The
// username is the local part of the email address.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if err := checkPassword(in.Password, in.ConfirmPassword); err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if existing, err := s.userRepo.GetByEmail(email); err == nil && existing != nil {
		return nil, fmt.Errorf("email '%s' %w", email, ErrConflict)
	} else if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}

	username := strings.SplitN(email, "@", 2)[0]
	if existing, err := s.userRepo.GetByUsername(username); err == nil && existing != nil {
		username = username + "-" + uuid.New().String()[:8]
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:    username,
		Email:       email,
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		PhoneNumber: in.PhoneNumber,
		Password:    string(hashedPassword),
		IsActive:    false,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	token, err := s.sign(jwt.MapClaims{"sub": user.ID, "typ": tokenVerify}, s.linkDurat)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, notify.Message{
		Recipient: user.Email,
		Template:  notify.TemplateAccountVerification,
		Data: map[string]interface{}{
			"name":           user.FullName(),
			"activation_url": s.baseURL + "/api/v1/auth/activate/" + token,
		},
	})
	return user, nil
}

// Activate turns on the account named by an activation token.
func (s *AuthService) Activate(ctx context.Context, tokenString string) (*models.User, error) {
	user, _, err := s.userFromToken(tokenString, tokenVerify)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		if err := s.userRepo.Activate(user.ID); err != nil {
			return nil, err
		}
		user.IsActive = true
	}
	return user, nil
}

// Login authenticates a user by email and password and returns a session token.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	user, err := s.userRepo.GetByEmail(strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		// Unknown emails and wrong passwords look the same to the caller.
		return "", nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return "", nil, ErrAccountInactive
	}

	tokenString, err := s.sign(jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"typ":      tokenSession,
	}, s.tokenDurat)
	if err != nil {
		return "", nil, err
	}

	if err := s.userRepo.TouchLogin(user.ID); err != nil {
		log.Printf("Failed to record login of user %s: %v", user.ID, err)
	}
	return tokenString, user, nil
}

// ValidateToken parses and validates a session token, returning the claims if valid.
func (s *AuthService) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	return s.parse(tokenString, tokenSession)
}

// ForgotPassword emails a password reset link. The link stops working once
// the password changes.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.userRepo.GetByEmail(strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return notFound(err, "failed to find account %s", email)
	}

	token, err := s.sign(jwt.MapClaims{
		"sub": user.ID,
		"typ": tokenReset,
		"pwd": passwordFingerprint(user.Password),
	}, s.linkDurat)
	if err != nil {
		return err
	}
	s.notify(ctx, notify.Message{
		Recipient: user.Email,
		Template:  notify.TemplatePasswordReset,
		Data: map[string]interface{}{
			"name":      user.FullName(),
			"reset_url": s.baseURL + "/api/v1/auth/reset/" + token,
		},
	})
	return nil
}

// ValidateResetToken returns the user a reset token was issued to.
func (s *AuthService) ValidateResetToken(ctx context.Context, tokenString string) (*models.User, error) {
	user, claims, err := s.userFromToken(tokenString, tokenReset)
	if err != nil {
		return nil, err
	}
	if fp, _ := claims["pwd"].(string); fp != passwordFingerprint(user.Password) {
		return nil, ErrInvalidToken
	}
	return user, nil
}

// ResetPassword sets a new password using a reset token.
func (s *AuthService) ResetPassword(ctx context.Context, tokenString, password, confirm string) error {
	if err := checkPassword(password, confirm); err != nil {
		return err
	}
	user, err := s.ValidateResetToken(ctx, tokenString)
	if err != nil {
		return err
	}
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return s.userRepo.UpdatePassword(user.ID, string(hashedPassword))
}

// Profile returns the account of a user.
func (s *AuthService) Profile(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, notFound(err, "failed to get profile")
	}
	return user, nil
}

// UpdateProfile changes the name and phone number of a user.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, in ProfileInput) (*models.User, error) {
	user, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.FirstName = in.FirstName
	user.LastName = in.LastName
	user.PhoneNumber = in.PhoneNumber
	if err := s.userRepo.UpdateProfile(user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) notify(ctx context.Context, msg notify.Message) {
	if s.notifier == nil {
		log.Printf("Notifier is not configured. Skipping %s notification.", msg.Template)
		return
	}
	if err := s.notifier.Notify(ctx, msg); err != nil {
		log.Printf("Warning: Failed to send %s notification to %s: %v", msg.Template, msg.Recipient, err)
	}
}

func (s *AuthService) sign(claims jwt.MapClaims, ttl time.Duration) (string, error) {
	now := time.Now()
	claims["iat"] = now.Unix()
	claims["exp"] = now.Add(ttl).Unix()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, nil
}

func (s *AuthService) parse(tokenString, typ string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		log.Printf("Token validation error: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid || claims["typ"] != typ {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *AuthService) userFromToken(tokenString, typ string) (*models.User, jwt.MapClaims, error) {
	claims, err := s.parse(tokenString, typ)
	if err != nil {
		return nil, nil, err
	}
	userID, _ := claims["sub"].(string)
	if userID == "" {
		return nil, nil, ErrInvalidToken
	}
	user, err := s.userRepo.GetByID(userID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, nil, ErrInvalidToken
	}
	if err != nil {
		return nil, nil, err
	}
	return user, claims, nil
}

func passwordFingerprint(hash string) string {
	sum := sha256.Sum256([]byte(hash))
	return hex.EncodeToString(sum[:8])
}
