package handlers

import (
	"errors"
	"log"

	"shopfusion/internal/middleware"
	"shopfusion/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles HTTP requests for accounts and authentication.
type AuthHandler struct {
	authService   *services.AuthService
	cartService   *services.CartService
	sessionCookie string
	loginURL      string
	validate      *validator.Validate
}

// NewAuthHandler creates a new AuthHandler. Invalid links redirect to loginURL.
func NewAuthHandler(authService *services.AuthService, cartService *services.CartService, sessionCookie, loginURL string) *AuthHandler {
	return &AuthHandler{
		authService:   authService,
		cartService:   cartService,
		sessionCookie: sessionCookie,
		loginURL:      loginURL,
		validate:      validator.New(),
	}
}

// RegisterRoutes registers the authentication routes with the Fiber app.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	authRoutes := router.Group("/auth")
	authRoutes.Post("/register", h.HandleRegister)
	authRoutes.Get("/activate/:token", h.HandleActivate)
	authRoutes.Post("/login", h.HandleLogin)
	authRoutes.Post("/forgot-password", h.HandleForgotPassword)
	authRoutes.Get("/reset/:token", h.HandleValidateReset)
	authRoutes.Post("/reset", h.HandleResetPassword)

	authRequired := middleware.AuthRequired(h.authService)
	authRoutes.Get("/me", authRequired, h.HandleProfile)
	authRoutes.Put("/me", authRequired, h.HandleUpdateProfile)
}

// HandleRegister handles new user registration.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var req services.RegisterInput
	if handled, err := parseAndValidate(c, h.validate, &req); handled {
		return err
	}

	user, err := h.authService.Register(c.UserContext(), req)
	if err != nil {
		return serviceError(c, err, "Registration failed")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Thank you for registering with us. We have sent you a verification email to your email address. Please verify it.",
		"user":    user,
	})
}

// HandleActivate activates an account from its emailed link.
func (h *AuthHandler) HandleActivate(c *fiber.Ctx) error {
	user, err := h.authService.Activate(c.UserContext(), c.Params("token"))
	if errors.Is(err, services.ErrInvalidToken) {
		return c.Redirect(h.loginURL, fiber.StatusSeeOther)
	}
	if err != nil {
		return serviceError(c, err, "Could not activate account")
	}
	return c.JSON(fiber.Map{
		"message": "Congratulations! Your account is activated.",
		"user":    user,
	})
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// HandleLogin handles user login and issues a JWT token. The items of the
// caller's session cart move into the user's cart; no token is issued when
// that merge fails.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if handled, err := parseAndValidate(c, h.validate, &req); handled {
		return err
	}

	token, user, err := h.authService.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		log.Printf("Error during login for %s: %v", req.Email, err)
		return serviceError(c, err, "Authentication failed")
	}

	if sessionToken := c.Cookies(h.sessionCookie); sessionToken != "" {
		if err := h.cartService.MergeAnonymousIntoUser(c.UserContext(), sessionToken, user.ID); err != nil {
			return serviceError(c, err, "Could not merge cart")
		}
	}

	return c.JSON(fiber.Map{
		"message": "Login successful",
		"token":   token,
		"user":    user,
	})
}

// ForgotPasswordRequest represents the request body for a reset link.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// HandleForgotPassword emails a password reset link.
func (h *AuthHandler) HandleForgotPassword(c *fiber.Ctx) error {
	var req ForgotPasswordRequest
	if handled, err := parseAndValidate(c, h.validate, &req); handled {
		return err
	}

	if err := h.authService.ForgotPassword(c.UserContext(), req.Email); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Account does not exist!",
			})
		}
		return serviceError(c, err, "Could not send reset link")
	}
	return c.JSON(fiber.Map{
		"message": "Password reset email has been sent to your email address.",
	})
}

// HandleValidateReset checks a reset link before the new password is chosen.
func (h *AuthHandler) HandleValidateReset(c *fiber.Ctx) error {
	token := c.Params("token")
	if _, err := h.authService.ValidateResetToken(c.UserContext(), token); err != nil {
		if errors.Is(err, services.ErrInvalidToken) {
			return c.Redirect(h.loginURL, fiber.StatusSeeOther)
		}
		return serviceError(c, err, "Could not validate reset link")
	}
	return c.JSON(fiber.Map{
		"message": "Please reset your password",
		"token":   token,
	})
}

// ResetPasswordRequest represents the request body for setting a new password.
type ResetPasswordRequest struct {
	Token           string `json:"token" validate:"required"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

// HandleResetPassword sets a new password.
func (h *AuthHandler) HandleResetPassword(c *fiber.Ctx) error {
	var req ResetPasswordRequest
	if handled, err := parseAndValidate(c, h.validate, &req); handled {
		return err
	}

	if err := h.authService.ResetPassword(c.UserContext(), req.Token, req.Password, req.ConfirmPassword); err != nil {
		return serviceError(c, err, "Could not reset password")
	}
	return c.JSON(fiber.Map{
		"message": "Password reset successful",
	})
}

// HandleProfile returns the caller's account.
func (h *AuthHandler) HandleProfile(c *fiber.Ctx) error {
	user, err := h.authService.Profile(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return serviceError(c, err, "Could not retrieve profile")
	}
	return c.JSON(user)
}

// HandleUpdateProfile changes the caller's name and phone number.
func (h *AuthHandler) HandleUpdateProfile(c *fiber.Ctx) error {
	var req services.ProfileInput
	if handled, err := parseAndValidate(c, h.validate, &req); handled {
		return err
	}

	user, err := h.authService.UpdateProfile(c.UserContext(), middleware.UserID(c), req)
	if err != nil {
		return serviceError(c, err, "Could not update profile")
	}
	return c.JSON(fiber.Map{
		"message": "Your profile has been updated.",
		"user":    user,
	})
}
