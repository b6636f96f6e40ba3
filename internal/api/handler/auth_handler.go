package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/loanflow/origination/internal/core/ports"
)

type AuthHandler struct {
	authService  ports.AuthService
	verification ports.VerificationService
}

func NewAuthHandler(authService ports.AuthService, verification ports.VerificationService) *AuthHandler {
	return &AuthHandler{authService: authService, verification: verification}
}

// SendCode emails a six digit verification code.
//
// @Summary      Request an email verification code
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      sendCodeRequest  true  "Email to verify"
// @Success      202   {object}  messageResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /auth/verification [post]
func (h *AuthHandler) SendCode(c echo.Context) error {
	var req sendCodeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.verification.SendCode(c.Request().Context(), req.Email); err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, messageResponse{Message: "verification code sent"})
}

// ConfirmCode exchanges a correct code for a short-lived verification token.
//
// @Summary      Confirm an email verification code
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      confirmCodeRequest  true  "Email and code"
// @Success      200   {object}  verificationTokenResponse
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /auth/verification/confirm [post]
func (h *AuthHandler) ConfirmCode(c echo.Context) error {
	var req confirmCodeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	token, err := h.verification.VerifyCode(c.Request().Context(), req.Email, req.Code)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, verificationTokenResponse{VerificationToken: token})
}

// CancelVerification drops a pending verification.
//
// @Summary      Cancel a pending email verification
// @Tags         auth
// @Accept       json
// @Param        body  body  sendCodeRequest  true  "Email"
// @Success      204
// @Failure      400   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /auth/verification [delete]
func (h *AuthHandler) CancelVerification(c echo.Context) error {
	var req sendCodeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.verification.Cancel(c.Request().Context(), req.Email); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Register creates a customer account for a verified email.
//
// @Summary      Register a new customer
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "User registration details"
// @Success      201   {object}  authResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		Name:              req.Name,
		Username:          req.Username,
		Email:             req.Email,
		Password:          req.Password,
		VerificationToken: req.VerificationToken,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, authResponse{User: user})
}

// Login authenticates a user and returns a JWT token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	token, user, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, authResponse{Token: token, User: user})
}
