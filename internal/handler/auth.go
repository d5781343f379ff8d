package handler

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sumire/devtrack/internal/domain"
	"github.com/sumire/devtrack/internal/service"
)

const oauthStateCookie = "oauth_state"

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type authResponse struct {
	User   *domain.User       `json:"user"`
	Tokens *service.TokenPair `json:"tokens"`
}

// Register creates an account and returns it with a token pair.
func (h *AuthHandler) Register(c echo.Context) error {
	var in service.RegisterInput
	if err := c.Bind(&in); err != nil {
		return fmt.Errorf("%w: invalid request body", domain.ErrInvalidInput)
	}

	user, tokens, err := h.auth.Register(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return JSON(c, http.StatusCreated, authResponse{User: user, Tokens: tokens})
}

// Login signs in with email and password.
func (h *AuthHandler) Login(c echo.Context) error {
	var in service.LoginInput
	if err := c.Bind(&in); err != nil {
		return fmt.Errorf("%w: invalid request body", domain.ErrInvalidInput)
	}

	user, tokens, err := h.auth.Login(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return JSON(c, http.StatusOK, authResponse{User: user, Tokens: tokens})
}

// Logout revokes the access token the request was authenticated with.
func (h *AuthHandler) Logout(c echo.Context) error {
	claims, ok := GetClaims(c)
	if !ok {
		return domain.ErrUnauthorized
	}
	if err := h.auth.Logout(c.Request().Context(), claims); err != nil {
		return err
	}
	return JSON(c, http.StatusOK, map[string]string{"message": "logged out"})
}

// Refresh generates a new token pair from a refresh token.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.Bind(&body); err != nil {
		return fmt.Errorf("%w: invalid request body", domain.ErrInvalidInput)
	}
	if body.RefreshToken == "" {
		return &domain.ValidationError{Field: "refresh_token", Message: "is required"}
	}

	tokens, err := h.auth.RefreshAccessToken(c.Request().Context(), body.RefreshToken)
	if err != nil {
		return err
	}
	return JSON(c, http.StatusOK, tokens)
}

// Me returns the currently authenticated user.
func (h *AuthHandler) Me(c echo.Context) error {
	user, err := actor(c)
	if err != nil {
		return err
	}
	return JSON(c, http.StatusOK, user)
}

// Engineers lists every engineer for assignment pickers.
func (h *AuthHandler) Engineers(c echo.Context) error {
	engineers, err := h.auth.ListEngineers(c.Request().Context())
	if err != nil {
		return err
	}
	return JSONList(c, http.StatusOK, engineers)
}

// GoogleRedirect redirects the user to Google's OAuth consent page.
func (h *AuthHandler) GoogleRedirect(c echo.Context) error {
	state, err := setOAuthState(c)
	if err != nil {
		return err
	}
	return c.Redirect(http.StatusTemporaryRedirect, h.auth.GoogleAuthURL(state))
}

// GoogleCallback handles the OAuth callback from Google.
func (h *AuthHandler) GoogleCallback(c echo.Context) error {
	code, err := oauthCode(c)
	if err != nil {
		return err
	}

	user, tokens, err := h.auth.GoogleCallback(c.Request().Context(), code)
	if err != nil {
		return err
	}
	return JSON(c, http.StatusOK, authResponse{User: user, Tokens: tokens})
}

// GitHubRedirect redirects the user to GitHub's OAuth consent page.
func (h *AuthHandler) GitHubRedirect(c echo.Context) error {
	state, err := setOAuthState(c)
	if err != nil {
		return err
	}
	return c.Redirect(http.StatusTemporaryRedirect, h.auth.GitHubAuthURL(state))
}

// GitHubCallback handles the OAuth callback from GitHub.
func (h *AuthHandler) GitHubCallback(c echo.Context) error {
	code, err := oauthCode(c)
	if err != nil {
		return err
	}

	user, tokens, err := h.auth.GitHubCallback(c.Request().Context(), code)
	if err != nil {
		return err
	}
	return JSON(c, http.StatusOK, authResponse{User: user, Tokens: tokens})
}

func setOAuthState(c echo.Context) (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate oauth state: %w", err)
	}
	state := base64.RawURLEncoding.EncodeToString(b)

	c.SetCookie(&http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   600,
	})
	return state, nil
}

// oauthCode checks the state cookie against the callback and returns the
// authorization code.
func oauthCode(c echo.Context) (string, error) {
	cookie, err := c.Cookie(oauthStateCookie)
	if err != nil {
		return "", fmt.Errorf("%w: missing oauth_state cookie", domain.ErrInvalidInput)
	}
	state := c.QueryParam("state")
	if state == "" || state != cookie.Value {
		return "", fmt.Errorf("%w: oauth state mismatch", domain.ErrInvalidInput)
	}

	c.SetCookie(&http.Cookie{Name: oauthStateCookie, Path: "/", MaxAge: -1})

	code := c.QueryParam("code")
	if code == "" {
		return "", fmt.Errorf("%w: missing code parameter", domain.ErrInvalidInput)
	}
	return code, nil
}
