package auth

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// UserStore is the credential persistence the handlers need. *Repo satisfies
// it; tests plug in fakes.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	Create(ctx context.Context, email, passwordHash string) (*User, error)
	PasswordHash(ctx context.Context, userID int64) (string, error)
	UpdatePasswordHash(ctx context.Context, userID int64, newHash string) (int64, error)
	Delete(ctx context.Context, userID int64) error
}

// CredentialVerifier verifies a third-party identity token and returns the
// verified email. *GoogleVerifier satisfies it.
type CredentialVerifier interface {
	VerifyCredential(ctx context.Context, credential string) (string, error)
}

type Handler struct {
	users  UserStore
	tokens *Issuer
	google CredentialVerifier
}

func NewHandler(users UserStore, tokens *Issuer, google CredentialVerifier) *Handler {
	return &Handler{users: users, tokens: tokens, google: google}
}

// RegisterRoutes wires the credential endpoints. public takes unauthenticated
// calls; authed must already be gated by RequireUser.
func RegisterRoutes(public, authed *gin.RouterGroup, h *Handler) {
	public.POST("/register", h.register)
	public.POST("/login", h.login)
	public.POST("/google", h.googleLogin)

	authed.PUT("/password", h.changePassword)
	authed.DELETE("/account", h.deleteAccount)
}

type credentialsReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userPayload struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

func (h *Handler) authResponse(c *gin.Context, status int, u *User) {
	token, err := h.tokens.Issue(u.ID, u.Email)
	if err != nil {
		log.Printf("token issue failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	c.JSON(status, gin.H{
		"user":  userPayload{ID: u.ID, Email: u.Email},
		"token": token,
	})
}

func (h *Handler) register(c *gin.Context) {
	var req credentialsReq
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || len(req.Password) < MinPasswordLength {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Email and password (8+ chars) are required"})
		return
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}

	u, err := h.users.Create(c.Request.Context(), req.Email, hash)
	if errors.Is(err, ErrDuplicateEmail) {
		c.JSON(http.StatusConflict, gin.H{"message": "User already exists"})
		return
	}
	if err != nil {
		log.Printf("register failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error creating user"})
		return
	}

	h.authResponse(c, http.StatusCreated, u)
}

func (h *Handler) login(c *gin.Context) {
	var req credentialsReq
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Email and password are required"})
		return
	}

	u, err := h.verifyCredentials(c.Request.Context(), req.Email, req.Password)
	if errors.Is(err, ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials"})
		return
	}
	if err != nil {
		log.Printf("login lookup failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}

	h.authResponse(c, http.StatusOK, u)
}

// verifyCredentials returns ErrInvalidCredentials for both an unknown email
// and a wrong password, so callers cannot tell the two apart.
func (h *Handler) verifyCredentials(ctx context.Context, email, password string) (*User, error) {
	u, err := h.users.FindByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !CheckPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

type googleReq struct {
	Credential string `json:"credential"`
}

func (h *Handler) googleLogin(c *gin.Context) {
	var req googleReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Credential) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "No token provided"})
		return
	}

	if h.google == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Google authentication failed"})
		return
	}

	email, err := h.google.VerifyCredential(c.Request.Context(), req.Credential)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Google authentication failed"})
		return
	}

	u, err := h.users.FindByEmail(c.Request.Context(), email)
	if errors.Is(err, ErrUserNotFound) {
		// First provider login: create the account with a random, unusable
		// password hash. Such accounts only ever authenticate through Google.
		hash, hashErr := HashPassword(uuid.NewString())
		if hashErr != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
			return
		}
		u, err = h.users.Create(c.Request.Context(), email, hash)
	}
	if err != nil {
		log.Printf("google login failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}

	h.authResponse(c, http.StatusOK, u)
}

type changePasswordReq struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (h *Handler) changePassword(c *gin.Context) {
	identity, ok := CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "No token provided"})
		return
	}

	var req changePasswordReq
	if err := c.ShouldBindJSON(&req); err != nil || len(req.NewPassword) < MinPasswordLength {
		c.JSON(http.StatusBadRequest, gin.H{"message": "New password must be 8+ chars"})
		return
	}

	hash, err := h.users.PasswordHash(c.Request.Context(), identity.ID)
	if errors.Is(err, ErrUserNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}

	if !CheckPassword(hash, req.CurrentPassword) {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Current password is wrong"})
		return
	}

	newHash, err := HashPassword(req.NewPassword)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}

	changed, err := h.users.UpdatePasswordHash(c.Request.Context(), identity.ID, newHash)
	if err != nil {
		log.Printf("password update failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error updating password"})
		return
	}
	if changed == 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password updated successfully"})
}

func (h *Handler) deleteAccount(c *gin.Context) {
	identity, ok := CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "No token provided"})
		return
	}

	if err := h.users.Delete(c.Request.Context(), identity.ID); err != nil {
		log.Printf("account delete failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error deleting account"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Account deleted"})
}
