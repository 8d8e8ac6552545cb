package handlers

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"image/png"
	"log"
	"net/http"
	"strings"

	"subdomtop/internal/audit"
	"subdomtop/internal/auth"
	"subdomtop/internal/database"
	"subdomtop/internal/events"
	"subdomtop/internal/models"

	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"
)

type AuthHandler struct {
	db  *database.DB
	hub *events.Hub
}

func NewAuthHandler(db *database.DB, hub *events.Hub) *AuthHandler {
	return &AuthHandler{db: db, hub: hub}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	TOTPCode string `json:"totp_code,omitempty"`
}

type LoginResponse struct {
	Token       string      `json:"token,omitempty"`
	User        models.User `json:"user"`
	Requires2FA bool        `json:"requires_2fa,omitempty"`
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	var user models.User
	err := h.db.Get(&user, "SELECT * FROM users WHERE email = $1", req.Email)
	if err != nil {
		audit.Log(audit.EventLoginFailed, "", req.Email, nil)
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	if !auth.CheckPassword(req.Password, user.PasswordHash) {
		audit.Log(audit.EventLoginFailed, user.ID.String(), "", nil)
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	// Check if 2FA is enabled
	if user.TOTPEnabled && user.TOTPSecret != nil {
		// If no TOTP code provided, ask for it
		if req.TOTPCode == "" {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(LoginResponse{
				Requires2FA: true,
				User:        models.User{ID: user.ID, Email: user.Email},
			})
			return
		}

		if !totp.Validate(req.TOTPCode, *user.TOTPSecret) {
			http.Error(w, "Invalid 2FA code", http.StatusUnauthorized)
			return
		}
	}

	token, err := auth.GenerateToken(user.ID.String(), user.Email)
	if err != nil {
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	audit.Log(audit.EventLogin, user.ID.String(), "", nil)
	h.hub.SignedIn(user.ID.String(), user.Email)

	user.PasswordHash = ""
	user.TOTPSecret = nil
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(LoginResponse{
		Token: token,
		User:  user,
	})
}

// Register creates an account. The display name defaults to the email local
// part until the owner edits it.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	if req.Email == "" || req.Password == "" {
		http.Error(w, "Email and password are required", http.StatusBadRequest)
		return
	}

	if len(req.Password) < 8 {
		http.Error(w, "Password must be at least 8 characters", http.StatusBadRequest)
		return
	}

	// Check if email already exists
	var count int
	h.db.Get(&count, "SELECT COUNT(*) FROM users WHERE email = $1", req.Email)
	if count > 0 {
		http.Error(w, "Email already registered", http.StatusConflict)
		return
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		log.Printf("Failed to hash password: %v", err)
		http.Error(w, "Failed to create account", http.StatusInternalServerError)
		return
	}

	displayName := req.Email
	if at := strings.Index(req.Email, "@"); at > 0 {
		displayName = req.Email[:at]
	}

	var user models.User
	err = h.db.Get(&user, `
		INSERT INTO users (email, password_hash, display_name, status)
		VALUES ($1, $2, $3, 'active')
		RETURNING id, email, display_name, bio, status, totp_enabled, created_at, updated_at
	`, req.Email, passwordHash, displayName)
	if err != nil {
		log.Printf("Failed to create user: %v", err)
		http.Error(w, "Failed to create account", http.StatusInternalServerError)
		return
	}

	token, err := auth.GenerateToken(user.ID.String(), user.Email)
	if err != nil {
		http.Error(w, "Account created but failed to generate token", http.StatusInternalServerError)
		return
	}

	audit.Log(audit.EventUserCreated, user.ID.String(), "", nil)
	h.hub.SignedIn(user.ID.String(), user.Email)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(LoginResponse{
		Token: token,
		User:  user,
	})
}

// Logout only publishes the sign-out event; tokens expire on their own.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := r.Context().Value("claims").(*auth.Claims)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	audit.Log(audit.EventLogout, claims.UserID, "", nil)
	h.hub.SignedOut()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Signed out"})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := r.Context().Value("claims").(*auth.Claims)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	var user models.User
	err = h.db.Get(&user, `
		SELECT id, email, display_name, bio, status, totp_enabled, created_at, updated_at
		FROM users WHERE id = $1
	`, userID)
	if err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(user)
}

// UpdateProfile updates the current user's public profile. Only the session
// owner can reach their own row; the id comes from the token, never the body.
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := r.Context().Value("claims").(*auth.Claims)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		DisplayName string `json:"display_name"`
		Bio         string `json:"bio"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	userID, _ := uuid.Parse(claims.UserID)

	_, err := h.db.Exec(`
		UPDATE users SET display_name = $1, bio = $2, updated_at = NOW()
		WHERE id = $3
	`, req.DisplayName, req.Bio, userID)
	if err != nil {
		http.Error(w, "Failed to update profile", http.StatusInternalServerError)
		return
	}

	audit.Log(audit.EventProfileUpdated, claims.UserID, "", nil)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Profile updated"})
}

// ChangePassword handles password change for current user
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims, ok := r.Context().Value("claims").(*auth.Claims)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	if len(req.NewPassword) < 8 {
		http.Error(w, "Password must be at least 8 characters", http.StatusBadRequest)
		return
	}

	userID, _ := uuid.Parse(claims.UserID)

	var currentHash string
	err := h.db.Get(&currentHash, "SELECT password_hash FROM users WHERE id = $1", userID)
	if err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	if !auth.CheckPassword(req.CurrentPassword, currentHash) {
		http.Error(w, "Current password is incorrect", http.StatusUnauthorized)
		return
	}

	newHash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		http.Error(w, "Failed to update password", http.StatusInternalServerError)
		return
	}

	_, err = h.db.Exec(`
		UPDATE users SET password_hash = $1, updated_at = NOW()
		WHERE id = $2
	`, newHash, userID)
	if err != nil {
		http.Error(w, "Failed to update password", http.StatusInternalServerError)
		return
	}

	audit.Log(audit.EventPasswordChange, claims.UserID, "", nil)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Password updated successfully"})
}

func hashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// RequestPasswordReset issues a single-use reset token. There is no mail
// transport here; the token goes back to the caller for out-of-band delivery.
func (h *AuthHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	var userID uuid.UUID
	err := h.db.Get(&userID, "SELECT id FROM users WHERE email = $1", req.Email)
	if err != nil {
		// Do not reveal whether the account exists
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "If the account exists, a reset token has been issued"})
		return
	}

	token, err := auth.GenerateSecureToken(32)
	if err != nil {
		http.Error(w, "Failed to issue reset token", http.StatusInternalServerError)
		return
	}

	_, err = h.db.Exec(`
		INSERT INTO password_resets (user_id, token_hash, expires_at)
		VALUES ($1, $2, NOW() + INTERVAL '1 hour')
	`, userID, hashResetToken(token))
	if err != nil {
		log.Printf("Failed to store reset token: %v", err)
		http.Error(w, "Failed to issue reset token", http.StatusInternalServerError)
		return
	}

	audit.Log(audit.EventPasswordResetSent, userID.String(), "", nil)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"message":     "If the account exists, a reset token has been issued",
		"reset_token": token,
	})
}

// ConfirmPasswordReset consumes a reset token and sets the new password.
func (h *AuthHandler) ConfirmPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token       string `json:"token"`
		NewPassword string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	if len(req.NewPassword) < 8 {
		http.Error(w, "Password must be at least 8 characters", http.StatusBadRequest)
		return
	}

	var reset models.PasswordReset
	err := h.db.Get(&reset, `
		SELECT * FROM password_resets
		WHERE token_hash = $1 AND used_at IS NULL AND expires_at > NOW()
	`, hashResetToken(req.Token))
	if err != nil {
		http.Error(w, "Invalid or expired reset token", http.StatusUnauthorized)
		return
	}

	newHash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		http.Error(w, "Failed to reset password", http.StatusInternalServerError)
		return
	}

	_, err = h.db.Exec(`
		UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2
	`, newHash, reset.UserID)
	if err != nil {
		http.Error(w, "Failed to reset password", http.StatusInternalServerError)
		return
	}

	h.db.Exec("UPDATE password_resets SET used_at = NOW() WHERE id = $1", reset.ID)

	audit.Log(audit.EventPasswordReset, reset.UserID.String(), "", nil)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Password reset successfully"})
}

// Setup2FA generates a new TOTP secret and QR code
func (h *AuthHandler) Setup2FA(w http.ResponseWriter, r *http.Request) {
	claims, ok := r.Context().Value("claims").(*auth.Claims)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	userID, _ := uuid.Parse(claims.UserID)

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      "SubdomTop",
		AccountName: claims.Email,
	})
	if err != nil {
		log.Printf("Failed to generate TOTP key: %v", err)
		http.Error(w, "Failed to setup 2FA", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	img, err := key.Image(200, 200)
	if err != nil {
		http.Error(w, "Failed to generate QR code", http.StatusInternalServerError)
		return
	}
	png.Encode(&buf, img)
	qrCode := base64.StdEncoding.EncodeToString(buf.Bytes())

	// Store secret temporarily (not enabled yet)
	_, err = h.db.Exec(`
		UPDATE users SET totp_secret = $1, updated_at = NOW()
		WHERE id = $2
	`, key.Secret(), userID)
	if err != nil {
		http.Error(w, "Failed to setup 2FA", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"secret":  key.Secret(),
		"qr_code": "data:image/png;base64," + qrCode,
		"url":     key.URL(),
	})
}

// Enable2FA verifies a TOTP code and enables 2FA
func (h *AuthHandler) Enable2FA(w http.ResponseWriter, r *http.Request) {
	claims, ok := r.Context().Value("claims").(*auth.Claims)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	userID, _ := uuid.Parse(claims.UserID)

	var secret string
	err := h.db.Get(&secret, "SELECT totp_secret FROM users WHERE id = $1", userID)
	if err != nil || secret == "" {
		http.Error(w, "2FA not set up", http.StatusBadRequest)
		return
	}

	if !totp.Validate(req.Code, secret) {
		http.Error(w, "Invalid verification code", http.StatusBadRequest)
		return
	}

	_, err = h.db.Exec(`
		UPDATE users SET totp_enabled = true, updated_at = NOW()
		WHERE id = $1
	`, userID)
	if err != nil {
		http.Error(w, "Failed to enable 2FA", http.StatusInternalServerError)
		return
	}

	audit.Log(audit.Event2FAEnabled, claims.UserID, "", nil)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "2FA enabled successfully"})
}

// Disable2FA disables 2FA for the current user
func (h *AuthHandler) Disable2FA(w http.ResponseWriter, r *http.Request) {
	claims, ok := r.Context().Value("claims").(*auth.Claims)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	userID, _ := uuid.Parse(claims.UserID)

	var currentHash string
	err := h.db.Get(&currentHash, "SELECT password_hash FROM users WHERE id = $1", userID)
	if err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	if !auth.CheckPassword(req.Password, currentHash) {
		http.Error(w, "Invalid password", http.StatusUnauthorized)
		return
	}

	_, err = h.db.Exec(`
		UPDATE users SET totp_enabled = false, totp_secret = NULL, updated_at = NOW()
		WHERE id = $1
	`, userID)
	if err != nil {
		http.Error(w, "Failed to disable 2FA", http.StatusInternalServerError)
		return
	}

	audit.Log(audit.Event2FADisabled, claims.UserID, "", nil)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "2FA disabled successfully"})
}
