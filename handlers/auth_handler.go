package handlers

import (
	"encoding/json"
	"net/http"

	"animal-chat/backend/database"
	"animal-chat/backend/models"
	"animal-chat/backend/utils"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// AuthHandler serves signup, login and user lookup.
type AuthHandler struct {
	JWTSecret string
}

// RegisterUser handles signup. Input is validated before any store
// call: email shape, password presence and password confirmation.
func (h *AuthHandler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var registerReq models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&registerReq); err != nil {
		log.Warn().Err(err).Msg("JSON decode error")
		sendJSONError(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	if registerReq.Email == "" || registerReq.Username == "" || registerReq.Password == "" {
		sendJSONError(w, "Email, username, and password are required", http.StatusBadRequest)
		return
	}
	if !utils.IsValidEmail(registerReq.Email) {
		sendJSONError(w, "Invalid email address", http.StatusBadRequest)
		return
	}
	if registerReq.ConfirmPassword != "" && registerReq.Password != registerReq.ConfirmPassword {
		sendJSONError(w, "Passwords do not match", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	existing, err := database.GetUserByEmail(ctx, registerReq.Email)
	if err != nil {
		sendError(w, err)
		return
	}
	if existing != nil {
		sendJSONError(w, "Email already registered", http.StatusConflict)
		return
	}

	existing, err = database.GetUserByUsername(ctx, registerReq.Username)
	if err != nil {
		sendError(w, err)
		return
	}
	if existing != nil {
		sendJSONError(w, "Username already taken", http.StatusConflict)
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(registerReq.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error().Err(err).Msg("Error hashing password")
		sendJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	user := models.User{
		Email:    registerReq.Email,
		Username: registerReq.Username,
		Password: string(hashedPassword),
	}

	userID, err := database.CreateUser(ctx, user)
	if err != nil {
		log.Error().Err(err).Msg("Error inserting user")
		sendJSONError(w, "Failed to register user", http.StatusInternalServerError)
		return
	}

	log.Info().Str("userId", userID.Hex()).Msg("User registered")
	sendJSON(w, http.StatusCreated, map[string]string{
		"message": "User registered successfully",
		"id":      userID.Hex(),
	})
}

// LoginUser verifies credentials and issues a JWT.
func (h *AuthHandler) LoginUser(w http.ResponseWriter, r *http.Request) {
	var credentials struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := json.NewDecoder(r.Body).Decode(&credentials); err != nil {
		log.Warn().Err(err).Msg("JSON decode error")
		sendJSONError(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	if credentials.Email == "" || credentials.Password == "" {
		sendJSONError(w, "Email and password are required", http.StatusBadRequest)
		return
	}

	user, err := database.GetUserByEmail(r.Context(), credentials.Email)
	if err != nil {
		sendError(w, err)
		return
	}
	if user == nil {
		sendJSONError(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(credentials.Password)); err != nil {
		sendJSONError(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := utils.GenerateJWT(user.ID, user.Username, user.EmailVerified, h.JWTSecret)
	if err != nil {
		log.Error().Err(err).Msg("Error signing token")
		sendJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	log.Info().Str("email", user.Email).Msg("User logged in")
	sendJSON(w, http.StatusOK, map[string]interface{}{
		"message":       "Login successful",
		"id":            user.ID.Hex(),
		"username":      user.Username,
		"emailVerified": user.EmailVerified,
		"token":         token,
	})
}

// Me returns the authenticated caller's profile.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		sendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	user, err := database.GetUserByID(r.Context(), userID)
	if err != nil {
		sendError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, user)
}

// VerifyEmail marks the caller's email as verified. The actual mail
// round-trip lives outside this service; this is the callback target.
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		sendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := database.MarkEmailVerified(r.Context(), userID); err != nil {
		sendError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, map[string]string{"message": "Email verified"})
}

// GetAllUsers lists every registered user.
func (h *AuthHandler) GetAllUsers(w http.ResponseWriter, r *http.Request) {
	users, err := database.GetAllUsers(r.Context())
	if err != nil {
		sendError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, users)
}
