package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"cribtrakr/db"
	"cribtrakr/models"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// JWTExpiry is how long issued tokens stay valid. Overridden from config at
// startup.
var JWTExpiry = 7 * 24 * time.Hour

type Claims struct {
	UserID int64 `json:"user_id"`
	jwt.RegisteredClaims
}

type authRequest struct {
	Username *string `json:"username"`
	Password *string `json:"password"`
}

func getJWTSecret() []byte {
	return []byte(os.Getenv("JWT_SECRET"))
}

func signToken(userID int64, username string) (string, error) {
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(JWTExpiry)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(getJWTSecret())
}

// Register handles POST /api/users.
func Register(w http.ResponseWriter, r *http.Request) {
	var req authRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondValidation(w, "Invalid JSON", "")
		return
	}

	if req.Username == nil {
		respondValidation(w, "Missing field", "username")
		return
	}
	if req.Password == nil {
		respondValidation(w, "Missing field", "password")
		return
	}

	username, password := *req.Username, *req.Password
	if username != strings.TrimSpace(username) {
		respondValidation(w, "Cannot start or end with whitespace", "username")
		return
	}
	if password != strings.TrimSpace(password) {
		respondValidation(w, "Cannot start or end with whitespace", "password")
		return
	}
	if len(username) < 1 {
		respondValidation(w, "Must be at least 1 characters long", "username")
		return
	}
	if len(password) < 10 {
		respondValidation(w, "Must be at least 10 characters long", "password")
		return
	}
	if len(password) > 72 {
		respondValidation(w, "Must be at most 72 characters long", "password")
		return
	}

	var count int
	if err := db.DB.Get(&count, "SELECT COUNT(*) FROM users WHERE username = ?", username); err != nil {
		zap.L().Error("register: user lookup failed", zap.Error(err))
		respondMessage(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if count > 0 {
		respondValidation(w, "Username already taken", "username")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		zap.L().Error("register: password hashing failed", zap.Error(err))
		respondMessage(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	res, err := db.DB.Exec("INSERT INTO users (username, password_hash) VALUES (?, ?)", username, string(hash))
	if err != nil {
		respondValidation(w, "Username already taken", "username")
		return
	}
	id, _ := res.LastInsertId()

	respondJSON(w, http.StatusCreated, models.User{
		ID:        id,
		Username:  username,
		CreatedAt: time.Now().UTC(),
	})
}

// Login handles POST /api/auth/login.
func Login(w http.ResponseWriter, r *http.Request) {
	var req authRequest
	json.NewDecoder(r.Body).Decode(&req)
	if req.Username == nil || req.Password == nil {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	var user models.User
	err := db.DB.Get(&user, "SELECT id, username, password_hash FROM users WHERE username = ?", *req.Username)
	if errors.Is(err, sql.ErrNoRows) ||
		(err == nil && bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(*req.Password)) != nil) {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}
	if err != nil {
		zap.L().Error("login: user lookup failed", zap.Error(err))
		respondMessage(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	signed, err := signToken(user.ID, user.Username)
	if err != nil {
		zap.L().Error("login: token signing failed", zap.Error(err))
		respondMessage(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"authToken": signed})
}

// RefreshToken handles POST /api/auth/refresh. It runs behind the auth
// middleware, so a valid token is exchanged for one with a fresh expiry.
func RefreshToken(w http.ResponseWriter, r *http.Request) {
	username := getUser(r)
	if username == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var user models.User
	err := db.DB.Get(&user, "SELECT id, username FROM users WHERE username = ?", username)
	if errors.Is(err, sql.ErrNoRows) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if err != nil {
		zap.L().Error("refresh: user lookup failed", zap.Error(err))
		respondMessage(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	signed, err := signToken(user.ID, user.Username)
	if err != nil {
		zap.L().Error("refresh: token signing failed", zap.Error(err))
		respondMessage(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"authToken": signed})
}

// Protected handles GET /api/protected, a smoke endpoint for valid tokens.
func Protected(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"data": "rosebud"})
}
