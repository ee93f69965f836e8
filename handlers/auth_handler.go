package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"go-roomchat/backend/chat"
	"go-roomchat/backend/config"
	"go-roomchat/backend/database"
	"go-roomchat/backend/models"
	"go-roomchat/backend/utils"

	"golang.org/x/crypto/bcrypt" // 用於密碼哈希
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// sendJSONError 統一發送 JSON 格式錯誤響應
func sendJSONError(w http.ResponseWriter, message string, statusCode int) {
	var errorResponse models.ErrorResponse
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	errorResponse.Message = message
	if err := json.NewEncoder(w).Encode(errorResponse); err != nil {
		log.Printf("Failed to write error response: %v", err)
	}
}

// writeJSON 統一發送 JSON 格式響應
func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Failed to write response: %v", err)
	}
}

// AuthHandler 處理註冊 / 登入等身分相關請求
// 這層是核心之外的黏著層：核心只透過 models.Identity 信任這裡發出的身分
type AuthHandler struct {
	users       *database.UserRepository
	cfg         *config.Config
	googleOAuth *oauth2.Config
}

// NewAuthHandler 創建並返回一個新的 AuthHandler 實例
func NewAuthHandler(users *database.UserRepository, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		users: users,
		cfg:   cfg,
		googleOAuth: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
	}
}

// tokenResponse 是登入成功後返回的內容
type tokenResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// Register 處理使用者註冊請求
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("JSON decode error: %v", err)
		sendJSONError(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	// 基本的輸入驗證
	if req.Email == "" || req.Name == "" || req.Password == "" {
		sendJSONError(w, "Email, name, and password are required", http.StatusBadRequest)
		return
	}

	// 哈希密碼
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("Error hashing password: %v", err)
		sendJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	user, err := h.users.Create(r.Context(), req.Email, req.Name, string(hashedPassword))
	if errors.Is(err, chat.ErrEmailTaken) {
		sendJSONError(w, "Email already registered", http.StatusConflict)
		return
	}
	if err != nil {
		log.Printf("Error creating user: %v", err)
		sendJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	token, err := utils.GenerateJWT(user.ID, user.Name, h.cfg.JWTSecret)
	if err != nil {
		log.Printf("Error generating JWT: %v", err)
		sendJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, tokenResponse{Token: token, User: user})
}

// Login 處理使用者登入請求
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var credentials models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&credentials); err != nil {
		sendJSONError(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	user, err := h.users.FindByEmail(r.Context(), credentials.Email)
	if errors.Is(err, chat.ErrUserNotFound) {
		sendJSONError(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}
	if err != nil {
		log.Printf("Error finding user: %v", err)
		sendJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(credentials.Password)); err != nil {
		sendJSONError(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}

	token, err := utils.GenerateJWT(user.ID, user.Name, h.cfg.JWTSecret)
	if err != nil {
		log.Printf("Error generating JWT: %v", err)
		sendJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{Token: token, User: user})
}

// GoogleLogin 將瀏覽器導向 Google 的授權頁面
func (h *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	if h.cfg.GoogleClientID == "" {
		sendJSONError(w, "Google sign-in is not configured", http.StatusNotImplemented)
		return
	}
	url := h.googleOAuth.AuthCodeURL("state-token", oauth2.AccessTypeOnline)
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

// googleUserInfo 是 Google userinfo 端點回傳的欄位（只取需要的部分）
type googleUserInfo struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// GoogleCallback 用授權碼換取使用者資訊，首次登入時自動建立使用者
func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		sendJSONError(w, "Missing authorization code", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	oauthToken, err := h.googleOAuth.Exchange(ctx, code)
	if err != nil {
		log.Printf("Error exchanging OAuth code: %v", err)
		sendJSONError(w, "Failed to exchange authorization code", http.StatusUnauthorized)
		return
	}

	info, err := h.fetchGoogleUserInfo(ctx, oauthToken)
	if err != nil {
		log.Printf("Error fetching Google user info: %v", err)
		sendJSONError(w, "Failed to fetch user info", http.StatusUnauthorized)
		return
	}

	// 首次用 Google 登入時自動建立使用者（沒有本地密碼）
	user, err := h.users.FindByEmail(ctx, info.Email)
	if errors.Is(err, chat.ErrUserNotFound) {
		user, err = h.users.Create(ctx, info.Email, info.Name, "")
	}
	if err != nil {
		log.Printf("Error resolving Google user: %v", err)
		sendJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	token, err := utils.GenerateJWT(user.ID, user.Name, h.cfg.JWTSecret)
	if err != nil {
		log.Printf("Error generating JWT: %v", err)
		sendJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{Token: token, User: user})
}

// fetchGoogleUserInfo 以 access token 呼叫 Google userinfo 端點
func (h *AuthHandler) fetchGoogleUserInfo(ctx context.Context, token *oauth2.Token) (googleUserInfo, error) {
	client := h.googleOAuth.Client(ctx, token)
	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		return googleUserInfo{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return googleUserInfo{}, fmt.Errorf("userinfo endpoint returned %d: %s", resp.StatusCode, body)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return googleUserInfo{}, err
	}
	if info.Email == "" {
		return googleUserInfo{}, fmt.Errorf("userinfo response missing email")
	}
	if info.Name == "" {
		info.Name = info.Email
	}
	return info, nil
}
