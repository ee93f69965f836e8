package middleware

import (
	"context"
	"log"
	"net/http"
	"strings"

	"go-roomchat/backend/utils"
)

// JWTMiddleware 驗證 JWT Token 並將呼叫者身分放入 context
// 一般請求帶 Authorization: Bearer <token>；
// WebSocket 升級請求無法自訂標頭，改以 ?token= 查詢參數傳遞
func JWTMiddleware(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := ""

			authHeader := r.Header.Get("Authorization")
			if authHeader != "" {
				// Authorization: Bearer <token>
				parts := strings.Split(authHeader, " ")
				if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
					http.Error(w, "Invalid Authorization header format", http.StatusUnauthorized)
					return
				}
				tokenString = parts[1]
			} else {
				tokenString = r.URL.Query().Get("token")
			}

			if tokenString == "" {
				http.Error(w, "Authorization required", http.StatusUnauthorized)
				return
			}

			identity, err := utils.GetIdentityFromToken(tokenString, jwtSecret)
			if err != nil {
				log.Printf("Invalid JWT token: %v", err)
				http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
				return
			}

			// 將呼叫者身分存儲到請求的 context 中
			ctx := context.WithValue(r.Context(), utils.IdentityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
