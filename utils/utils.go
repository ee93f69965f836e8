package utils

import (
	"context"
	"errors"
	"time"

	"go-roomchat/backend/models"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IdentityKey 是儲存在 context 中的呼叫者身分的鍵
type contextKey string

const IdentityKey contextKey = "identity"

// GetIdentityFromContext 從 context 中提取已驗證的呼叫者身分
func GetIdentityFromContext(ctx context.Context) (models.Identity, error) {
	identity, ok := ctx.Value(IdentityKey).(models.Identity)
	if !ok {
		return models.Identity{}, errors.New("identity not found in context")
	}
	return identity, nil
}

// GetIdentityFromToken 從 JWT token 中提取呼叫者身分
func GetIdentityFromToken(tokenString string, jwtSecret string) (models.Identity, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(jwtSecret), nil
	})

	if err != nil {
		return models.Identity{}, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return models.Identity{}, errors.New("invalid token claims")
	}

	userIDStr, ok := claims["userId"].(string)
	if !ok {
		return models.Identity{}, errors.New("user ID not found in token claims")
	}
	userID, err := primitive.ObjectIDFromHex(userIDStr)
	if err != nil {
		return models.Identity{}, errors.New("invalid user ID format in token")
	}

	name, ok := claims["username"].(string)
	if !ok {
		return models.Identity{}, errors.New("username not found in token claims")
	}

	return models.Identity{ID: userID, Name: name}, nil
}

// GenerateJWT 為用戶生成 JWT Token
func GenerateJWT(userID primitive.ObjectID, username string, secret string) (string, error) {
	claims := jwt.MapClaims{
		"userId":   userID.Hex(), // 將 ObjectID 轉換為 Hex 字串儲存
		"username": username,
		"exp":      time.Now().Add(time.Hour * 24).Unix(), // Token 24 小時後過期
		"iat":      time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", errors.New("failed to sign token")
	}
	return tokenString, nil
}
