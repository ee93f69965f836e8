package handlers

import (
	"log"
	"net/http"

	"go-roomchat/backend/cache"
	"go-roomchat/backend/database"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserHandler 處理使用者清單的查詢
type UserHandler struct {
	users    *database.UserRepository
	presence *cache.Presence
}

// NewUserHandler 創建並返回一個新的 UserHandler 實例
func NewUserHandler(users *database.UserRepository, presence *cache.Presence) *UserHandler {
	return &UserHandler{users: users, presence: presence}
}

// ListUsers 返回全部使用者，並附上來自 Redis 快取的在線狀態
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		log.Printf("Error listing users: %v", err)
		sendJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	ids := make([]primitive.ObjectID, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	online, err := h.presence.OnlineSet(r.Context(), ids)
	if err != nil {
		// 在線狀態是輔助資訊，快取暫時不可用時仍返回使用者清單
		log.Printf("Error reading online set from cache: %v", err)
		online = map[primitive.ObjectID]bool{}
	}
	for i := range users {
		users[i].Online = online[users[i].ID]
	}

	writeJSON(w, http.StatusOK, users)
}
