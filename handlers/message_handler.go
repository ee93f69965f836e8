package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"go-roomchat/backend/chat"
	"go-roomchat/backend/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SendMessageRequest 定義發送訊息的請求體
// 注意：這裡沒有發送者名稱的欄位，名稱一律由伺服器端的身分解析取得
type SendMessageRequest struct {
	RoomID string `json:"roomId"`
	Text   string `json:"text"`
}

// MessageHandler 處理訊息的發送與歷史查詢
type MessageHandler struct {
	distributor *chat.Distributor
}

// NewMessageHandler 創建並返回一個新的 MessageHandler 實例
func NewMessageHandler(distributor *chat.Distributor) *MessageHandler {
	return &MessageHandler{distributor: distributor}
}

// SendMessage 處理發送訊息的請求，返回持久化後的訊息作為權威回聲
func (h *MessageHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	roomID, err := primitive.ObjectIDFromHex(req.RoomID)
	if err != nil {
		sendJSONError(w, "Invalid room ID format", http.StatusBadRequest)
		return
	}

	identity, err := utils.GetIdentityFromContext(r.Context())
	if err != nil {
		sendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	msg, err := h.distributor.SendMessage(r.Context(), identity, roomID, req.Text)
	if errors.Is(err, chat.ErrEmptyMessage) {
		sendJSONError(w, "Message text is required", http.StatusBadRequest)
		return
	}
	if errors.Is(err, chat.ErrRoomNotFound) {
		sendJSONError(w, "Room not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("Error sending message to room %s: %v", roomID.Hex(), err)
		sendJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

// ListMessages 返回聊天室的歷史訊息（由舊到新）
// 重新連線的客戶端靠這個端點補齊斷線期間錯過的訊息
func (h *MessageHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	roomIDStr := r.URL.Query().Get("roomId")
	if roomIDStr == "" {
		sendJSONError(w, "Room ID is required", http.StatusBadRequest)
		return
	}
	roomID, err := primitive.ObjectIDFromHex(roomIDStr)
	if err != nil {
		sendJSONError(w, "Invalid room ID format", http.StatusBadRequest)
		return
	}

	messages, err := h.distributor.ListMessages(r.Context(), roomID)
	if errors.Is(err, chat.ErrRoomNotFound) {
		sendJSONError(w, "Room not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("Error getting messages for room %s: %v", roomID.Hex(), err)
		sendJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, messages)
}
