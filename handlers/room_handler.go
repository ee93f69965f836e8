package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"go-roomchat/backend/chat"
	"go-roomchat/backend/utils"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CreateRoomRequest 定義創建聊天室的請求體
type CreateRoomRequest struct {
	Name string `json:"name"`
}

// RoomHandler 處理聊天室的查詢、建立與進入
type RoomHandler struct {
	directory chat.RoomDirectory
	presence  *chat.Coordinator
}

// NewRoomHandler 創建並返回一個新的 RoomHandler 實例
func NewRoomHandler(directory chat.RoomDirectory, presence *chat.Coordinator) *RoomHandler {
	return &RoomHandler{directory: directory, presence: presence}
}

// ListRooms 返回全部聊天室
func (h *RoomHandler) ListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.directory.ListRooms(r.Context())
	if err != nil {
		log.Printf("Error listing rooms: %v", err)
		sendJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, rooms)
}

// GetRoom 返回單一聊天室與目前的成員快照
func (h *RoomHandler) GetRoom(w http.ResponseWriter, r *http.Request) {
	roomID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		sendJSONError(w, "Invalid room ID format", http.StatusBadRequest)
		return
	}

	room, err := h.directory.GetRoom(r.Context(), roomID)
	if errors.Is(err, chat.ErrRoomNotFound) {
		sendJSONError(w, "Room not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("Error getting room %s: %v", roomID.Hex(), err)
		sendJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, room)
}

// CreateRoom 處理創建聊天室的請求
func (h *RoomHandler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	var req CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		sendJSONError(w, "Room name is required", http.StatusBadRequest)
		return
	}

	room, err := h.directory.CreateRoom(r.Context(), req.Name)
	if err != nil {
		log.Printf("Error creating room: %v", err)
		sendJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, room)
}

// EnterRoom 將呼叫者移入指定的聊天室
func (h *RoomHandler) EnterRoom(w http.ResponseWriter, r *http.Request) {
	roomID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		sendJSONError(w, "Invalid room ID format", http.StatusBadRequest)
		return
	}

	identity, err := utils.GetIdentityFromContext(r.Context())
	if err != nil {
		sendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	err = h.presence.EnterRoom(r.Context(), identity.ID, roomID)
	if errors.Is(err, chat.ErrRoomNotFound) {
		sendJSONError(w, "Room not found", http.StatusNotFound)
		return
	}
	if errors.Is(err, chat.ErrUserNotFound) {
		sendJSONError(w, "User not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("Error entering room %s: %v", roomID.Hex(), err)
		sendJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
