//go:generate go run go.uber.org/mock/mockgen -source=chat.go -destination=../mocks/mock_chat.go -package=mocks
package chat

import (
	"context"

	"go-roomchat/backend/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RoomDirectory 是聊天室與成員關係的持久層介面
// SetUserRoom 是成員關係唯一的寫入路徑：覆寫使用者先前的聊天室（一人同時只在一間）
type RoomDirectory interface {
	ListRooms(ctx context.Context) ([]models.Room, error)
	// GetRoom 返回聊天室與當下的成員快照
	GetRoom(ctx context.Context, roomID primitive.ObjectID) (models.Room, error)
	CreateRoom(ctx context.Context, name string) (models.Room, error)
	SetUserRoom(ctx context.Context, userID, roomID primitive.ObjectID) error
}

// MessageStore 是訊息的持久層介面，歷史訊息只增不改
type MessageStore interface {
	// AppendMessage 產生 ID 與伺服器時間戳、寫入後返回儲存的紀錄
	AppendMessage(ctx context.Context, roomID, senderID primitive.ObjectID, senderName, text string) (models.Message, error)
	// ListMessages 依建立時間由舊到新返回聊天室的全部訊息
	ListMessages(ctx context.Context, roomID primitive.ObjectID) ([]models.Message, error)
}
