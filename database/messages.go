package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go-roomchat/backend/chat"
	"go-roomchat/backend/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MessageStore 是 chat.MessageStore 的 MongoDB 實作
// 訊息只增不改、無限期保留，ID 採用 ObjectID（抗碰撞，而非只是看起來隨機）
type MessageStore struct {
	messages *mongo.Collection
	rooms    *mongo.Collection
}

// NewMessageStore 創建並返回一個新的 MessageStore 實例
func NewMessageStore(db *mongo.Database) *MessageStore {
	return &MessageStore{
		messages: db.Collection("messages"),
		rooms:    db.Collection("rooms"),
	}
}

// AppendMessage 產生 ID 與伺服器時間戳、寫入後返回儲存的紀錄
// 聊天室不存在或內容為空時不寫入任何東西
func (s *MessageStore) AppendMessage(ctx context.Context, roomID, senderID primitive.ObjectID, senderName, text string) (models.Message, error) {
	if strings.TrimSpace(text) == "" {
		return models.Message{}, chat.ErrEmptyMessage
	}

	count, err := s.rooms.CountDocuments(ctx, bson.M{"_id": roomID})
	if err != nil {
		return models.Message{}, fmt.Errorf("check room: %w", err)
	}
	if count == 0 {
		return models.Message{}, chat.ErrRoomNotFound
	}

	msg := models.Message{
		ID:         primitive.NewObjectID(),
		RoomID:     roomID,
		SenderID:   senderID,
		SenderName: senderName,
		Text:       text,
		CreatedAt:  time.Now().UTC().Truncate(time.Millisecond), // BSON datetime 為毫秒精度
	}
	if _, err := s.messages.InsertOne(ctx, msg); err != nil {
		return models.Message{}, fmt.Errorf("insert message: %w", err)
	}
	return msg, nil
}

// ListMessages 依建立時間由舊到新返回聊天室的全部訊息
func (s *MessageStore) ListMessages(ctx context.Context, roomID primitive.ObjectID) ([]models.Message, error) {
	count, err := s.rooms.CountDocuments(ctx, bson.M{"_id": roomID})
	if err != nil {
		return nil, fmt.Errorf("check room: %w", err)
	}
	if count == 0 {
		return nil, chat.ErrRoomNotFound
	}

	// 同一毫秒的訊息以 _id 作決勝（ObjectID 內含遞增序），排序才穩定
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.messages.Find(ctx, bson.M{"roomId": roomID}, findOptions)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer cursor.Close(ctx)

	messages := []models.Message{}
	if err = cursor.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("decode messages: %w", err)
	}
	return messages, nil
}

var _ chat.MessageStore = (*MessageStore)(nil)
var _ chat.RoomDirectory = (*RoomDirectory)(nil)

// CountMessages 統計某聊天室的訊息筆數，供測試與除錯使用
func (s *MessageStore) CountMessages(ctx context.Context, roomID primitive.ObjectID) (int64, error) {
	return s.messages.CountDocuments(ctx, bson.M{"roomId": roomID})
}
