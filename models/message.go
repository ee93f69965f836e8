package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message 代表一個聊天訊息
// SenderName 是發送當下顯示名稱的快照，寫入後不再變動，
// 即使使用者之後改名，歷史訊息仍以當時的名稱呈現
type Message struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	RoomID     primitive.ObjectID `bson:"roomId" json:"roomId"`
	SenderID   primitive.ObjectID `bson:"senderId" json:"senderId"`
	SenderName string             `bson:"senderName" json:"senderName"`
	Text       string             `bson:"text" json:"text"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
}
