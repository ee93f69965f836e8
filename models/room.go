package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Room 代表一個聊天室的元資料
// Members 不另外維護名單，而是查詢 roomId 等於此聊天室的使用者後即時組出的快照
type Room struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name      string             `bson:"name" json:"name"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	Members   []User             `bson:"-" json:"members,omitempty"`
}

// RoomEntered 是 ROOM_ENTERED 事件的酬載，通知各個連線刷新成員名單
type RoomEntered struct {
	RoomID primitive.ObjectID `json:"roomId"`
	UserID primitive.ObjectID `json:"userId"`
}
