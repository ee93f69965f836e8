package chat

import (
	"context"

	"go-roomchat/backend/eventbus"
	"go-roomchat/backend/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Coordinator 處理「使用者進入聊天室」的請求：
// 驗證並更新 Room Directory，成功後在匯流排上發佈 ROOM_ENTERED
type Coordinator struct {
	directory RoomDirectory
	bus       *eventbus.Bus
}

// NewCoordinator 創建並返回一個新的 Coordinator 實例
func NewCoordinator(directory RoomDirectory, bus *eventbus.Bus) *Coordinator {
	return &Coordinator{directory: directory, bus: bus}
}

// EnterRoom 將使用者移入指定的聊天室
// 重複進入同一間在儲存上是冪等的（覆寫），但每次呼叫都會重新發佈事件，
// 訂閱端必須容忍重複的成員刷新通知
func (c *Coordinator) EnterRoom(ctx context.Context, userID, roomID primitive.ObjectID) error {
	if err := c.directory.SetUserRoom(ctx, userID, roomID); err != nil {
		return err
	}
	c.bus.Publish(eventbus.RoomEntered, models.RoomEntered{RoomID: roomID, UserID: userID})
	return nil
}
