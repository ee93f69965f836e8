package chat

import (
	"context"

	"go-roomchat/backend/eventbus"
	"go-roomchat/backend/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Distributor 處理「發送訊息」的完整流程：
// 以已驗證的身分蓋上發送者資訊、先持久化、成功後才發佈 MESSAGE_SENT
type Distributor struct {
	store MessageStore
	bus   *eventbus.Bus
}

// NewDistributor 創建並返回一個新的 Distributor 實例
func NewDistributor(store MessageStore, bus *eventbus.Bus) *Distributor {
	return &Distributor{store: store, bus: bus}
}

// SendMessage 持久化一則新訊息並發佈到匯流排
// 發送者名稱取自 sender（已驗證的身分），不接受客戶端宣告的名稱
// 持久化失敗時直接返回錯誤，不會有任何部分發佈
// 返回儲存的紀錄供發送端作為權威回聲使用
func (d *Distributor) SendMessage(ctx context.Context, sender models.Identity, roomID primitive.ObjectID, text string) (models.Message, error) {
	msg, err := d.store.AppendMessage(ctx, roomID, sender.ID, sender.Name, text)
	if err != nil {
		return models.Message{}, err
	}
	d.bus.Publish(eventbus.MessageSent, msg)
	return msg, nil
}

// ListMessages 是對 Message Store 的純讀取轉發，沒有任何副作用
func (d *Distributor) ListMessages(ctx context.Context, roomID primitive.ObjectID) ([]models.Message, error) {
	return d.store.ListMessages(ctx, roomID)
}
