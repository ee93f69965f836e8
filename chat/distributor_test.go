package chat_test

import (
	"context"
	"testing"
	"time"

	"go-roomchat/backend/chat"
	"go-roomchat/backend/eventbus"
	"go-roomchat/backend/mocks"
	"go-roomchat/backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/mock/gomock"
)

func TestSendMessagePersistsOnceAndPublishesOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockMessageStore(ctrl)
	bus := eventbus.New()
	distributor := chat.NewDistributor(store, bus)

	sender := models.Identity{ID: primitive.NewObjectID(), Name: "alice"}
	roomID := primitive.NewObjectID()
	stored := models.Message{
		ID:         primitive.NewObjectID(),
		RoomID:     roomID,
		SenderID:   sender.ID,
		SenderName: sender.Name,
		Text:       "hi",
		CreatedAt:  time.Now().UTC(),
	}

	// 恰好持久化一次
	store.EXPECT().
		AppendMessage(gomock.Any(), roomID, sender.ID, "alice", "hi").
		Return(stored, nil).
		Times(1)

	var published []models.Message
	bus.Subscribe(eventbus.MessageSent, func(payload any) {
		published = append(published, payload.(models.Message))
	})

	msg, err := distributor.SendMessage(context.Background(), sender, roomID, "hi")

	require.NoError(t, err)
	assert.Equal(t, stored, msg, "返回值應是持久化後的紀錄")

	// 恰好發佈一次，而且酬載和持久化的紀錄一致
	require.Len(t, published, 1, "應恰好發佈一次 MESSAGE_SENT")
	assert.Equal(t, stored.ID, published[0].ID)
	assert.Equal(t, "hi", published[0].Text)
	assert.Equal(t, "alice", published[0].SenderName)
	assert.Equal(t, stored.CreatedAt, published[0].CreatedAt)
}

func TestSendMessageEmptyTextNeverPublishes(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockMessageStore(ctrl)
	bus := eventbus.New()
	distributor := chat.NewDistributor(store, bus)

	sender := models.Identity{ID: primitive.NewObjectID(), Name: "alice"}
	roomID := primitive.NewObjectID()

	store.EXPECT().
		AppendMessage(gomock.Any(), roomID, sender.ID, "alice", "").
		Return(models.Message{}, chat.ErrEmptyMessage)

	published := 0
	bus.Subscribe(eventbus.MessageSent, func(payload any) { published++ })

	_, err := distributor.SendMessage(context.Background(), sender, roomID, "")

	assert.ErrorIs(t, err, chat.ErrEmptyMessage)
	assert.Zero(t, published, "持久化失敗時不應發佈任何事件")
}

func TestSendMessageUnknownRoomNeverPublishes(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockMessageStore(ctrl)
	bus := eventbus.New()
	distributor := chat.NewDistributor(store, bus)

	sender := models.Identity{ID: primitive.NewObjectID(), Name: "alice"}
	roomID := primitive.NewObjectID()

	store.EXPECT().
		AppendMessage(gomock.Any(), roomID, sender.ID, "alice", "hi").
		Return(models.Message{}, chat.ErrRoomNotFound)

	published := 0
	bus.Subscribe(eventbus.MessageSent, func(payload any) { published++ })

	_, err := distributor.SendMessage(context.Background(), sender, roomID, "hi")

	assert.ErrorIs(t, err, chat.ErrRoomNotFound)
	assert.Zero(t, published)
}

func TestListMessagesIsPureReadPassthrough(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockMessageStore(ctrl)
	bus := eventbus.New()
	distributor := chat.NewDistributor(store, bus)

	roomID := primitive.NewObjectID()
	history := []models.Message{
		{ID: primitive.NewObjectID(), RoomID: roomID, Text: "first"},
		{ID: primitive.NewObjectID(), RoomID: roomID, Text: "second"},
	}
	store.EXPECT().ListMessages(gomock.Any(), roomID).Return(history, nil)

	published := 0
	bus.Subscribe(eventbus.MessageSent, func(payload any) { published++ })
	bus.Subscribe(eventbus.RoomEntered, func(payload any) { published++ })

	got, err := distributor.ListMessages(context.Background(), roomID)

	require.NoError(t, err)
	assert.Equal(t, history, got)
	assert.Zero(t, published, "讀取路徑不應有任何副作用")
}
