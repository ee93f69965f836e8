package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go-roomchat/backend/chat"
	"go-roomchat/backend/eventbus"
	"go-roomchat/backend/handlers"
	"go-roomchat/backend/mocks"
	"go-roomchat/backend/models"
	"go-roomchat/backend/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/mock/gomock"
)

// withIdentity 模擬 JWT middleware：把固定身分放進請求 context
func withIdentity(r *http.Request, identity models.Identity) *http.Request {
	ctx := context.WithValue(r.Context(), utils.IdentityKey, identity)
	return r.WithContext(ctx)
}

func TestSendMessageReturnsPersistedEcho(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockMessageStore(ctrl)
	bus := eventbus.New()
	handler := handlers.NewMessageHandler(chat.NewDistributor(store, bus))

	sender := models.Identity{ID: primitive.NewObjectID(), Name: "alice"}
	roomID := primitive.NewObjectID()
	stored := models.Message{
		ID:         primitive.NewObjectID(),
		RoomID:     roomID,
		SenderID:   sender.ID,
		SenderName: "alice",
		Text:       "hi",
		CreatedAt:  time.Now().UTC().Truncate(time.Millisecond),
	}
	// 發送者名稱必須來自已驗證的身分，請求體裡沒有名稱欄位
	store.EXPECT().
		AppendMessage(gomock.Any(), roomID, sender.ID, "alice", "hi").
		Return(stored, nil)

	body := `{"roomId":"` + roomID.Hex() + `","text":"hi"}`
	req := withIdentity(httptest.NewRequest("POST", "/messages", strings.NewReader(body)), sender)
	rec := httptest.NewRecorder()

	handler.SendMessage(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var got models.Message
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, stored.ID, got.ID)
	assert.Equal(t, "alice", got.SenderName)
	// JSON 往返後時間戳不能失真
	assert.True(t, stored.CreatedAt.Equal(got.CreatedAt))
}

func TestSendMessageEmptyTextIsBadRequest(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockMessageStore(ctrl)
	bus := eventbus.New()
	handler := handlers.NewMessageHandler(chat.NewDistributor(store, bus))

	sender := models.Identity{ID: primitive.NewObjectID(), Name: "alice"}
	roomID := primitive.NewObjectID()
	store.EXPECT().
		AppendMessage(gomock.Any(), roomID, sender.ID, "alice", "").
		Return(models.Message{}, chat.ErrEmptyMessage)

	published := 0
	bus.Subscribe(eventbus.MessageSent, func(payload any) { published++ })

	body := `{"roomId":"` + roomID.Hex() + `","text":""}`
	req := withIdentity(httptest.NewRequest("POST", "/messages", strings.NewReader(body)), sender)
	rec := httptest.NewRecorder()

	handler.SendMessage(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, published, "驗證失敗時不應發佈事件")
}

func TestSendMessageUnknownRoomIsNotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockMessageStore(ctrl)
	bus := eventbus.New()
	handler := handlers.NewMessageHandler(chat.NewDistributor(store, bus))

	sender := models.Identity{ID: primitive.NewObjectID(), Name: "alice"}
	roomID := primitive.NewObjectID()
	store.EXPECT().
		AppendMessage(gomock.Any(), roomID, sender.ID, "alice", "hi").
		Return(models.Message{}, chat.ErrRoomNotFound)

	body := `{"roomId":"` + roomID.Hex() + `","text":"hi"}`
	req := withIdentity(httptest.NewRequest("POST", "/messages", strings.NewReader(body)), sender)
	rec := httptest.NewRecorder()

	handler.SendMessage(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSendMessageWithoutIdentityIsUnauthorized(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockMessageStore(ctrl)
	handler := handlers.NewMessageHandler(chat.NewDistributor(store, eventbus.New()))

	body := `{"roomId":"` + primitive.NewObjectID().Hex() + `","text":"hi"}`
	req := httptest.NewRequest("POST", "/messages", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler.SendMessage(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListMessagesRequiresRoomID(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockMessageStore(ctrl)
	handler := handlers.NewMessageHandler(chat.NewDistributor(store, eventbus.New()))

	req := httptest.NewRequest("GET", "/messages", nil)
	rec := httptest.NewRecorder()

	handler.ListMessages(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListMessagesReturnsHistoryInOrder(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockMessageStore(ctrl)
	handler := handlers.NewMessageHandler(chat.NewDistributor(store, eventbus.New()))

	roomID := primitive.NewObjectID()
	history := []models.Message{
		{ID: primitive.NewObjectID(), RoomID: roomID, Text: "first"},
		{ID: primitive.NewObjectID(), RoomID: roomID, Text: "second"},
	}
	store.EXPECT().ListMessages(gomock.Any(), roomID).Return(history, nil)

	req := httptest.NewRequest("GET", "/messages?roomId="+roomID.Hex(), nil)
	rec := httptest.NewRecorder()

	handler.ListMessages(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got []models.Message
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "first", got[0].Text)
	assert.Equal(t, "second", got[1].Text)
}
