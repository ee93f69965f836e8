package cache

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// onlineTTL 上線標記的存活時間，由 WebSocket 的 ping 週期負責續期
// 行程異常結束時標記會自行過期，不會留下永遠在線的幽靈使用者
const onlineTTL = 60 * time.Second

// Presence 以 Redis 記錄目前持有存活 WebSocket 連線的使用者
// 這是展示用的快取，與持久層的 User.RoomID（目前所在聊天室）是兩回事
type Presence struct {
	rdb *redis.Client
}

// NewPresence 建立 Redis 連線並返回 Presence 實例
func NewPresence(addr string) (*Presence, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	log.Println("Connected to Redis successfully!")
	return &Presence{rdb: rdb}, nil
}

func onlineKey(userID primitive.ObjectID) string {
	return "online:" + userID.Hex()
}

// MarkOnline 標記使用者在線；重複呼叫會續期
func (p *Presence) MarkOnline(ctx context.Context, userID primitive.ObjectID) error {
	return p.rdb.Set(ctx, onlineKey(userID), "1", onlineTTL).Err()
}

// MarkOffline 移除使用者的在線標記
func (p *Presence) MarkOffline(ctx context.Context, userID primitive.ObjectID) error {
	return p.rdb.Del(ctx, onlineKey(userID)).Err()
}

// OnlineSet 一次查詢多個使用者的在線狀態
func (p *Presence) OnlineSet(ctx context.Context, userIDs []primitive.ObjectID) (map[primitive.ObjectID]bool, error) {
	online := make(map[primitive.ObjectID]bool, len(userIDs))
	if len(userIDs) == 0 {
		return online, nil
	}

	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, onlineKey(id))
	}

	values, err := p.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	for i, v := range values {
		online[userIDs[i]] = v != nil
	}
	return online, nil
}

// Close 關閉 Redis 連線
func (p *Presence) Close() {
	if err := p.rdb.Close(); err != nil {
		log.Printf("Error closing Redis connection: %v", err)
	}
}
