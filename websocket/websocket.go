package websocket

import (
	"context"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"go-roomchat/backend/eventbus"
	"go-roomchat/backend/models"
	"go-roomchat/backend/utils"

	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PresenceMarker 標記使用者的在線狀態，由 cache.Presence 實作
type PresenceMarker interface {
	MarkOnline(ctx context.Context, userID primitive.ObjectID) error
	MarkOffline(ctx context.Context, userID primitive.ObjectID) error
}

const (
	// 將訊息寫入到遠端對等點的最長時間
	writeWait = 10 * time.Second

	// 允許從遠端對等點讀取下一個 pong 訊息的最長時間
	pongWait = 60 * time.Second

	// 發送 ping 訊息給遠端對等點的週期
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512

	// 推播通道的緩衝大小；緩衝滿了就丟棄該則推播（best-effort）
	sendBufferSize = 256
)

// upgrader 用於將 HTTP 連線升級為 WebSocket 連線
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// 設定true:允許所有來源的連線
		return true
	},
}

// Event 是推播給客戶端的事件封包
// Payload 內的 time.Time 以 RFC3339 序列化，日期在傳輸後仍是可解析的時間
type Event struct {
	Type    eventbus.Kind `json:"type"`
	Payload any           `json:"payload"`
}

// 每個連線的狀態機：CONNECTING → OPEN → CLOSED
// 只有 OPEN 狀態可以推播；CLOSED 是終態，沒有重連續傳，
// 重連的客戶端要自行透過 GET /messages 補齊歷史
const (
	stateConnecting int32 = iota
	stateOpen
	stateClosed
)

// Gateway 負責把事件匯流排上的發佈轉成對單一連線的推播
type Gateway struct {
	bus      *eventbus.Bus
	presence PresenceMarker
}

// NewGateway 創建並返回一個新的 Gateway 實例
func NewGateway(bus *eventbus.Bus, presence PresenceMarker) *Gateway {
	return &Gateway{bus: bus, presence: presence}
}

// Client 代表一個 WebSocket 客戶端連線
type Client struct {
	conn     *websocket.Conn
	identity models.Identity
	presence PresenceMarker

	send chan Event
	done chan struct{}

	state        atomic.Int32
	closeOnce    sync.Once
	unsubscribes []func()
}

// HandleConnection 處理 WebSocket 連線請求
// 建立連線後訂閱 MESSAGE_SENT 與 ROOM_ENTERED（整個行程範圍，不分聊天室，
// 依聊天室過濾交給客戶端），任何離開路徑都會恰好取消訂閱一次
func (g *Gateway) HandleConnection(w http.ResponseWriter, r *http.Request) {
	identity, err := utils.GetIdentityFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Failed to upgrade to WebSocket: %v", err)
		return
	}

	client := &Client{
		conn:     conn,
		identity: identity,
		presence: g.presence,
		send:     make(chan Event, sendBufferSize),
		done:     make(chan struct{}),
	}

	// 先訂閱、再切到 OPEN：enqueue 在 OPEN 之前收到的事件會被略過
	client.unsubscribes = []func(){
		g.bus.Subscribe(eventbus.MessageSent, client.enqueue(eventbus.MessageSent)),
		g.bus.Subscribe(eventbus.RoomEntered, client.enqueue(eventbus.RoomEntered)),
	}

	if err := g.presence.MarkOnline(r.Context(), identity.ID); err != nil {
		log.Printf("Error marking user %s online: %v", identity.ID.Hex(), err)
	}

	client.state.Store(stateOpen)
	log.Printf("Client %s connected", identity.ID.Hex())

	go client.writePump()
	client.readPump() // readPump 返回時連線已經關閉
}

// enqueue 返回對應事件種類的匯流排監聽者
// 監聽者只把事件放進緩衝通道，絕不在匯流排的派送路徑上做網路 I/O；
// 緩衝滿了就丟棄這一則（at-most-once），推播失敗由 writePump 處理
func (c *Client) enqueue(kind eventbus.Kind) eventbus.Listener {
	return func(payload any) {
		if c.state.Load() != stateOpen {
			// 已斷線但尚未取消訂閱完成的殘留呼叫，直接忽略
			return
		}
		select {
		case c.send <- Event{Type: kind, Payload: payload}:
		case <-c.done:
		default:
			log.Printf("Client %s send buffer full, dropping %s event", c.identity.ID.Hex(), kind)
		}
	}
}

// teardown 結束這個連線：轉入 CLOSED、取消訂閱、清掉在線標記
// 用 sync.Once 保證每條離開路徑（正常關閉、讀寫錯誤、逾時）都只執行一次
func (c *Client) teardown() {
	c.closeOnce.Do(func() {
		c.state.Store(stateClosed)
		for _, unsubscribe := range c.unsubscribes {
			unsubscribe()
		}
		close(c.done)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.presence.MarkOffline(ctx, c.identity.ID); err != nil {
			log.Printf("Error marking user %s offline: %v", c.identity.ID.Hex(), err)
		}

		c.conn.Close()
		log.Printf("Client %s disconnected", c.identity.ID.Hex())
	})
}

// readPump 維持讀取端：這個通道只做伺服器對客戶端的推播，
// 讀取端只用來回應 pong 與偵測斷線，收到的內容一律丟棄
func (c *Client) readPump() {
	defer c.teardown()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Println("Client disconnected gracefully.")
			} else {
				log.Printf("Error reading from client %s: %v", c.identity.ID.Hex(), err)
			}
			return
		}
	}
}

// writePump 擁有連線的寫入端：推播事件、定期 ping、續期在線標記
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.teardown()
	}()
	for {
		select {
		case event := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(event); err != nil {
				// 寫入失敗代表連線已不可用，結束連線即可，錯誤不回拋給匯流排
				log.Printf("Error writing to client %s: %v", c.identity.ID.Hex(), err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
			// 順便續期在線標記，讓標記在連線存活期間不會過期
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := c.presence.MarkOnline(ctx, c.identity.ID); err != nil {
				log.Printf("Error refreshing online mark for %s: %v", c.identity.ID.Hex(), err)
			}
			cancel()

		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}
