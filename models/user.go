package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RegisterRequest 結構體用於處理註冊請求
type RegisterRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// LoginRequest 結構體用於處理登入請求
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ErrorResponse 結構體用於返回 JSON 格式的錯誤訊息
type ErrorResponse struct {
	Message string `json:"message"`
}

// User 結構體定義了使用者資料的欄位
// RoomID 是使用者目前所在的聊天室（可為空）；只有 presence coordinator 會寫入此欄位
type User struct {
	ID       primitive.ObjectID  `bson:"_id,omitempty" json:"id,omitempty"` // MongoDB 的唯一 ID
	Email    string              `bson:"email" json:"email"`                // 使用者 Email（唯一索引）
	Name     string              `bson:"name" json:"name"`                  // 顯示名稱
	Password string              `bson:"password,omitempty" json:"-"`       // 儲存哈希後的密碼，JSON 輸出時忽略
	RoomID   *primitive.ObjectID `bson:"roomId,omitempty" json:"roomId,omitempty"`
	Online   bool                `bson:"-" json:"online"` // 是否持有存活的 WebSocket 連線，由 Redis 快取提供
}

// Identity 代表已驗證的呼叫者身分，由 JWT middleware 解析後放入 context
// 訊息的發送者名稱一律取自這裡，不信任客戶端自行宣告的名稱
type Identity struct {
	ID   primitive.ObjectID
	Name string
}
