package chat

import "errors"

// 核心的錯誤分類：驗證類錯誤同步返回給呼叫者，絕不發佈到事件匯流排
var (
	ErrRoomNotFound    = errors.New("room not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrMessageNotFound = errors.New("message not found")
	ErrEmptyMessage    = errors.New("message text is empty")
	ErrEmailTaken      = errors.New("email already registered")
	ErrUnauthorized    = errors.New("unauthorized")
)
