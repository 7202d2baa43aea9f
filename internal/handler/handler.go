package handler

import (
	"github.com/ashwinyue/chat-relay/internal/service"
)

// Handlers 处理器集合
type Handlers struct {
	Chat   *ChatHandler
	Upload *UploadHandler
}

// NewHandlers 创建所有处理器
func NewHandlers(svc *service.Services) *Handlers {
	return &Handlers{
		Chat:   NewChatHandler(svc),
		Upload: NewUploadHandler(svc),
	}
}
