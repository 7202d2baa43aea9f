package handler

import (
	"errors"
	"strings"

	"github.com/ashwinyue/chat-relay/internal/service"
	"github.com/ashwinyue/chat-relay/internal/service/chat"
	"github.com/gin-gonic/gin"
)

// ChatHandler 聊天处理器
type ChatHandler struct {
	svc *service.Services
}

// NewChatHandler 创建聊天处理器
func NewChatHandler(svc *service.Services) *ChatHandler {
	return &ChatHandler{svc: svc}
}

// chatRequest /chat 请求体
type chatRequest struct {
	UserID  string `json:"userId"`
	Message string `json:"message"`
	ChatID  string `json:"chatId"`
}

// Chat 处理一轮对话
func (h *ChatHandler) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		badRequest(c, "userId is required")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		badRequest(c, "message is required")
		return
	}

	result, err := h.svc.Chat.SendMessage(c.Request.Context(), &chat.SendMessageRequest{
		UserID:  req.UserID,
		Message: req.Message,
		ChatID:  req.ChatID,
	})
	if err != nil {
		serverError(c, err)
		return
	}

	success(c, result)
}

// History 获取会话消息历史，未知会话返回空列表
func (h *ChatHandler) History(c *gin.Context) {
	chatID := c.Query("chatId")
	if chatID == "" {
		badRequest(c, "chatId is required")
		return
	}

	messages, err := h.svc.Chat.History(c.Request.Context(), chatID)
	if err != nil {
		serverError(c, err)
		return
	}

	success(c, gin.H{"messages": messages})
}

// ListChats 列出用户会话
func (h *ChatHandler) ListChats(c *gin.Context) {
	userID := c.Query("userId")
	if userID == "" {
		badRequest(c, "userId is required")
		return
	}

	chats, err := h.svc.Chat.ListChats(c.Request.Context(), userID)
	if err != nil {
		serverError(c, err)
		return
	}

	success(c, gin.H{"chats": chats})
}

// resetRequest /reset 请求体
type resetRequest struct {
	UserID string `json:"userId"`
}

// Reset 删除用户的所有会话、消息与附件
func (h *ChatHandler) Reset(c *gin.Context) {
	var req resetRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.UserID) == "" {
		badRequest(c, "userId is required")
		return
	}

	if err := h.svc.Chat.Reset(c.Request.Context(), req.UserID); err != nil {
		serverError(c, err)
		return
	}

	success(c, gin.H{"status": "reset"})
}

// deleteChatRequest /deleteChat 请求体
type deleteChatRequest struct {
	UserID string `json:"userId"`
	ChatID string `json:"chatId"`
}

// DeleteChat 删除一个会话
func (h *ChatHandler) DeleteChat(c *gin.Context) {
	var req deleteChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		badRequest(c, "userId is required")
		return
	}
	if strings.TrimSpace(req.ChatID) == "" {
		badRequest(c, "chatId is required")
		return
	}

	err := h.svc.Chat.DeleteChat(c.Request.Context(), req.UserID, req.ChatID)
	if err != nil {
		if errors.Is(err, chat.ErrSessionNotFound) {
			notFound(c, "chat not found")
			return
		}
		serverError(c, err)
		return
	}

	success(c, gin.H{"status": "deleted"})
}
