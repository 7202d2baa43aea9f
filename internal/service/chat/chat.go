// Package chat 实现会话、消息日志与上下文组装
package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/ashwinyue/chat-relay/internal/config"
	"github.com/ashwinyue/chat-relay/internal/model"
	"github.com/ashwinyue/chat-relay/internal/service/retrieval"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
)

var (
	// ErrSessionNotFound 会话不存在或不属于该用户
	ErrSessionNotFound = errors.New("session not found")
)

// Repository 会话与消息的数据访问接口
type Repository interface {
	CreateSession(session *model.ChatSession) error
	GetSessionByID(id string) (*model.ChatSession, error)
	ListSessionsByUser(userID string) ([]*model.ChatSession, error)
	TouchSession(id string, t time.Time) error
	SetActiveFile(id, fileID string) error
	DeleteSession(id string) error
	DeleteSessionsByUser(userID string) error
	CreateMessage(msg *model.ChatMessage) error
	GetMessagesBySessionID(sessionID string) ([]*model.ChatMessage, error)
	GetRecentMessages(sessionID string, limit int) ([]*model.ChatMessage, error)
	GetLatestMessageByKind(sessionID, kind string) (*model.ChatMessage, error)
}

// Completer 补全网关接口
type Completer interface {
	Complete(ctx context.Context, messages []*schema.Message) (string, error)
}

// FileCleaner 附件清理接口
type FileCleaner interface {
	DeleteBySession(ctx context.Context, sessionID string) error
	DeleteByUser(ctx context.Context, userID string) error
}

// Service 聊天服务
type Service struct {
	repo      Repository
	gateway   Completer
	files     FileCleaner
	state     *ContextState
	assembler *Assembler
	cfg       config.ChatConfig
}

// NewService 创建聊天服务
func NewService(repo Repository, gateway Completer, files FileCleaner, state *ContextState, retriever retrieval.Retriever, cfg config.ChatConfig) *Service {
	return &Service{
		repo:      repo,
		gateway:   gateway,
		files:     files,
		state:     state,
		assembler: NewAssembler(repo, state, retriever, cfg),
		cfg:       cfg,
	}
}

// SendMessageRequest 发送消息请求
type SendMessageRequest struct {
	UserID  string `json:"userId" binding:"required"`
	Message string `json:"message" binding:"required"`
	ChatID  string `json:"chatId"`
}

// SendMessageResult 发送消息结果
type SendMessageResult struct {
	Reply  string `json:"reply"`
	ChatID string `json:"chatId"`
}

// SendMessage 处理一轮对话：落消息、组装上下文、调用补全、落回复
func (s *Service) SendMessage(ctx context.Context, req *SendMessageRequest) (*SendMessageResult, error) {
	session, err := s.EnsureSession(ctx, req.UserID, req.ChatID, req.Message)
	if err != nil {
		return nil, err
	}

	reply, err := s.RunTurn(ctx, session, req.Message)
	if err != nil {
		return nil, err
	}

	return &SendMessageResult{Reply: reply, ChatID: session.ID}, nil
}

// RunTurn 在已解析的会话上执行一轮对话
// 用户消息先于补全调用持久化；补全失败时已落的消息保留，不回滚
func (s *Service) RunTurn(ctx context.Context, session *model.ChatSession, text string) (string, error) {
	userMsg := &model.ChatMessage{
		ID:        uuid.New().String(),
		SessionID: session.ID,
		Role:      model.RoleUser,
		Kind:      model.KindText,
		Content:   text,
	}
	if err := s.repo.CreateMessage(userMsg); err != nil {
		return "", fmt.Errorf("failed to create message: %w", err)
	}
	s.touch(session.ID)

	messages, err := s.assembler.Assemble(ctx, session, userMsg)
	if err != nil {
		return "", err
	}

	reply, err := s.gateway.Complete(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("completion failed: %w", err)
	}

	assistantMsg := &model.ChatMessage{
		ID:        uuid.New().String(),
		SessionID: session.ID,
		Role:      model.RoleAssistant,
		Kind:      model.KindText,
		Content:   reply,
	}
	if err := s.repo.CreateMessage(assistantMsg); err != nil {
		return "", fmt.Errorf("failed to create reply message: %w", err)
	}

	return reply, nil
}

// EnsureSession 解析会话；chatId 为空或未知时新建
// 属于其他用户的会话同样按未知处理
func (s *Service) EnsureSession(ctx context.Context, userID, chatID, seedText string) (*model.ChatSession, error) {
	if chatID != "" {
		session, err := s.repo.GetSessionByID(chatID)
		if err == nil && session.UserID == userID {
			return session, nil
		}
	}

	session := &model.ChatSession{
		ID:         newSessionID(),
		UserID:     userID,
		Title:      GenerateTitle(seedText, s.cfg.TitleLimit),
		LastUsedAt: time.Now(),
	}
	if err := s.repo.CreateSession(session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

// SaveMessage 持久化一条消息并刷新会话活动时间
// 上传流程用它落图片、文档与描述消息
func (s *Service) SaveMessage(ctx context.Context, msg *model.ChatMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if err := s.repo.CreateMessage(msg); err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	s.touch(msg.SessionID)
	return nil
}

// SetActiveFile 把附件标记为会话当前活跃附件
func (s *Service) SetActiveFile(ctx context.Context, sessionID, fileID string) error {
	return s.repo.SetActiveFile(sessionID, fileID)
}

// RecordImage 把最近一次图片描述写入派生上下文投影
// 先取当前投影（缓存或消息日志），只覆盖图片字段后写回，文档工件保留
func (s *Service) RecordImage(ctx context.Context, sessionID, description string) {
	p := s.assembler.projection(ctx, sessionID)
	p.ImageDescription = description
	s.state.Set(ctx, sessionID, p)
}

// RecordDocument 把最近一次文档文本与可选摘要写入派生上下文投影
// 图片描述保留，规则与 RecordImage 对称
func (s *Service) RecordDocument(ctx context.Context, sessionID, text, summary string) {
	p := s.assembler.projection(ctx, sessionID)
	p.DocumentText = text
	p.DocumentSummary = summary
	s.state.Set(ctx, sessionID, p)
}

// History 获取会话全部消息，未知会话返回空列表
func (s *Service) History(ctx context.Context, chatID string) ([]*model.ChatMessage, error) {
	messages, err := s.repo.GetMessagesBySessionID(chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	if messages == nil {
		messages = []*model.ChatMessage{}
	}
	return messages, nil
}

// ChatSummary 会话摘要
type ChatSummary struct {
	ChatID     string    `json:"chatId"`
	Title      string    `json:"title"`
	LastUsedAt time.Time `json:"lastUsedAt"`
}

// ListChats 列出用户会话，按最近活动排序
func (s *Service) ListChats(ctx context.Context, userID string) ([]*ChatSummary, error) {
	sessions, err := s.repo.ListSessionsByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	summaries := make([]*ChatSummary, 0, len(sessions))
	for _, sess := range sessions {
		summaries = append(summaries, &ChatSummary{
			ChatID:     sess.ID,
			Title:      sess.Title,
			LastUsedAt: sess.LastUsedAt,
		})
	}
	return summaries, nil
}

// Reset 删除用户的所有会话、消息与附件
// 附件磁盘清理是尽力而为，失败不阻断记录删除
func (s *Service) Reset(ctx context.Context, userID string) error {
	sessions, err := s.repo.ListSessionsByUser(userID)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	if s.files != nil {
		if err := s.files.DeleteByUser(ctx, userID); err != nil {
			log.Printf("Warning: failed to delete files for user %s: %v", userID, err)
		}
	}

	if err := s.repo.DeleteSessionsByUser(userID); err != nil {
		return fmt.Errorf("failed to delete sessions: %w", err)
	}

	for _, sess := range sessions {
		s.state.Clear(ctx, sess.ID)
	}
	return nil
}

// DeleteChat 删除一个会话及其消息与附件
func (s *Service) DeleteChat(ctx context.Context, userID, chatID string) error {
	session, err := s.repo.GetSessionByID(chatID)
	if err != nil || session.UserID != userID {
		return ErrSessionNotFound
	}

	if s.files != nil {
		if err := s.files.DeleteBySession(ctx, chatID); err != nil {
			log.Printf("Warning: failed to delete files for session %s: %v", chatID, err)
		}
	}

	if err := s.repo.DeleteSession(chatID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	s.state.Clear(ctx, chatID)
	return nil
}

// touch 刷新会话活动时间，失败只记录日志
func (s *Service) touch(sessionID string) {
	if err := s.repo.TouchSession(sessionID, time.Now()); err != nil {
		log.Printf("Warning: failed to touch session %s: %v", sessionID, err)
	}
}

// newSessionID 生成时间前缀的不透明会话ID
func newSessionID() string {
	return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), uuid.New().String()[:8])
}
