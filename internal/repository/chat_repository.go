package repository

import (
	"time"

	"github.com/ashwinyue/chat-relay/internal/model"
	"gorm.io/gorm"
)

// ChatRepository 聊天数据访问
type ChatRepository struct {
	db *gorm.DB
}

// NewChatRepository 创建聊天仓库
func NewChatRepository(db *gorm.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

// CreateSession 创建会话
func (r *ChatRepository) CreateSession(session *model.ChatSession) error {
	return r.db.Create(session).Error
}

// GetSessionByID 获取会话
func (r *ChatRepository) GetSessionByID(id string) (*model.ChatSession, error) {
	var session model.ChatSession
	err := r.db.Where("id = ?", id).First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// ListSessionsByUser 列出用户会话，按最近活动排序
func (r *ChatRepository) ListSessionsByUser(userID string) ([]*model.ChatSession, error) {
	var sessions []*model.ChatSession
	err := r.db.Where("user_id = ?", userID).
		Order("last_used_at DESC").
		Find(&sessions).Error
	return sessions, err
}

// TouchSession 更新会话最近活动时间
func (r *ChatRepository) TouchSession(id string, t time.Time) error {
	return r.db.Model(&model.ChatSession{}).Where("id = ?", id).
		Update("last_used_at", t).Error
}

// SetActiveFile 设置会话当前活跃附件
func (r *ChatRepository) SetActiveFile(id, fileID string) error {
	return r.db.Model(&model.ChatSession{}).Where("id = ?", id).
		Update("active_file_id", fileID).Error
}

// DeleteSession 删除会话及其消息和附件记录
func (r *ChatRepository) DeleteSession(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&model.ChatMessage{}, "session_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&model.StoredFile{}, "session_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&model.ChatSession{}, "id = ?", id).Error
	})
}

// DeleteSessionsByUser 删除用户的所有会话及其消息和附件记录
func (r *ChatRepository) DeleteSessionsByUser(userID string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var ids []string
		if err := tx.Model(&model.ChatSession{}).Where("user_id = ?", userID).
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		if err := tx.Delete(&model.ChatMessage{}, "session_id IN ?", ids).Error; err != nil {
			return err
		}
		if err := tx.Delete(&model.StoredFile{}, "session_id IN ?", ids).Error; err != nil {
			return err
		}
		return tx.Delete(&model.ChatSession{}, "user_id = ?", userID).Error
	})
}

// CreateMessage 创建消息
func (r *ChatRepository) CreateMessage(msg *model.ChatMessage) error {
	return r.db.Create(msg).Error
}

// GetMessagesBySessionID 获取会话全部消息，按创建时间升序，时间相同按插入顺序
func (r *ChatRepository) GetMessagesBySessionID(sessionID string) ([]*model.ChatMessage, error) {
	var messages []*model.ChatMessage
	err := r.db.Where("session_id = ?", sessionID).
		Order("created_at ASC, seq ASC").
		Find(&messages).Error
	return messages, err
}

// GetRecentMessages 获取会话最近的 N 条消息，返回为倒序（最新在前）
func (r *ChatRepository) GetRecentMessages(sessionID string, limit int) ([]*model.ChatMessage, error) {
	var messages []*model.ChatMessage
	err := r.db.Where("session_id = ?", sessionID).
		Order("created_at DESC, seq DESC").
		Limit(limit).
		Find(&messages).Error
	return messages, err
}

// GetLatestMessageByKind 获取会话中指定类型的最新一条消息
func (r *ChatRepository) GetLatestMessageByKind(sessionID, kind string) (*model.ChatMessage, error) {
	var message model.ChatMessage
	err := r.db.Where("session_id = ? AND kind = ?", sessionID, kind).
		Order("created_at DESC, seq DESC").
		First(&message).Error
	if err != nil {
		return nil, err
	}
	return &message, nil
}
