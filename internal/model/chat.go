package model

import "time"

// 消息角色
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// 消息类型
const (
	KindText             = "text"
	KindImage            = "image"
	KindDocument         = "document"
	KindImageDescription = "image-description"
)

// ChatSession 聊天会话
type ChatSession struct {
	ID           string        `json:"chatId" gorm:"primaryKey;size:64"`
	UserID       string        `json:"userId" gorm:"index;size:64"`
	Title        string        `json:"title" gorm:"size:64"`
	LastUsedAt   time.Time     `json:"lastUsedAt" gorm:"index"`
	ActiveFileID string        `json:"activeFileId,omitempty" gorm:"size:36"`
	CreatedAt    time.Time     `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt    time.Time     `json:"updatedAt" gorm:"autoUpdateTime"`
	Messages     []ChatMessage `json:"-" gorm:"foreignKey:SessionID"`
}

// ChatMessage 聊天消息，只追加不修改
// 历史顺序按 created_at 排序，时间相同时按 seq（插入顺序）排序
type ChatMessage struct {
	ID              string    `json:"id" gorm:"primaryKey;size:36"`
	SessionID       string    `json:"chatId" gorm:"index;size:64"`
	Role            string    `json:"role" gorm:"size:20"` // user, assistant, system
	Kind            string    `json:"type" gorm:"size:20;default:text"`
	Content         string    `json:"content" gorm:"type:text"`
	ImageData       string    `json:"imageData,omitempty" gorm:"type:text"`
	DocumentText    string    `json:"documentText,omitempty" gorm:"type:text"`
	DocumentSummary string    `json:"documentSummary,omitempty" gorm:"type:text"`
	Seq             int64     `json:"-" gorm:"autoIncrement;uniqueIndex"`
	CreatedAt       time.Time `json:"createdAt" gorm:"autoCreateTime;index"`
}

// TableName 指定表名
func (ChatSession) TableName() string {
	return "chat_sessions"
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}
