package model

import "time"

// StoredFile 会话上传的附件文件
// created_at 上有索引，定期清理按时间扫描
type StoredFile struct {
	ID          string    `json:"id" gorm:"primaryKey;size:36"`
	SessionID   string    `json:"chatId" gorm:"index;size:64"`
	FileName    string    `json:"fileName"`
	ContentType string    `json:"contentType"`
	FilePath    string    `json:"filePath"` // 存储相对路径
	CreatedAt   time.Time `json:"createdAt" gorm:"autoCreateTime;index"`
}

// TableName 指定表名
func (StoredFile) TableName() string {
	return "stored_files"
}
