package repository

import (
	"time"

	"github.com/ashwinyue/chat-relay/internal/model"
	"gorm.io/gorm"
)

// FileRepository 附件文件仓库
type FileRepository struct {
	db *gorm.DB
}

// NewFileRepository 创建文件仓库
func NewFileRepository(db *gorm.DB) *FileRepository {
	return &FileRepository{db: db}
}

// Create 创建文件记录
func (r *FileRepository) Create(file *model.StoredFile) error {
	return r.db.Create(file).Error
}

// GetByID 根据ID获取文件
func (r *FileRepository) GetByID(id string) (*model.StoredFile, error) {
	var file model.StoredFile
	err := r.db.Where("id = ?", id).First(&file).Error
	if err != nil {
		return nil, err
	}
	return &file, nil
}

// ListBySession 列出会话的所有文件
func (r *FileRepository) ListBySession(sessionID string) ([]*model.StoredFile, error) {
	var files []*model.StoredFile
	err := r.db.Where("session_id = ?", sessionID).Find(&files).Error
	return files, err
}

// ListByUser 列出用户所有会话的文件
func (r *FileRepository) ListByUser(userID string) ([]*model.StoredFile, error) {
	var files []*model.StoredFile
	err := r.db.
		Joins("JOIN chat_sessions ON chat_sessions.id = stored_files.session_id").
		Where("chat_sessions.user_id = ?", userID).
		Find(&files).Error
	return files, err
}

// ListCreatedBefore 列出指定时间之前创建的文件，供过期清理使用
func (r *FileRepository) ListCreatedBefore(cutoff time.Time) ([]*model.StoredFile, error) {
	var files []*model.StoredFile
	err := r.db.Where("created_at < ?", cutoff).Find(&files).Error
	return files, err
}

// Delete 删除文件记录
func (r *FileRepository) Delete(id string) error {
	return r.db.Delete(&model.StoredFile{}, "id = ?", id).Error
}

// DeleteBySession 删除会话的所有文件记录
func (r *FileRepository) DeleteBySession(sessionID string) error {
	return r.db.Delete(&model.StoredFile{}, "session_id = ?", sessionID).Error
}
