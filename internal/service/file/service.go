// Package file 提供附件文件的存取与过期清理
package file

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/ashwinyue/chat-relay/internal/model"
	"github.com/google/uuid"
)

// Repository 文件记录访问接口
type Repository interface {
	Create(file *model.StoredFile) error
	GetByID(id string) (*model.StoredFile, error)
	ListBySession(sessionID string) ([]*model.StoredFile, error)
	ListByUser(userID string) ([]*model.StoredFile, error)
	ListCreatedBefore(cutoff time.Time) ([]*model.StoredFile, error)
	Delete(id string) error
	DeleteBySession(sessionID string) error
}

// Service 文件服务
type Service struct {
	repo    Repository
	storage Storage
}

// NewService 创建文件服务
func NewService(repo Repository, storage Storage) *Service {
	return &Service{repo: repo, storage: storage}
}

// SaveFile 保存上传文件并登记记录
func (s *Service) SaveFile(ctx context.Context, req *SaveRequest) (*model.StoredFile, error) {
	filePath, err := s.storage.Save(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to save file: %w", err)
	}

	storedFile := &model.StoredFile{
		ID:          uuid.New().String(),
		SessionID:   req.SessionID,
		FileName:    req.FileName,
		ContentType: req.ContentType,
		FilePath:    filePath,
	}

	if err := s.repo.Create(storedFile); err != nil {
		// 数据库登记失败时回收已写入的文件
		_ = s.storage.Delete(ctx, filePath)
		return nil, fmt.Errorf("failed to save file record: %w", err)
	}

	return storedFile, nil
}

// GetFile 获取文件记录与内容
func (s *Service) GetFile(ctx context.Context, id string) (*model.StoredFile, io.ReadCloser, error) {
	storedFile, err := s.repo.GetByID(id)
	if err != nil {
		return nil, nil, fmt.Errorf("file not found: %w", err)
	}

	reader, err := s.storage.Get(ctx, storedFile.FilePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get file content: %w", err)
	}

	return storedFile, reader, nil
}

// GetURL 获取文件访问URL
func (s *Service) GetURL(filePath string) string {
	return s.storage.GetURL(filePath)
}

// DeleteBySession 删除会话的全部附件
// 磁盘删除失败只记录日志，不中断调用方的请求
func (s *Service) DeleteBySession(ctx context.Context, sessionID string) error {
	files, err := s.repo.ListBySession(sessionID)
	if err != nil {
		return fmt.Errorf("failed to list session files: %w", err)
	}

	for _, f := range files {
		if err := s.storage.Delete(ctx, f.FilePath); err != nil {
			log.Printf("Warning: failed to delete file %s: %v", f.FilePath, err)
		}
	}

	return s.repo.DeleteBySession(sessionID)
}

// DeleteByUser 删除用户所有会话的附件
func (s *Service) DeleteByUser(ctx context.Context, userID string) error {
	files, err := s.repo.ListByUser(userID)
	if err != nil {
		return fmt.Errorf("failed to list user files: %w", err)
	}

	for _, f := range files {
		if err := s.storage.Delete(ctx, f.FilePath); err != nil {
			log.Printf("Warning: failed to delete file %s: %v", f.FilePath, err)
		}
		if err := s.repo.Delete(f.ID); err != nil {
			log.Printf("Warning: failed to delete file record %s: %v", f.ID, err)
		}
	}

	return nil
}
