package file

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Sweeper 周期清理过期附件
// 与正在进行的上传并发运行；删除一个正在写入的文件是已接受的风险，不做保护
type Sweeper struct {
	repo    Repository
	storage Storage
	maxAge  time.Duration
	cron    *cron.Cron
}

// NewSweeper 创建清理任务
func NewSweeper(repo Repository, storage Storage, maxAge time.Duration) *Sweeper {
	return &Sweeper{
		repo:    repo,
		storage: storage,
		maxAge:  maxAge,
		cron:    cron.New(),
	}
}

// Start 按给定的 cron 表达式启动清理
func (s *Sweeper) Start(schedule string) error {
	if _, err := s.cron.AddFunc(schedule, func() {
		s.Sweep(context.Background())
	}); err != nil {
		return err
	}
	s.cron.Start()
	log.Printf("File sweeper started, schedule=%s maxAge=%v", schedule, s.maxAge)
	return nil
}

// Stop 停止清理任务
func (s *Sweeper) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

// Sweep 执行一次清理，删除超过保留时长的附件
// 所有失败都记录日志后继续，清理永远不影响请求处理
func (s *Sweeper) Sweep(ctx context.Context) {
	cutoff := time.Now().Add(-s.maxAge)
	files, err := s.repo.ListCreatedBefore(cutoff)
	if err != nil {
		log.Printf("Warning: file sweep failed to list expired files: %v", err)
		return
	}
	if len(files) == 0 {
		return
	}

	removed := 0
	for _, f := range files {
		if err := s.storage.Delete(ctx, f.FilePath); err != nil {
			log.Printf("Warning: file sweep failed to delete %s: %v", f.FilePath, err)
		}
		if err := s.repo.Delete(f.ID); err != nil {
			log.Printf("Warning: file sweep failed to delete record %s: %v", f.ID, err)
			continue
		}
		removed++
	}

	log.Printf("File sweep removed %d expired files (cutoff %s)", removed, cutoff.Format(time.RFC3339))
}
