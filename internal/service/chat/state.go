package chat

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// 投影在 Redis 中的过期时间，与附件保留时长一致
	projectionTTL = 24 * time.Hour
	// Redis key 前缀
	projectionKeyPrefix = "chatctx:"
)

// Projection 会话的派生上下文投影
// 记录最近一次附件产生的工件，避免组装时反复扫描消息日志
// 图片与文档字段相互独立：新图片不清除文档工件，反之亦然
type Projection struct {
	ImageDescription string `json:"imageDescription,omitempty"`
	DocumentText     string `json:"documentText,omitempty"`
	DocumentSummary  string `json:"documentSummary,omitempty"`
}

// projectionStore ContextState 用到的 Redis 操作子集
type projectionStore interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// ContextState 派生上下文投影的 Redis 缓存
// 只是缓存：未命中时调用方回退到消息日志扫描，数据库始终是事实来源
type ContextState struct {
	redis projectionStore
}

// NewContextState 创建投影缓存
func NewContextState(redisClient *redis.Client) *ContextState {
	s := &ContextState{}
	if redisClient != nil {
		s.redis = redisClient
	}
	return s
}

// Get 读取会话投影，未配置 Redis 或未命中时返回 false
func (s *ContextState) Get(ctx context.Context, sessionID string) (*Projection, bool) {
	if s == nil || s.redis == nil {
		return nil, false
	}

	data, err := s.redis.Get(ctx, projectionKeyPrefix+sessionID).Result()
	if err != nil {
		return nil, false
	}

	var p Projection
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, false
	}
	return &p, true
}

// Set 写入会话的完整投影，失败只记录日志
// 调用方负责先合并当前投影，缓存命中与回退扫描必须给出同样的结果
func (s *ContextState) Set(ctx context.Context, sessionID string, p *Projection) {
	if s == nil || s.redis == nil {
		return
	}

	data, err := json.Marshal(p)
	if err != nil {
		log.Printf("Warning: failed to marshal context projection: %v", err)
		return
	}
	if err := s.redis.Set(ctx, projectionKeyPrefix+sessionID, data, projectionTTL).Err(); err != nil {
		log.Printf("Warning: failed to save context projection for %s: %v", sessionID, err)
	}
}

// Clear 删除会话投影
func (s *ContextState) Clear(ctx context.Context, sessionID string) {
	if s == nil || s.redis == nil {
		return
	}
	if err := s.redis.Del(ctx, projectionKeyPrefix+sessionID).Err(); err != nil {
		log.Printf("Warning: failed to clear context projection for %s: %v", sessionID, err)
	}
}
