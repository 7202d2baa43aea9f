// Package retrieval 提供基于关键词重叠的文档片段检索
package retrieval

import (
	"context"
	"sort"
	"strings"
	"unicode/utf8"
)

// Chunk 一个候选文档片段及其得分
type Chunk struct {
	Text  string `json:"text"`
	Score int    `json:"score"`
}

// Config 检索配置
type Config struct {
	ChunkSize   int // 分块窗口大小（字符）
	TopK        int // 保留的最高分块数
	MinTokenLen int // 小于等于该长度的查询词丢弃
}

// DefaultConfig 默认检索配置
func DefaultConfig() Config {
	return Config{ChunkSize: 800, TopK: 3, MinTokenLen: 3}
}

// Retriever 检索接口，便于替换为索引或向量检索实现
type Retriever interface {
	Retrieve(ctx context.Context, documentText, query string) []Chunk
}

// KeywordRetriever 关键词重叠检索器
// 纯词法检索：查询词小写后在小写的分块里做子串匹配计数，
// 不做分词边界判断，"cat" 会命中 "category"
type KeywordRetriever struct {
	cfg Config
}

// NewKeywordRetriever 创建关键词检索器
func NewKeywordRetriever(cfg Config) *KeywordRetriever {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 800
	}
	if cfg.TopK <= 0 {
		cfg.TopK = 3
	}
	if cfg.MinTokenLen <= 0 {
		cfg.MinTokenLen = 3
	}
	return &KeywordRetriever{cfg: cfg}
}

// Retrieve 对文档全文打分，返回得分最高的前 TopK 个片段
// 没有任何片段得分为正时返回空列表，调用方应跳过注入
func (r *KeywordRetriever) Retrieve(_ context.Context, documentText, query string) []Chunk {
	tokens := queryTokens(query, r.cfg.MinTokenLen)
	if len(tokens) == 0 || documentText == "" {
		return nil
	}

	windows := splitWindows(documentText, r.cfg.ChunkSize)
	scored := make([]Chunk, 0, len(windows))
	for _, w := range windows {
		lower := strings.ToLower(w)
		score := 0
		for _, tok := range tokens {
			if strings.Contains(lower, tok) {
				score++
			}
		}
		if score > 0 {
			scored = append(scored, Chunk{Text: w, Score: score})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > r.cfg.TopK {
		scored = scored[:r.cfg.TopK]
	}
	return scored
}

// queryTokens 按空白切分查询并小写化，丢弃过短的词
func queryTokens(query string, minLen int) []string {
	fields := strings.Fields(strings.ToLower(query))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if utf8.RuneCountInString(f) > minLen {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// splitWindows 把文本切成连续不重叠的固定大小窗口
func splitWindows(text string, size int) []string {
	runes := []rune(text)
	windows := make([]string, 0, len(runes)/size+1)
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		windows = append(windows, string(runes[start:end]))
	}
	return windows
}
