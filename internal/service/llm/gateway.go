// Package llm 封装对补全模型的调用
// 模型本身是黑盒：消息列表进，文本出
package llm

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

const (
	defaultTimeout  = 60 * time.Second
	retryBackoff    = 500 * time.Millisecond
	summarizeCap    = 12000 // 送去摘要的文档字符上限
	summarizePrompt = "Summarize the following document in a concise paragraph. Keep the key facts, names and numbers."
)

// Gateway 补全网关
// 对外部 API 的调用带有单次超时和有限重试
type Gateway struct {
	chatModel   model.ChatModel
	visionModel model.ChatModel
	timeout     time.Duration
	maxRetries  int
}

// New 创建补全网关
func New(chatModel, visionModel model.ChatModel, timeout time.Duration, maxRetries int) *Gateway {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Gateway{
		chatModel:   chatModel,
		visionModel: visionModel,
		timeout:     timeout,
		maxRetries:  maxRetries,
	}
}

// Complete 发送消息列表并返回生成的回复文本
func (g *Gateway) Complete(ctx context.Context, messages []*schema.Message) (string, error) {
	if g.chatModel == nil {
		return "", fmt.Errorf("chat model not configured")
	}
	return g.generate(ctx, g.chatModel, messages)
}

// DescribeImage 通过视觉模型生成图片的文字描述
// imageURL 为 data URL（base64 内联）或可访问的图片地址
func (g *Gateway) DescribeImage(ctx context.Context, imageURL, prompt string) (string, error) {
	visionModel := g.visionModel
	if visionModel == nil {
		visionModel = g.chatModel
	}
	if visionModel == nil {
		return "", fmt.Errorf("vision model not configured")
	}
	if prompt == "" {
		prompt = "Describe this image in detail."
	}

	messages := []*schema.Message{
		{
			Role: schema.User,
			MultiContent: []schema.ChatMessagePart{
				{Type: schema.ChatMessagePartTypeText, Text: prompt},
				{
					Type: schema.ChatMessagePartTypeImageURL,
					ImageURL: &schema.ChatMessageImageURL{
						URL:    imageURL,
						Detail: schema.ImageURLDetailAuto,
					},
				},
			},
		},
	}

	return g.generate(ctx, visionModel, messages)
}

// Summarize 生成文档摘要
func (g *Gateway) Summarize(ctx context.Context, text string) (string, error) {
	if g.chatModel == nil {
		return "", fmt.Errorf("chat model not configured")
	}

	runes := []rune(text)
	if len(runes) > summarizeCap {
		text = string(runes[:summarizeCap])
	}

	messages := []*schema.Message{
		{Role: schema.System, Content: summarizePrompt},
		{Role: schema.User, Content: text},
	}
	return g.generate(ctx, g.chatModel, messages)
}

// generate 调用模型，失败时做有限重试
func (g *Gateway) generate(ctx context.Context, m model.ChatModel, messages []*schema.Message) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Duration(attempt) * retryBackoff):
			}
			log.Printf("completion retry %d after error: %v", attempt, lastErr)
		}

		attemptCtx, cancel := context.WithTimeout(ctx, g.timeout)
		resp, err := m.Generate(attemptCtx, messages)
		cancel()
		if err != nil {
			lastErr = err
			continue
		}
		return resp.Content, nil
	}
	return "", fmt.Errorf("completion failed after %d attempts: %w", g.maxRetries+1, lastErr)
}
