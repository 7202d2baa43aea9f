// Package upload 实现图片与文档上传流程
package upload

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log"
	"unicode/utf8"

	"github.com/ashwinyue/chat-relay/internal/config"
	"github.com/ashwinyue/chat-relay/internal/model"
	"github.com/ashwinyue/chat-relay/internal/service/chat"
	"github.com/ashwinyue/chat-relay/internal/service/file"
)

const describePrompt = "Describe this image in detail. Mention any visible text."

// Vision 视觉与摘要能力接口
type Vision interface {
	DescribeImage(ctx context.Context, imageURL, prompt string) (string, error)
	Summarize(ctx context.Context, text string) (string, error)
}

// TextExtractor 文档文本提取接口
type TextExtractor interface {
	ExtractText(ctx context.Context, fileName string, reader io.Reader) (string, error)
}

// Service 上传服务
type Service struct {
	chat      *chat.Service
	files     *file.Service
	gateway   Vision
	extractor TextExtractor
	cfg       config.ChatConfig
}

// NewService 创建上传服务
func NewService(chatSvc *chat.Service, files *file.Service, gateway Vision, extractor TextExtractor, cfg config.ChatConfig) *Service {
	return &Service{
		chat:      chatSvc,
		files:     files,
		gateway:   gateway,
		extractor: extractor,
		cfg:       cfg,
	}
}

// Request 上传请求
type Request struct {
	UserID      string
	ChatID      string
	Message     string
	FileName    string
	ContentType string
	Size        int64
	Reader      io.Reader
}

// Result 上传结果
type Result struct {
	Reply  string `json:"reply"`
	ChatID string `json:"chatId"`
}

// UploadImage 处理图片上传
// 存文件、生成文字描述、落图片消息与描述消息，最后回答用户问题
// 描述消息让后续轮次感知这张图，原图不再重发给模型
func (s *Service) UploadImage(ctx context.Context, req *Request) (*Result, error) {
	session, err := s.chat.EnsureSession(ctx, req.UserID, req.ChatID, seedText(req))
	if err != nil {
		return nil, err
	}

	data, err := io.ReadAll(req.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}

	stored, err := s.files.SaveFile(ctx, &file.SaveRequest{
		FileName:    req.FileName,
		ContentType: req.ContentType,
		Size:        int64(len(data)),
		Reader:      bytes.NewReader(data),
		SessionID:   session.ID,
	})
	if err != nil {
		return nil, err
	}

	dataURL := fmt.Sprintf("data:%s;base64,%s", req.ContentType, base64.StdEncoding.EncodeToString(data))

	description, err := s.gateway.DescribeImage(ctx, dataURL, describePrompt)
	if err != nil {
		return nil, fmt.Errorf("image description failed: %w", err)
	}

	if err := s.chat.SaveMessage(ctx, &model.ChatMessage{
		SessionID: session.ID,
		Role:      model.RoleUser,
		Kind:      model.KindImage,
		Content:   seedText(req),
		ImageData: dataURL,
	}); err != nil {
		return nil, err
	}
	if err := s.chat.SaveMessage(ctx, &model.ChatMessage{
		SessionID: session.ID,
		Role:      model.RoleSystem,
		Kind:      model.KindImageDescription,
		Content:   description,
	}); err != nil {
		return nil, err
	}

	s.chat.RecordImage(ctx, session.ID, description)
	if err := s.chat.SetActiveFile(ctx, session.ID, stored.ID); err != nil {
		log.Printf("Warning: failed to set active file for %s: %v", session.ID, err)
	}

	reply := description
	if req.Message != "" {
		reply, err = s.chat.RunTurn(ctx, session, req.Message)
		if err != nil {
			return nil, err
		}
	}

	return &Result{Reply: reply, ChatID: session.ID}, nil
}

// UploadDocument 处理文档上传
// 提取文本、按长度决定是否生成摘要、落文档消息，最后回答用户问题
func (s *Service) UploadDocument(ctx context.Context, req *Request) (*Result, error) {
	session, err := s.chat.EnsureSession(ctx, req.UserID, req.ChatID, seedText(req))
	if err != nil {
		return nil, err
	}

	data, err := io.ReadAll(req.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}

	text, err := s.extractor.ExtractText(ctx, req.FileName, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("text extraction failed: %w", err)
	}

	stored, err := s.files.SaveFile(ctx, &file.SaveRequest{
		FileName:    req.FileName,
		ContentType: req.ContentType,
		Size:        int64(len(data)),
		Reader:      bytes.NewReader(data),
		SessionID:   session.ID,
	})
	if err != nil {
		return nil, err
	}

	// 短文档直接走片段检索，长文档预生成摘要；摘要失败不阻断上传
	summary := ""
	if utf8.RuneCountInString(text) > s.cfg.SummaryThreshold {
		summary, err = s.gateway.Summarize(ctx, text)
		if err != nil {
			log.Printf("Warning: document summary failed for %s: %v", session.ID, err)
			summary = ""
		}
	}

	if err := s.chat.SaveMessage(ctx, &model.ChatMessage{
		SessionID:       session.ID,
		Role:            model.RoleUser,
		Kind:            model.KindDocument,
		Content:         seedText(req),
		DocumentText:    text,
		DocumentSummary: summary,
	}); err != nil {
		return nil, err
	}

	s.chat.RecordDocument(ctx, session.ID, text, summary)
	if err := s.chat.SetActiveFile(ctx, session.ID, stored.ID); err != nil {
		log.Printf("Warning: failed to set active file for %s: %v", session.ID, err)
	}

	var reply string
	switch {
	case req.Message != "":
		reply, err = s.chat.RunTurn(ctx, session, req.Message)
		if err != nil {
			return nil, err
		}
	case summary != "":
		reply = summary
	default:
		reply = fmt.Sprintf("Document %q received.", req.FileName)
	}

	return &Result{Reply: reply, ChatID: session.ID}, nil
}

// seedText 会话标题与消息内容的种子文本
func seedText(req *Request) string {
	if req.Message != "" {
		return req.Message
	}
	return req.FileName
}
