// Package document 提供上传文档的文本提取
// 直接使用 eino-ext 解析组件，避免冗余封装
package document

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/cloudwego/eino-ext/components/document/parser/docx"
	"github.com/cloudwego/eino-ext/components/document/parser/pdf"
	einoparser "github.com/cloudwego/eino/components/document/parser"
	"github.com/cloudwego/eino/schema"
)

// Extractor 文档文本提取器
type Extractor struct{}

// NewExtractor 创建提取器
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Supported 判断文件类型是否支持提取
func Supported(fileName string) bool {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf", ".docx", ".txt", ".md":
		return true
	}
	return false
}

// ExtractText 按扩展名选择解析器，返回提取出的纯文本
func (e *Extractor) ExtractText(ctx context.Context, fileName string, reader io.Reader) (string, error) {
	fileParser, err := newParser(ctx, fileName)
	if err != nil {
		return "", err
	}

	docs, err := fileParser.Parse(ctx, reader)
	if err != nil {
		return "", fmt.Errorf("parser failed: %w", err)
	}

	parts := make([]string, 0, len(docs))
	for _, d := range docs {
		if d.Content != "" {
			parts = append(parts, d.Content)
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("no text content in %s", fileName)
	}

	return strings.Join(parts, "\n\n"), nil
}

// newParser 创建解析器
func newParser(ctx context.Context, fileName string) (einoparser.Parser, error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf":
		return pdf.NewPDFParser(ctx, &pdf.Config{ToPages: false})
	case ".docx":
		return docx.NewDocxParser(ctx, &docx.Config{
			ToSections:      false,
			IncludeComments: false,
			IncludeHeaders:  true,
			IncludeFooters:  false,
			IncludeTables:   true,
		})
	case ".txt", ".md":
		return &textParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file type: %s", filepath.Ext(fileName))
	}
}

// textParser 纯文本解析器
type textParser struct{}

func (p *textParser) Parse(_ context.Context, reader io.Reader, opts ...einoparser.Option) ([]*schema.Document, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read: %w", err)
	}

	text := string(content)
	if text == "" {
		return []*schema.Document{}, nil
	}

	return []*schema.Document{
		{
			Content:  text,
			MetaData: make(map[string]any),
		},
	}, nil
}
