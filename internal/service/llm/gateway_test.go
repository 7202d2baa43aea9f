// Package llm 提供补全网关单元测试
package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ashwinyue/chat-relay/internal/testutil"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// mockChatModel 可编程的 ChatModel
type mockChatModel struct {
	reply        string
	failuresLeft int
	calls        int
	lastMessages []*schema.Message
}

func (m *mockChatModel) Generate(ctx context.Context, messages []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	m.calls++
	m.lastMessages = messages
	if m.failuresLeft > 0 {
		m.failuresLeft--
		return nil, errors.New("upstream error")
	}
	return &schema.Message{Role: schema.Assistant, Content: m.reply}, nil
}

func (m *mockChatModel) Stream(ctx context.Context, messages []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not implemented")
}

func (m *mockChatModel) BindTools(tools []*schema.ToolInfo) error {
	return nil
}

// ========== Complete 测试 ==========

func TestComplete(t *testing.T) {
	m := &mockChatModel{reply: "generated text"}
	g := New(m, nil, time.Second, 0)

	got, err := g.Complete(context.Background(), []*schema.Message{
		{Role: schema.User, Content: "hello"},
	})

	if err != nil {
		t.Fatalf("Complete() unexpected error: %v", err)
	}
	if got != "generated text" {
		t.Errorf("Complete() = %q, want 'generated text'", got)
	}
	if m.calls != 1 {
		t.Errorf("calls = %d, want 1", m.calls)
	}
}

func TestComplete_NoModel(t *testing.T) {
	g := New(nil, nil, time.Second, 0)

	_, err := g.Complete(context.Background(), nil)
	if err == nil {
		t.Fatal("expected error without a model")
	}
}

func TestComplete_RetriesThenSucceeds(t *testing.T) {
	m := &mockChatModel{reply: "ok", failuresLeft: 2}
	g := New(m, nil, time.Second, 2)

	got, err := g.Complete(context.Background(), []*schema.Message{{Role: schema.User, Content: "hi"}})

	if err != nil {
		t.Fatalf("Complete() unexpected error: %v", err)
	}
	if got != "ok" {
		t.Errorf("Complete() = %q, want 'ok'", got)
	}
	if m.calls != 3 {
		t.Errorf("calls = %d, want 3 (two failures then success)", m.calls)
	}
}

func TestComplete_RetriesExhausted(t *testing.T) {
	m := &mockChatModel{failuresLeft: 10}
	g := New(m, nil, time.Second, 1)

	_, err := g.Complete(context.Background(), []*schema.Message{{Role: schema.User, Content: "hi"}})

	if err == nil {
		t.Fatal("expected error after retries exhausted")
	}
	if m.calls != 2 {
		t.Errorf("calls = %d, want 2 (initial attempt + one retry)", m.calls)
	}
}

func TestComplete_CanceledContextStopsRetry(t *testing.T) {
	m := &mockChatModel{failuresLeft: 10}
	g := New(m, nil, time.Second, 5)

	ctx := testutil.NewContextHelper().CanceledContext()

	_, err := g.Complete(ctx, []*schema.Message{{Role: schema.User, Content: "hi"}})

	if err == nil {
		t.Fatal("expected error on canceled context")
	}
	// 退避等待前发现取消，不再重试
	if m.calls > 1 {
		t.Errorf("calls = %d, want at most 1", m.calls)
	}
}

// ========== DescribeImage 测试 ==========

func TestDescribeImage(t *testing.T) {
	vision := &mockChatModel{reply: "a sunset over the sea"}
	g := New(&mockChatModel{reply: "wrong model"}, vision, time.Second, 0)

	got, err := g.DescribeImage(context.Background(), "data:image/png;base64,AAAA", "what is in this image?")

	if err != nil {
		t.Fatalf("DescribeImage() unexpected error: %v", err)
	}
	if got != "a sunset over the sea" {
		t.Errorf("DescribeImage() = %q", got)
	}

	// 消息带文本与图片两个部分
	if len(vision.lastMessages) != 1 {
		t.Fatalf("messages = %d, want 1", len(vision.lastMessages))
	}
	parts := vision.lastMessages[0].MultiContent
	if len(parts) != 2 {
		t.Fatalf("content parts = %d, want 2", len(parts))
	}
	if parts[0].Type != schema.ChatMessagePartTypeText || parts[0].Text != "what is in this image?" {
		t.Errorf("text part = %+v", parts[0])
	}
	if parts[1].Type != schema.ChatMessagePartTypeImageURL || parts[1].ImageURL.URL != "data:image/png;base64,AAAA" {
		t.Errorf("image part = %+v", parts[1])
	}
}

func TestDescribeImage_FallsBackToChatModel(t *testing.T) {
	chat := &mockChatModel{reply: "described"}
	g := New(chat, nil, time.Second, 0)

	got, err := g.DescribeImage(context.Background(), "http://example.com/i.png", "")
	if err != nil {
		t.Fatalf("DescribeImage() unexpected error: %v", err)
	}
	if got != "described" {
		t.Errorf("DescribeImage() = %q", got)
	}
	if chat.calls != 1 {
		t.Errorf("chat model calls = %d, want 1", chat.calls)
	}
}

// ========== Summarize 测试 ==========

func TestSummarize(t *testing.T) {
	m := &mockChatModel{reply: "the summary"}
	g := New(m, nil, time.Second, 0)

	got, err := g.Summarize(context.Background(), "some long document text")

	if err != nil {
		t.Fatalf("Summarize() unexpected error: %v", err)
	}
	if got != "the summary" {
		t.Errorf("Summarize() = %q", got)
	}

	// system 提示 + 文档内容
	if len(m.lastMessages) != 2 {
		t.Fatalf("messages = %d, want 2", len(m.lastMessages))
	}
	if m.lastMessages[0].Role != schema.System {
		t.Errorf("first message role = %v, want system", m.lastMessages[0].Role)
	}
	if m.lastMessages[1].Content != "some long document text" {
		t.Errorf("document content = %q", m.lastMessages[1].Content)
	}
}

func TestSummarize_InputCapped(t *testing.T) {
	m := &mockChatModel{reply: "ok"}
	g := New(m, nil, time.Second, 0)

	long := strings.Repeat("x", summarizeCap+5000)
	_, err := g.Summarize(context.Background(), long)
	if err != nil {
		t.Fatalf("Summarize() unexpected error: %v", err)
	}

	if got := len([]rune(m.lastMessages[1].Content)); got != summarizeCap {
		t.Errorf("sent document length = %d, want %d", got, summarizeCap)
	}
}
