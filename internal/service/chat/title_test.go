// Package chat 提供聊天服务单元测试
package chat

import (
	"strings"
	"testing"
	"unicode/utf8"
)

// ========== GenerateTitle 测试 ==========

func TestGenerateTitle(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		limit    int
		expected string
	}{
		{
			name:     "simple message",
			text:     "hello world",
			limit:    40,
			expected: "Hello world",
		},
		{
			name:     "first line only",
			text:     "first line\nsecond line\nthird line",
			limit:    40,
			expected: "First line",
		},
		{
			name:     "surrounding whitespace trimmed",
			text:     "   spaced out   \nrest",
			limit:    40,
			expected: "Spaced out",
		},
		{
			name:     "empty text uses placeholder",
			text:     "",
			limit:    40,
			expected: "新对话",
		},
		{
			name:     "whitespace only uses placeholder",
			text:     "   \n\t  ",
			limit:    40,
			expected: "新对话",
		},
		{
			name:     "exactly at limit kept whole",
			text:     strings.Repeat("a", 40),
			limit:    40,
			expected: "A" + strings.Repeat("a", 39),
		},
		{
			name:     "over limit truncated with ellipsis",
			text:     strings.Repeat("b", 50),
			limit:    40,
			expected: "B" + strings.Repeat("b", 36) + "...",
		},
		{
			name:     "already capitalized unchanged",
			text:     "Hello",
			limit:    40,
			expected: "Hello",
		},
		{
			name:     "non-letter first rune unchanged",
			text:     "42 is the answer",
			limit:    40,
			expected: "42 is the answer",
		},
		{
			name:     "chinese text passes through",
			text:     "今天天气怎么样",
			limit:    40,
			expected: "今天天气怎么样",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := GenerateTitle(tt.text, tt.limit)
			if result != tt.expected {
				t.Errorf("GenerateTitle() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestGenerateTitle_Deterministic(t *testing.T) {
	text := "the same input every time"

	first := GenerateTitle(text, 40)
	for i := 0; i < 10; i++ {
		if got := GenerateTitle(text, 40); got != first {
			t.Fatalf("GenerateTitle() not deterministic: %q vs %q", got, first)
		}
	}
}

func TestGenerateTitle_LengthBound(t *testing.T) {
	// 截断按字符计数，多字节文本也不得超过上限
	inputs := []string{
		strings.Repeat("x", 200),
		strings.Repeat("很长的中文标题", 30),
		"short",
	}

	for _, in := range inputs {
		got := GenerateTitle(in, 40)
		if n := utf8.RuneCountInString(got); n > 40 {
			t.Errorf("GenerateTitle(%q) length = %d, want <= 40", in[:10], n)
		}
	}
}

func TestGenerateTitle_BadLimit(t *testing.T) {
	// 非法上限回退到默认值
	got := GenerateTitle("hello", 0)
	if got != "Hello" {
		t.Errorf("GenerateTitle() = %q, want 'Hello'", got)
	}

	got = GenerateTitle(strings.Repeat("z", 100), 2)
	if n := utf8.RuneCountInString(got); n > 40 {
		t.Errorf("length = %d, want <= 40", n)
	}
}
