package chat

import (
	"strings"
	"unicode"
)

// defaultTitle 空消息时的占位标题
const defaultTitle = "新对话"

// GenerateTitle 根据首条消息生成会话标题
// 取首行并去除空白，首字母大写；超过 limit 个字符时截到 limit-3 并补省略号
// 纯函数，相同输入总是产生相同标题
func GenerateTitle(text string, limit int) string {
	if limit <= 3 {
		limit = 40
	}

	line := text
	if idx := strings.IndexByte(line, '\n'); idx >= 0 {
		line = line[:idx]
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return defaultTitle
	}

	runes := []rune(line)
	runes[0] = unicode.ToUpper(runes[0])

	if len(runes) > limit {
		return string(runes[:limit-3]) + "..."
	}
	return string(runes)
}
