package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/ashwinyue/chat-relay/internal/config"
	"github.com/ashwinyue/chat-relay/internal/model"
	"github.com/ashwinyue/chat-relay/internal/service/retrieval"
	"github.com/cloudwego/eino/schema"
)

// fragmentInstruction 片段注入后附带的指令
const fragmentInstruction = "Answer using only the fragments above together with the prior conversation."

// Assembler 上下文组装器
// 根据会话历史与最近附件工件，决定送入补全模型的消息列表
type Assembler struct {
	repo      Repository
	state     *ContextState
	retriever retrieval.Retriever
	cfg       config.ChatConfig
}

// NewAssembler 创建组装器
func NewAssembler(repo Repository, state *ContextState, retriever retrieval.Retriever, cfg config.ChatConfig) *Assembler {
	return &Assembler{
		repo:      repo,
		state:     state,
		retriever: retriever,
		cfg:       cfg,
	}
}

// Assemble 组装一次补全请求的消息列表
// newMsg 必须在调用前已写入消息日志；历史窗口取最近 N 条，
// 窗口没有带上 newMsg 时在末尾补一条
func (a *Assembler) Assemble(ctx context.Context, session *model.ChatSession, newMsg *model.ChatMessage) ([]*schema.Message, error) {
	recent, err := a.repo.GetRecentMessages(session.ID, a.cfg.HistoryWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent messages: %w", err)
	}

	// 仓库按最新在前返回，翻转成时间升序
	out := make([]*schema.Message, 0, len(recent)+3)
	containsNew := false
	for i := len(recent) - 1; i >= 0; i-- {
		m := recent[i]
		out = append(out, &schema.Message{
			Role:    roleToSchema(m.Role),
			Content: m.Content,
		})
		if m.ID == newMsg.ID {
			containsNew = true
		}
	}

	proj := a.projection(ctx, session.ID)

	// 最近一张图片：注入截断后的文字描述，原图不再重发
	if proj.ImageDescription != "" {
		out = append(out, &schema.Message{
			Role:    schema.User,
			Content: truncateRunes(proj.ImageDescription, a.cfg.ImageDescLimit),
		})
	}

	// 最近一份文档：有摘要用摘要，否则按新消息做片段检索
	// 规则由摘要是否存在决定，与消息类型无关
	if proj.DocumentSummary != "" {
		out = append(out, &schema.Message{
			Role:    schema.User,
			Content: truncateRunes(proj.DocumentSummary, a.cfg.DocSummaryLimit),
		})
	} else if proj.DocumentText != "" && newMsg.Kind == model.KindText {
		chunks := a.retriever.Retrieve(ctx, proj.DocumentText, newMsg.Content)
		if len(chunks) > 0 {
			out = append(out, &schema.Message{
				Role:    schema.User,
				Content: formatFragments(chunks),
			})
		}
	}

	if !containsNew {
		out = append(out, &schema.Message{
			Role:    schema.User,
			Content: newMsg.Content,
		})
	}

	return out, nil
}

// projection 读取派生上下文投影，缓存未命中时回退到消息日志扫描
func (a *Assembler) projection(ctx context.Context, sessionID string) *Projection {
	if p, ok := a.state.Get(ctx, sessionID); ok {
		return p
	}

	p := &Projection{}
	if m, err := a.repo.GetLatestMessageByKind(sessionID, model.KindImageDescription); err == nil {
		p.ImageDescription = m.Content
	}
	if m, err := a.repo.GetLatestMessageByKind(sessionID, model.KindDocument); err == nil {
		p.DocumentText = m.DocumentText
		p.DocumentSummary = m.DocumentSummary
	}
	return p
}

// formatFragments 把片段拼成带编号的注入块
func formatFragments(chunks []retrieval.Chunk) string {
	var b strings.Builder
	for i, c := range chunks {
		fmt.Fprintf(&b, "Fragment %d:\n%s\n\n", i+1, c.Text)
	}
	b.WriteString(fragmentInstruction)
	return b.String()
}

// truncateRunes 按字符数截断
func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

// roleToSchema 将字符串角色转换为 schema.RoleType
func roleToSchema(role string) schema.RoleType {
	switch role {
	case model.RoleSystem:
		return schema.System
	case model.RoleAssistant:
		return schema.Assistant
	default:
		return schema.User
	}
}
