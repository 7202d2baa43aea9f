package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ashwinyue/chat-relay/internal/config"
	"github.com/ashwinyue/chat-relay/internal/repository"
	"github.com/ashwinyue/chat-relay/internal/service/chat"
	"github.com/ashwinyue/chat-relay/internal/service/document"
	"github.com/ashwinyue/chat-relay/internal/service/file"
	"github.com/ashwinyue/chat-relay/internal/service/llm"
	"github.com/ashwinyue/chat-relay/internal/service/retrieval"
	"github.com/ashwinyue/chat-relay/internal/service/upload"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/redis/go-redis/v9"
)

// Services 服务集合
type Services struct {
	Chat    *chat.Service
	Upload  *upload.Service
	File    *file.Service
	Sweeper *file.Sweeper
	Config  *config.Config
}

// NewServices 创建所有服务
func NewServices(repos *repository.Repositories, cfg *config.Config, redisClient *redis.Client) (*Services, error) {
	ctx := context.Background()

	// 创建补全模型与视觉模型
	chatModel, err := newChatModel(ctx, cfg, false)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	visionModel, err := newChatModel(ctx, cfg, true)
	if err != nil {
		log.Printf("Warning: failed to create vision model, falling back to chat model: %v", err)
		visionModel = chatModel
	}

	gateway := llm.New(chatModel, visionModel,
		time.Duration(providerTimeout(cfg))*time.Second, cfg.AI.MaxRetries)

	// 附件存储
	storage, err := file.NewLocalStorage(cfg.File.BasePath, cfg.File.URLPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to create file storage: %w", err)
	}
	fileSvc := file.NewService(repos.File, storage)
	sweeper := file.NewSweeper(repos.File, storage, time.Duration(cfg.File.MaxAgeHours)*time.Hour)

	// 派生上下文投影缓存与检索器
	state := chat.NewContextState(redisClient)
	retriever := retrieval.NewKeywordRetriever(retrieval.Config{
		ChunkSize:   cfg.Chat.ChunkSize,
		TopK:        cfg.Chat.TopChunks,
		MinTokenLen: cfg.Chat.MinTokenLen,
	})

	chatSvc := chat.NewService(repos.Chat, gateway, fileSvc, state, retriever, cfg.Chat)
	uploadSvc := upload.NewService(chatSvc, fileSvc, gateway, document.NewExtractor(), cfg.Chat)

	return &Services{
		Chat:    chatSvc,
		Upload:  uploadSvc,
		File:    fileSvc,
		Sweeper: sweeper,
		Config:  cfg,
	}, nil
}

// newChatModel 创建 ChatModel，vision 为真时使用各提供商的视觉模型名
func newChatModel(ctx context.Context, cfg *config.Config, vision bool) (model.ChatModel, error) {
	aiCfg := cfg.AI

	var apiKey, baseURL, modelName string

	switch aiCfg.Provider {
	case "openai":
		apiKey = aiCfg.OpenAI.APIKey
		baseURL = aiCfg.OpenAI.BaseURL
		modelName = aiCfg.OpenAI.Model
		if vision {
			modelName = aiCfg.OpenAI.VisionModel
		}
	case "alibaba", "qwen", "dashscope":
		apiKey = aiCfg.Alibaba.AccessKeySecret
		baseURL = "https://dashscope.aliyuncs.com/compatible-mode/v1"
		modelName = aiCfg.Alibaba.Model
		if vision {
			modelName = aiCfg.Alibaba.VisionModel
		}
	case "deepseek":
		apiKey = aiCfg.DeepSeek.APIKey
		baseURL = aiCfg.DeepSeek.BaseURL
		modelName = aiCfg.DeepSeek.Model
		if vision {
			modelName = aiCfg.DeepSeek.VisionModel
		}
	default:
		return nil, fmt.Errorf("unsupported ai provider: %s", aiCfg.Provider)
	}

	if apiKey == "" {
		return nil, fmt.Errorf("api_key is required for provider: %s", aiCfg.Provider)
	}

	if modelName == "" {
		modelName = "gpt-4o-mini"
	}

	return openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:  apiKey,
		BaseURL: baseURL,
		Model:   modelName,
	})
}

// providerTimeout 当前提供商的调用超时（秒）
func providerTimeout(cfg *config.Config) int {
	switch cfg.AI.Provider {
	case "alibaba", "qwen", "dashscope":
		return cfg.AI.Alibaba.Timeout
	case "deepseek":
		return cfg.AI.DeepSeek.Timeout
	default:
		return cfg.AI.OpenAI.Timeout
	}
}
