package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	App      AppConfig
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	AI       AIConfig
	Chat     ChatConfig
	File     FileConfig
}

// AppConfig 应用配置
type AppConfig struct {
	Name        string
	Environment string
	Version     string
	Debug       bool
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host         string
	Port         int
	Mode         string
	ReadTimeout  int
	WriteTimeout int
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	DBName       string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  int
}

// RedisConfig Redis配置
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// AIConfig AI配置
type AIConfig struct {
	Provider   string
	MaxRetries int
	OpenAI     OpenAIConfig
	Alibaba    AlibabaConfig
	DeepSeek   DeepSeekConfig
}

// OpenAIConfig OpenAI配置
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	VisionModel string
	Timeout     int
}

// AlibabaConfig 阿里云配置
type AlibabaConfig struct {
	AccessKeySecret string
	Model           string
	VisionModel     string
	Timeout         int
}

// DeepSeekConfig DeepSeek配置
type DeepSeekConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	VisionModel string
	Timeout     int
}

// ChatConfig 上下文组装配置
// HistoryWindow 为每次请求带入模型的最近消息条数
type ChatConfig struct {
	HistoryWindow    int // 最近 N 条历史消息
	ImageDescLimit   int // 注入图片描述的字符上限
	DocSummaryLimit  int // 注入文档摘要的字符上限
	ChunkSize        int // 文档分块窗口大小（字符）
	TopChunks        int // 保留的最高分块数
	MinTokenLen      int // 查询词的最小长度，小于等于该值的词丢弃
	TitleLimit       int // 会话标题长度上限
	SummaryThreshold int // 文档超过该长度才调用模型生成摘要
}

// FileConfig 附件存储配置
type FileConfig struct {
	BasePath      string
	URLPrefix     string
	MaxAgeHours   int    // 附件保留时长
	SweepSchedule string // 清理任务的 cron 表达式
}

var globalConfig *Config

// Load 加载配置
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	// 环境变量
	v.SetEnvPrefix("CHAT_RELAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	globalConfig = &cfg
	return &cfg, nil
}

// Get 获取全局配置
func Get() *Config {
	if globalConfig == nil {
		panic("config not loaded")
	}
	return globalConfig
}

// GetDSN 获取数据库连接字符串
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// GetAddr 获取服务器地址
func (c *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// GetAddr 获取 Redis 地址
func (c *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func setDefaults(v *viper.Viper) {
	// App
	v.SetDefault("app.name", "chat-relay")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.debug", true)

	// Server
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.readTimeout", 30)
	v.SetDefault("server.writeTimeout", 30)

	// Database
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "chat_relay")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.maxOpenConns", 25)
	v.SetDefault("database.maxIdleConns", 5)
	v.SetDefault("database.maxLifetime", 300)

	// Redis
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)

	// AI
	v.SetDefault("ai.provider", "openai")
	v.SetDefault("ai.maxRetries", 2)
	v.SetDefault("ai.openai.baseUrl", "https://api.openai.com/v1")
	v.SetDefault("ai.openai.model", "gpt-4o-mini")
	v.SetDefault("ai.openai.visionModel", "gpt-4o-mini")
	v.SetDefault("ai.openai.timeout", 60)

	// Chat
	v.SetDefault("chat.historyWindow", 30)
	v.SetDefault("chat.imageDescLimit", 500)
	v.SetDefault("chat.docSummaryLimit", 1200)
	v.SetDefault("chat.chunkSize", 800)
	v.SetDefault("chat.topChunks", 3)
	v.SetDefault("chat.minTokenLen", 3)
	v.SetDefault("chat.titleLimit", 40)
	v.SetDefault("chat.summaryThreshold", 6000)

	// File
	v.SetDefault("file.basePath", "./data/files")
	v.SetDefault("file.urlPrefix", "/files")
	v.SetDefault("file.maxAgeHours", 24)
	v.SetDefault("file.sweepSchedule", "@hourly")
}
