package router

import (
	"github.com/ashwinyue/chat-relay/internal/config"
	"github.com/ashwinyue/chat-relay/internal/handler"
	"github.com/ashwinyue/chat-relay/internal/middleware"
	"github.com/gin-gonic/gin"
)

// SetupRouter 设置路由
func SetupRouter(h *handler.Handlers, cfg *config.Config) *gin.Engine {
	r := gin.New()

	// 中间件
	r.Use(middleware.RecoveryMiddleware())
	r.Use(middleware.LoggingMiddleware())
	r.Use(middleware.CORSMiddleware())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// 聊天
	r.POST("/chat", h.Chat.Chat)
	r.GET("/history", h.Chat.History)
	r.GET("/chats", h.Chat.ListChats)
	r.POST("/reset", h.Chat.Reset)
	r.POST("/deleteChat", h.Chat.DeleteChat)

	// 上传
	r.POST("/upload", h.Upload.UploadImage)
	r.POST("/upload-document", h.Upload.UploadDocument)

	// 附件静态访问
	r.Static(cfg.File.URLPrefix, cfg.File.BasePath)

	return r
}
