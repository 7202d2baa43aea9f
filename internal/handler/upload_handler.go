package handler

import (
	"strings"

	"github.com/ashwinyue/chat-relay/internal/service"
	"github.com/ashwinyue/chat-relay/internal/service/document"
	"github.com/ashwinyue/chat-relay/internal/service/upload"
	"github.com/gin-gonic/gin"
)

// UploadHandler 上传处理器
type UploadHandler struct {
	svc *service.Services
}

// NewUploadHandler 创建上传处理器
func NewUploadHandler(svc *service.Services) *UploadHandler {
	return &UploadHandler{svc: svc}
}

// UploadImage 处理图片上传
func (h *UploadHandler) UploadImage(c *gin.Context) {
	req, ok := h.bindUpload(c)
	if !ok {
		return
	}
	defer req.closer()

	if !strings.HasPrefix(req.request.ContentType, "image/") {
		badRequest(c, "file must be an image")
		return
	}

	result, err := h.svc.Upload.UploadImage(c.Request.Context(), req.request)
	if err != nil {
		serverError(c, err)
		return
	}

	success(c, result)
}

// UploadDocument 处理文档上传
func (h *UploadHandler) UploadDocument(c *gin.Context) {
	req, ok := h.bindUpload(c)
	if !ok {
		return
	}
	defer req.closer()

	if !document.Supported(req.request.FileName) {
		badRequest(c, "unsupported document type, expected pdf, docx or txt")
		return
	}

	result, err := h.svc.Upload.UploadDocument(c.Request.Context(), req.request)
	if err != nil {
		serverError(c, err)
		return
	}

	success(c, result)
}

// boundUpload 解析后的上传请求与文件句柄清理函数
type boundUpload struct {
	request *upload.Request
	closer  func()
}

// bindUpload 解析 multipart 上传的公共字段，失败时已写入响应
func (h *UploadHandler) bindUpload(c *gin.Context) (*boundUpload, bool) {
	userID := c.PostForm("userId")
	if strings.TrimSpace(userID) == "" {
		badRequest(c, "userId is required")
		return nil, false
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "file is required")
		return nil, false
	}

	f, err := fileHeader.Open()
	if err != nil {
		serverError(c, err)
		return nil, false
	}

	return &boundUpload{
		request: &upload.Request{
			UserID:      userID,
			ChatID:      c.PostForm("chatId"),
			Message:     strings.TrimSpace(c.PostForm("message")),
			FileName:    fileHeader.Filename,
			ContentType: fileHeader.Header.Get("Content-Type"),
			Size:        fileHeader.Size,
			Reader:      f,
		},
		closer: func() { _ = f.Close() },
	}, true
}
