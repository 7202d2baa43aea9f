package handler

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response 统一响应
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// success 成功响应
func success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Code: 0, Message: "success", Data: data})
}

// badRequest 客户端输入错误响应
func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Response{Code: -1, Message: msg})
}

// notFound 资源不存在响应
func notFound(c *gin.Context, msg string) {
	c.JSON(http.StatusNotFound, Response{Code: -1, Message: msg})
}

// serverError 服务端错误响应
// 具体原因只进日志，响应体保持通用信息
func serverError(c *gin.Context, err error) {
	log.Printf("request failed: %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	c.JSON(http.StatusInternalServerError, Response{Code: -1, Message: "internal server error"})
}
