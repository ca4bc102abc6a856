package handler

import (
	"net/http"

	"github.com/blues/mts/internal/apperr"
	"github.com/gin-gonic/gin"
)

// SuccessResponse 成功响应
func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ErrorResponse 错误响应
func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, Response{
		Success: false,
		Message: message,
		Data:    nil,
	})
}

// AbortWithError 按错误分类映射HTTP状态码
func AbortWithError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		status = http.StatusBadRequest
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindInvalidOperation:
		status = http.StatusUnprocessableEntity
	case apperr.KindInvalidSignature:
		status = http.StatusUnauthorized
	case apperr.KindRailError:
		status = http.StatusBadGateway
	}
	ErrorResponse(c, status, err.Error())
}
