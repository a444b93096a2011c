/*
 * @Description: 统一的 API 返回结构
 * @Author: 安知鱼
 * @Date: 2026-03-02 10:52:03
 * @LastEditTime: 2026-03-21 16:05:30
 * @LastEditors: 安知鱼
 */
package response

import (
	"net/http"

	"github.com/anzhiyu-c/anheyu-archive/pkg/constant"

	"github.com/gin-gonic/gin"
)

// Response 是统一的API返回结构体
type Response struct {
	Code    int         `json:"code"`
	Kind    string      `json:"kind,omitempty"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}, message string) {
	c.JSON(http.StatusOK, Response{
		Code:    http.StatusOK,
		Message: message,
		Data:    data,
	})
}

// Fail 失败响应
func Fail(c *gin.Context, code int, message string) {
	c.JSON(code, Response{
		Code:    code,
		Message: message,
		Data:    nil,
	})
}

// Error 根据业务错误返回稳定的错误种类与状态码，
// 不会把底层的数据库错误信息透传给调用方。
func Error(c *gin.Context, err error) {
	d := constant.Describe(err)
	c.JSON(d.Status, Response{
		Code:    d.Status,
		Kind:    d.Kind,
		Message: d.Message,
		Data:    gin.H{"errorCode": d.Code},
	})
}

