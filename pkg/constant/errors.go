/*
 * @Description: 归档引擎的标准错误及其对外描述
 * @Author: 安知鱼
 * @Date: 2026-03-02 10:40:18
 * @LastEditTime: 2026-03-21 16:02:44
 * @LastEditors: 安知鱼
 */
package constant

import (
	"errors"
	"net/http"
)

// 定义业务逻辑相关的标准错误
var (
	// ErrNotFound 表示资源未找到，可以由 Handler 转换为 404
	ErrNotFound = errors.New("资源未找到")

	// ErrForbidden 表示无权访问，可以由 Handler 转换为 403
	ErrForbidden = errors.New("操作禁止")

	// ErrConflict 表示资源冲突，可以由 Handler 转换为 409
	ErrConflict = errors.New("资源冲突")

	// ErrInternalServer 表示服务器内部错误，可以由 Handler 转换为 500
	ErrInternalServer = errors.New("内部服务器错误")

	// ErrBadRequest 表示请求参数错误，可以由 Handler 转换为 400
	ErrBadRequest = errors.New("错误的请求")

	// ErrUnauthorized 表示未授权，可以由 Handler 转换为 401
	ErrUnauthorized = errors.New("未经授权的访问")

	// ErrDuplicate 由仓储层在违反唯一约束时返回
	ErrDuplicate = errors.New("违反唯一约束")

	ErrPostNotFound         = errors.New("文章不存在")
	ErrUserNotFound         = errors.New("用户不存在")
	ErrArchivedUserNotFound = errors.New("归档用户不存在")
	ErrUserAlreadyArchived  = errors.New("用户已被归档")
	ErrUserAlreadyExists    = errors.New("用户已存在")

	// 事务内部的意外失败统一收敛为以下几种
	ErrArchiveFailed     = errors.New("归档失败")
	ErrRestoreFailed     = errors.New("恢复失败")
	ErrUserArchiveFailed = errors.New("归档用户失败")
	ErrUserRestoreFailed = errors.New("恢复用户失败")

	// ErrUnsupportedSnapshotVersion 表示归档快照的版本无法识别
	ErrUnsupportedSnapshotVersion = errors.New("不支持的快照版本")
)

// ErrorDescriptor 描述一个错误对外暴露的稳定形态。
type ErrorDescriptor struct {
	Kind    string // 稳定的错误种类
	Status  int    // HTTP 状态码
	Code    int    // 业务错误码
	Message string
}

// 顺序很重要：更具体的错误排在前面。
var descriptors = []struct {
	err  error
	desc ErrorDescriptor
}{
	{ErrPostNotFound, ErrorDescriptor{"POST_NOT_FOUND", http.StatusNotFound, 1300, ErrPostNotFound.Error()}},
	{ErrUserNotFound, ErrorDescriptor{"USER_NOT_FOUND", http.StatusNotFound, 1200, ErrUserNotFound.Error()}},
	{ErrArchivedUserNotFound, ErrorDescriptor{"ARCHIVED_USER_NOT_FOUND", http.StatusNotFound, 1213, ErrArchivedUserNotFound.Error()}},
	{ErrUserAlreadyArchived, ErrorDescriptor{"USER_ALREADY_ARCHIVED", http.StatusConflict, 1210, ErrUserAlreadyArchived.Error()}},
	{ErrUserAlreadyExists, ErrorDescriptor{"USER_ALREADY_EXISTS", http.StatusConflict, 1201, ErrUserAlreadyExists.Error()}},
	{ErrUserArchiveFailed, ErrorDescriptor{"USER_ARCHIVE_FAILED", http.StatusInternalServerError, 1211, ErrUserArchiveFailed.Error()}},
	{ErrUserRestoreFailed, ErrorDescriptor{"USER_RESTORE_FAILED", http.StatusInternalServerError, 1212, ErrUserRestoreFailed.Error()}},
	{ErrArchiveFailed, ErrorDescriptor{"ARCHIVE_FAILED", http.StatusInternalServerError, 1211, ErrArchiveFailed.Error()}},
	{ErrRestoreFailed, ErrorDescriptor{"RESTORE_FAILED", http.StatusInternalServerError, 1212, ErrRestoreFailed.Error()}},
	{ErrNotFound, ErrorDescriptor{"NOT_FOUND", http.StatusNotFound, 1003, ErrNotFound.Error()}},
	{ErrForbidden, ErrorDescriptor{"FORBIDDEN", http.StatusForbidden, 1002, ErrForbidden.Error()}},
	{ErrUnauthorized, ErrorDescriptor{"UNAUTHORIZED", http.StatusUnauthorized, 1002, ErrUnauthorized.Error()}},
	{ErrConflict, ErrorDescriptor{"CONFLICT", http.StatusConflict, 1004, ErrConflict.Error()}},
	{ErrDuplicate, ErrorDescriptor{"CONFLICT", http.StatusConflict, 1004, ErrDuplicate.Error()}},
	{ErrBadRequest, ErrorDescriptor{"BAD_REQUEST", http.StatusBadRequest, 1001, ErrBadRequest.Error()}},
}

var internalDescriptor = ErrorDescriptor{"INTERNAL", http.StatusInternalServerError, 1000, ErrInternalServer.Error()}

// Describe 将任意（可能被包装过的）错误解析为对外描述。
// 无法识别的错误一律视为内部错误，避免把底层细节泄露给调用方。
func Describe(err error) ErrorDescriptor {
	for _, d := range descriptors {
		if errors.Is(err, d.err) {
			return d.desc
		}
	}
	return internalDescriptor
}
