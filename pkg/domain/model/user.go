/*
 * @Description: 用户领域模型
 * @Author: 安知鱼
 * @Date: 2026-03-02 14:10:31
 * @LastEditTime: 2026-03-16 20:21:09
 * @LastEditors: 安知鱼
 */
package model

import "time"

// User 是用户的核心领域模型。
type User struct {
	ID         uint
	IdentityID string // 外部身份服务中的用户标识
	Email      string
	FirstName  string
	LastName   string
	Role       Role
	IsActive   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// CreateUserParams 创建用户所需的参数，ID 由仓储分配。
type CreateUserParams struct {
	IdentityID string
	Email      string
	FirstName  string
	LastName   string
	Role       Role
}

// UserSummary 是嵌在其他响应中的用户简要信息。
type UserSummary struct {
	ID        uint
	Email     string
	FirstName string
	LastName  string
}

// UserSummaryResponse 是 UserSummary 的 API 形态
type UserSummaryResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// UserStatusResult 是启用/停用用户的结果
type UserStatusResult struct {
	UserID      uint
	IsActive    bool
	SideEffects []SideEffectOutcome
}

// UserStatusResponse 是启用/停用用户接口的响应
type UserStatusResponse struct {
	Success     bool                `json:"success"`
	UserID      string              `json:"userId"`
	IsActive    bool                `json:"isActive"`
	SideEffects []SideEffectOutcome `json:"sideEffects"`
}
