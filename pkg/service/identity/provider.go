/*
 * @Description: 外部身份服务的账号管理接口
 * @Author: 安知鱼
 * @Date: 2026-03-08 20:11:02
 * @LastEditTime: 2026-03-17 14:26:40
 * @LastEditors: 安知鱼
 */
package identity

import (
	"context"
	"fmt"
	"log"

	"github.com/anzhiyu-c/anheyu-archive/pkg/domain/model"
)

// Provider 只负责在外部身份服务中停用、启用账号。
// 调用发生在事务提交之后，失败只记录日志，不会回滚任何数据。
type Provider interface {
	DisableUser(ctx context.Context, email string) error
	EnableUser(ctx context.Context, email string) error
	Name() string
}

// Apply 按动作调用对应的方法
func Apply(ctx context.Context, p Provider, action model.IdentityAction, email string) error {
	switch action {
	case model.IdentityDisable:
		return p.DisableUser(ctx, email)
	case model.IdentityEnable:
		return p.EnableUser(ctx, email)
	}
	return fmt.Errorf("未知的身份服务操作: %q", action)
}

type noopProvider struct{}

// NewNoopProvider 在未配置身份服务时使用，只打印日志
func NewNoopProvider() Provider {
	return noopProvider{}
}

func (noopProvider) DisableUser(_ context.Context, email string) error {
	log.Printf("【身份服务】未配置身份服务，跳过停用账号: %s", email)
	return nil
}

func (noopProvider) EnableUser(_ context.Context, email string) error {
	log.Printf("【身份服务】未配置身份服务，跳过启用账号: %s", email)
	return nil
}

func (noopProvider) Name() string { return "noop" }

// SideEffectDispatcher 在事务提交后派发身份服务同步，返回值只描述派发结果。
type SideEffectDispatcher interface {
	DispatchIdentitySync(action model.IdentityAction, email string) model.SideEffectOutcome
}
