/*
 * @Description: 用户启用与停用
 * @Author: 安知鱼
 * @Date: 2026-03-12 09:41:26
 * @LastEditTime: 2026-03-21 15:30:48
 * @LastEditors: 安知鱼
 */
package user

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/anzhiyu-c/anheyu-archive/pkg/constant"
	"github.com/anzhiyu-c/anheyu-archive/pkg/domain/model"
	"github.com/anzhiyu-c/anheyu-archive/pkg/domain/repository"
	"github.com/anzhiyu-c/anheyu-archive/pkg/service/identity"
)

// UserService 定义了用户相关的业务逻辑接口
type UserService interface {
	// Deactivate 停用用户，并在提交后停用身份服务中的账号
	Deactivate(ctx context.Context, userID uint) (*model.UserStatusResult, error)
	// Activate 启用用户，并在提交后启用身份服务中的账号
	Activate(ctx context.Context, userID uint) (*model.UserStatusResult, error)
}

// userService 是 UserService 接口的实现
type userService struct {
	tm         repository.TransactionManager
	dispatcher identity.SideEffectDispatcher
}

// NewUserService 是 userService 的构造函数，dispatcher 可以为 nil
func NewUserService(tm repository.TransactionManager, dispatcher identity.SideEffectDispatcher) UserService {
	return &userService{
		tm:         tm,
		dispatcher: dispatcher,
	}
}

func (s *userService) Deactivate(ctx context.Context, userID uint) (*model.UserStatusResult, error) {
	return s.setActive(ctx, userID, false)
}

func (s *userService) Activate(ctx context.Context, userID uint) (*model.UserStatusResult, error) {
	return s.setActive(ctx, userID, true)
}

func (s *userService) setActive(ctx context.Context, userID uint, active bool) (*model.UserStatusResult, error) {
	var email string
	err := s.tm.Do(ctx, func(repos repository.Repositories) error {
		user, err := repos.User.FindByID(ctx, userID)
		if err != nil {
			if errors.Is(err, constant.ErrNotFound) {
				return constant.ErrUserNotFound
			}
			return err
		}
		if user.IsActive == active {
			if active {
				return fmt.Errorf("%w: 用户已处于启用状态", constant.ErrConflict)
			}
			return fmt.Errorf("%w: 用户已处于停用状态", constant.ErrConflict)
		}
		email = user.Email
		return repos.User.SetActive(ctx, userID, active)
	})
	if err != nil {
		if errors.Is(err, constant.ErrUserNotFound) || errors.Is(err, constant.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("修改用户 %d 状态失败: %w", userID, err)
	}

	action, state := model.IdentityDisable, "停用"
	if active {
		action, state = model.IdentityEnable, "启用"
	}
	log.Printf("【用户】用户 %d 已%s", userID, state)

	result := &model.UserStatusResult{UserID: userID, IsActive: active}
	if s.dispatcher == nil {
		result.SideEffects = append(result.SideEffects, model.SideEffectOutcome{
			Name:   fmt.Sprintf("identity.%s", action),
			Status: model.SideEffectSkipped,
			Detail: "未配置后台任务",
		})
		return result, nil
	}
	result.SideEffects = append(result.SideEffects, s.dispatcher.DispatchIdentitySync(action, email))
	return result, nil
}
