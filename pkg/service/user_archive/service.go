/*
 * @Description: 用户级归档与恢复
 * @Author: 安知鱼
 * @Date: 2026-03-11 14:02:36
 * @LastEditTime: 2026-03-21 17:48:05
 * @LastEditors: 安知鱼
 */
package user_archive

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/anzhiyu-c/anheyu-archive/internal/pkg/event"
	"github.com/anzhiyu-c/anheyu-archive/pkg/constant"
	"github.com/anzhiyu-c/anheyu-archive/pkg/domain/model"
	"github.com/anzhiyu-c/anheyu-archive/pkg/domain/repository"
	"github.com/anzhiyu-c/anheyu-archive/pkg/idgen"
	"github.com/anzhiyu-c/anheyu-archive/pkg/service/identity"
	"github.com/anzhiyu-c/anheyu-archive/pkg/service/utility"
)

// Service 负责把整个用户的作品图打包成快照，以及从快照中重建用户。
type Service struct {
	tm               repository.TransactionManager
	archivedUserRepo repository.ArchivedUserRepository
	locker           utility.KeyLocker
	dispatcher       identity.SideEffectDispatcher
	eventBus         *event.EventBus
}

// NewService 是用户归档 Service 的构造函数。dispatcher 与 eventBus 可以为 nil。
func NewService(
	tm repository.TransactionManager,
	archivedUserRepo repository.ArchivedUserRepository,
	locker utility.KeyLocker,
	dispatcher identity.SideEffectDispatcher,
	eventBus *event.EventBus,
) *Service {
	return &Service{
		tm:               tm,
		archivedUserRepo: archivedUserRepo,
		locker:           locker,
		dispatcher:       dispatcher,
		eventBus:         eventBus,
	}
}

func userLockKey(userID uint) string {
	return fmt.Sprintf("archive:user:%d", userID)
}

// ArchiveUser 在一个事务中生成快照并删除用户，提交后再停用身份服务中的账号。
func (s *Service) ArchiveUser(ctx context.Context, userID, archivedBy uint) (*model.ArchiveUserResult, error) {
	unlock, err := s.locker.Lock(ctx, userLockKey(userID))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", constant.ErrUserArchiveFailed, err)
	}
	defer unlock()

	var (
		archived *model.ArchivedUser
		email    string
	)
	err = s.tm.Do(ctx, func(repos repository.Repositories) error {
		// 1. 已归档的用户不能再次归档，真正的并发保护是 original_user_id 上的唯一约束
		if _, err := repos.ArchivedUser.FindByOriginalUserID(ctx, userID); err == nil {
			return constant.ErrUserAlreadyArchived
		} else if !errors.Is(err, constant.ErrNotFound) {
			return err
		}

		// 2. 加载用户
		user, err := repos.User.FindByID(ctx, userID)
		if err != nil {
			if errors.Is(err, constant.ErrNotFound) {
				return constant.ErrUserNotFound
			}
			return err
		}
		email = user.Email

		// 3. 收集用户的全部数据
		snapshot, err := buildSnapshot(ctx, repos, user)
		if err != nil {
			return err
		}

		// 4. 保存快照
		archived, err = repos.ArchivedUser.Create(ctx, &model.CreateArchivedUserParams{
			OriginalUserID: user.ID,
			ArchivedBy:     archivedBy,
			Snapshot:       snapshot,
		})
		if err != nil {
			return err
		}

		// 5. 删除用户，文章、评论、标签关联随外键级联删除
		return repos.User.Delete(ctx, user.ID)
	})
	if err != nil {
		if errors.Is(err, constant.ErrUserAlreadyArchived) || errors.Is(err, constant.ErrUserNotFound) {
			return nil, err
		}
		log.Printf("【用户归档】归档用户 %d 失败: %v", userID, err)
		return nil, fmt.Errorf("%w: %v", constant.ErrUserArchiveFailed, err)
	}

	log.Printf("【用户归档】管理员 %d 归档了用户 %d，归档ID %d，文章 %d 篇，评论 %d 条",
		archivedBy, userID, archived.ID, len(archived.Snapshot.Posts), len(archived.Snapshot.UserComments))

	// 6. 提交之后的副作用
	result := &model.ArchiveUserResult{ArchivedID: archived.ID}
	result.SideEffects = append(result.SideEffects, s.dispatchIdentity(model.IdentityDisable, email))
	if s.eventBus != nil {
		s.eventBus.Publish(event.UserArchived, event.UserArchivedPayload{
			ArchivedUserID: archived.ID,
			OriginalUserID: userID,
			ArchivedBy:     archivedBy,
		})
	}
	return result, nil
}

// RestoreUser 使用新的用户 ID 重建用户，文章 ID 通过 IDRemap 重新映射。
func (s *Service) RestoreUser(ctx context.Context, archivedUserID uint) (*model.RestoreUserResult, error) {
	found, err := s.archivedUserRepo.FindByID(ctx, archivedUserID)
	if err != nil {
		if errors.Is(err, constant.ErrNotFound) {
			return nil, constant.ErrArchivedUserNotFound
		}
		log.Printf("【用户恢复】读取归档用户 %d 失败: %v", archivedUserID, err)
		return nil, fmt.Errorf("%w: %v", constant.ErrUserRestoreFailed, err)
	}

	unlock, err := s.locker.Lock(ctx, userLockKey(found.OriginalUserID))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", constant.ErrUserRestoreFailed, err)
	}
	defer unlock()

	var (
		result = &model.RestoreUserResult{}
		email  string
	)
	err = s.tm.Do(ctx, func(repos repository.Repositories) error {
		// 1. 在事务中重新读取，拿锁之前可能已被其他请求恢复
		archived, err := repos.ArchivedUser.FindByID(ctx, archivedUserID)
		if err != nil {
			if errors.Is(err, constant.ErrNotFound) {
				return constant.ErrArchivedUserNotFound
			}
			return err
		}

		// 2. 拆解快照
		data, err := model.RestoreUserData(archived)
		if err != nil {
			return err
		}

		// 3. 原 ID 或邮箱已被在线用户占用时拒绝恢复
		if err := ensureUserAbsent(ctx, repos, archived.OriginalUserID, data.User.Email); err != nil {
			return err
		}

		r := &restorer{ctx: ctx, repos: repos, data: data, idMap: model.NewIDRemap(), tagCache: make(map[string]uint)}
		if err := r.run(); err != nil {
			return err
		}
		result.RestoredUserID = r.newUserID
		result.RestoredPosts = r.idMap.Len()
		result.SkippedComments = r.skipped
		email = data.User.Email

		// 8. 删除快照
		return repos.ArchivedUser.Delete(ctx, archived.ID)
	})
	if err != nil {
		if errors.Is(err, constant.ErrArchivedUserNotFound) || errors.Is(err, constant.ErrUserAlreadyExists) {
			return nil, err
		}
		log.Printf("【用户恢复】恢复归档用户 %d 失败: %v", archivedUserID, err)
		return nil, fmt.Errorf("%w: %v", constant.ErrUserRestoreFailed, err)
	}

	log.Printf("【用户恢复】归档用户 %d 已恢复为用户 %d，文章 %d 篇，跳过评论 %d 条",
		archivedUserID, result.RestoredUserID, result.RestoredPosts, result.SkippedComments)

	// 9. 提交之后的副作用
	result.SideEffects = append(result.SideEffects, s.dispatchIdentity(model.IdentityEnable, email))
	if s.eventBus != nil {
		s.eventBus.Publish(event.UserRestored, event.UserRestoredPayload{
			ArchivedUserID: archivedUserID,
			RestoredUserID: result.RestoredUserID,
		})
	}
	return result, nil
}

func ensureUserAbsent(ctx context.Context, repos repository.Repositories, originalUserID uint, email string) error {
	if _, err := repos.User.FindByID(ctx, originalUserID); err == nil {
		return constant.ErrUserAlreadyExists
	} else if !errors.Is(err, constant.ErrNotFound) {
		return err
	}
	if email == "" {
		return nil
	}
	if _, err := repos.User.FindByEmail(ctx, email); err == nil {
		return fmt.Errorf("%w: 邮箱 %s 已被占用", constant.ErrUserAlreadyExists, email)
	} else if !errors.Is(err, constant.ErrNotFound) {
		return err
	}
	return nil
}

func (s *Service) dispatchIdentity(action model.IdentityAction, email string) model.SideEffectOutcome {
	if s.dispatcher == nil {
		return model.SideEffectOutcome{
			Name:   fmt.Sprintf("identity.%s", action),
			Status: model.SideEffectSkipped,
			Detail: "未配置后台任务",
		}
	}
	return s.dispatcher.DispatchIdentitySync(action, email)
}

// ListArchivedUsers 分页查询归档用户
func (s *Service) ListArchivedUsers(ctx context.Context, req *model.ListArchivedUsersRequest) (*model.ArchivedUserListResponse, error) {
	if req == nil {
		req = &model.ListArchivedUsersRequest{}
	}
	req.Normalize()
	page, err := s.archivedUserRepo.List(ctx, req.Limit, req.Offset, req.Search)
	if err != nil {
		return nil, err
	}
	users := make([]*model.ArchivedUserResponse, len(page.Items))
	for i, a := range page.Items {
		users[i] = toAPIResponse(a)
	}
	return &model.ArchivedUserListResponse{Users: users, Total: page.Total}, nil
}

// GetArchivedUser 返回归档用户及其完整快照
func (s *Service) GetArchivedUser(ctx context.Context, archivedUserID uint) (*model.ArchivedUserDetailResponse, error) {
	a, err := s.archivedUserRepo.FindByID(ctx, archivedUserID)
	if err != nil {
		if errors.Is(err, constant.ErrNotFound) {
			return nil, constant.ErrArchivedUserNotFound
		}
		return nil, err
	}
	return &model.ArchivedUserDetailResponse{
		ArchivedUserResponse: *toAPIResponse(a),
		Snapshot:             a.Snapshot,
	}, nil
}

func toAPIResponse(a *model.ArchivedUser) *model.ArchivedUserResponse {
	resp := &model.ArchivedUserResponse{
		ID:             idgen.MustPublicID(a.ID, idgen.EntityTypeArchivedUser),
		OriginalUserID: idgen.MustPublicID(a.OriginalUserID, idgen.EntityTypeUser),
		ArchivedAt:     a.ArchivedAt,
		ArchivedBy:     idgen.MustPublicID(a.ArchivedBy, idgen.EntityTypeUser),
	}
	if s := a.Snapshot; s != nil {
		resp.Email = s.User.Email
		resp.FirstName = s.User.FirstName
		resp.LastName = s.User.LastName
		resp.Role = s.User.Role
		resp.PostsCount = len(s.Posts)
		resp.CommentsCount = len(s.UserComments)
		resp.SnapshotVer = s.Version
	}
	return resp
}
