package user

import (
	"context"
	"errors"
	"testing"

	"github.com/anzhiyu-c/anheyu-archive/pkg/constant"
	"github.com/anzhiyu-c/anheyu-archive/pkg/domain/model"
	"github.com/anzhiyu-c/anheyu-archive/pkg/domain/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUserRepo struct {
	repository.UserRepository
	users     map[uint]*model.User
	setActErr error
}

func (r *fakeUserRepo) FindByID(_ context.Context, id uint) (*model.User, error) {
	if u, ok := r.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, constant.ErrNotFound
}

func (r *fakeUserRepo) SetActive(_ context.Context, id uint, active bool) error {
	if r.setActErr != nil {
		return r.setActErr
	}
	r.users[id].IsActive = active
	return nil
}

type fakeTM struct {
	repos repository.Repositories
}

func (tm *fakeTM) Do(_ context.Context, fn func(repos repository.Repositories) error) error {
	return fn(tm.repos)
}

type recordingDispatcher struct {
	calls []string
}

func (d *recordingDispatcher) DispatchIdentitySync(action model.IdentityAction, email string) model.SideEffectOutcome {
	d.calls = append(d.calls, string(action)+":"+email)
	return model.SideEffectOutcome{Name: "identity." + string(action), Status: model.SideEffectQueued}
}

func newTestService(dispatcher *recordingDispatcher) (UserService, *fakeUserRepo) {
	repo := &fakeUserRepo{users: map[uint]*model.User{
		1: {ID: 1, Email: "active@example.com", IsActive: true},
		2: {ID: 2, Email: "inactive@example.com", IsActive: false},
	}}
	tm := &fakeTM{repos: repository.Repositories{User: repo}}
	if dispatcher == nil {
		return NewUserService(tm, nil), repo
	}
	return NewUserService(tm, dispatcher), repo
}

func TestSetActive(t *testing.T) {
	tests := []struct {
		name      string
		userID    uint
		activate  bool
		wantErr   error
		wantCall  string
		wantState bool
	}{
		{name: "停用启用中的用户", userID: 1, activate: false, wantCall: "disable:active@example.com", wantState: false},
		{name: "启用停用中的用户", userID: 2, activate: true, wantCall: "enable:inactive@example.com", wantState: true},
		{name: "重复停用", userID: 2, activate: false, wantErr: constant.ErrConflict, wantState: false},
		{name: "重复启用", userID: 1, activate: true, wantErr: constant.ErrConflict, wantState: true},
		{name: "用户不存在", userID: 9, activate: true, wantErr: constant.ErrUserNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dispatcher := &recordingDispatcher{}
			svc, repo := newTestService(dispatcher)

			var (
				result *model.UserStatusResult
				err    error
			)
			if tt.activate {
				result, err = svc.Activate(context.Background(), tt.userID)
			} else {
				result, err = svc.Deactivate(context.Background(), tt.userID)
			}

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, dispatcher.calls, "失败时不派发副作用")
				if u, ok := repo.users[tt.userID]; ok {
					assert.Equal(t, tt.wantState, u.IsActive)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantState, result.IsActive)
			assert.Equal(t, tt.wantState, repo.users[tt.userID].IsActive)
			assert.Equal(t, []string{tt.wantCall}, dispatcher.calls)
			require.Len(t, result.SideEffects, 1)
			assert.Equal(t, model.SideEffectQueued, result.SideEffects[0].Status)
		})
	}
}

func TestSetActiveWithoutDispatcher(t *testing.T) {
	svc, _ := newTestService(nil)
	result, err := svc.Deactivate(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, result.SideEffects, 1)
	assert.Equal(t, model.SideEffectSkipped, result.SideEffects[0].Status)
}

func TestSetActiveWrapsRepositoryError(t *testing.T) {
	svc, repo := newTestService(&recordingDispatcher{})
	repo.setActErr = errors.New("连接已断开")

	_, err := svc.Deactivate(context.Background(), 1)
	require.Error(t, err)
	assert.Equal(t, "INTERNAL", constant.Describe(err).Kind)
}
