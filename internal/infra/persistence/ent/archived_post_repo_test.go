package ent

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/anzhiyu-c/anheyu-archive/internal/infra/persistence/database"
	"github.com/anzhiyu-c/anheyu-archive/pkg/constant"
	"github.com/anzhiyu-c/anheyu-archive/pkg/domain/model"
	"github.com/anzhiyu-c/anheyu-archive/pkg/domain/repository"

	"entgo.io/ent/dialect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testStore struct {
	drv   dialect.Driver
	tm    repository.TransactionManager
	repos repository.Repositories
}

func newSQLiteStore(t *testing.T) *testStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "archive_test.db")
	db, err := database.Open(dialect.SQLite, database.SQLiteDSN(path))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	drv, err := database.NewDriver(context.Background(), db, dialect.SQLite, false)
	require.NoError(t, err)
	return &testStore{
		drv:   drv,
		tm:    NewEntTransactionManager(drv),
		repos: NewRepositories(drv, dialect.SQLite),
	}
}

func (s *testStore) user(t *testing.T, email string) *model.User {
	t.Helper()
	u, err := s.repos.User.Create(context.Background(), &model.CreateUserParams{
		Email: email, FirstName: "F-" + email, LastName: "L-" + email, Role: model.RoleUser,
	})
	require.NoError(t, err)
	return u
}

func (s *testStore) tag(t *testing.T, name string) *model.Tag {
	t.Helper()
	ctx := context.Background()
	if tag, err := s.repos.Tag.FindByName(ctx, name); err == nil {
		return tag
	}
	tag, err := s.repos.Tag.Create(ctx, &model.CreateTagParams{Name: name})
	require.NoError(t, err)
	return tag
}

// post 创建文章，并为 commenters 中的每个用户各添加一条评论
func (s *testStore) post(t *testing.T, owner *model.User, title string, tags []string, commenters ...*model.User) *model.Post {
	t.Helper()
	ctx := context.Background()
	p, err := s.repos.Post.Create(ctx, &model.CreatePostParams{Title: title, Description: "about " + title, UserID: owner.ID})
	require.NoError(t, err)
	for _, name := range tags {
		require.NoError(t, s.repos.Tag.AddToPost(ctx, p.ID, s.tag(t, name).ID))
	}
	for i, c := range commenters {
		_, err := s.repos.Comment.Create(ctx, &model.CreateCommentParams{
			Text: fmt.Sprintf("comment %d on %s", i, title), PostID: p.ID, UserID: c.ID,
		})
		require.NoError(t, err)
	}
	return p
}

func (s *testStore) archive(t *testing.T, postID uint) *model.ArchivedPost {
	t.Helper()
	var archived *model.ArchivedPost
	err := s.tm.Do(context.Background(), func(repos repository.Repositories) error {
		var err error
		archived, err = repos.ArchivedPost.Archive(context.Background(), postID)
		return err
	})
	require.NoError(t, err)
	return archived
}

func tagNames(tags []*model.Tag) []string {
	names := make([]string, 0, len(tags))
	for _, t := range tags {
		names = append(names, t.Name)
	}
	sort.Strings(names)
	return names
}

func TestArchivePostRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	owner := s.user(t, "owner@example.com")
	other := s.user(t, "other@example.com")
	p := s.post(t, owner, "hello world", []string{"go", "sql"}, owner, other)

	before, err := s.repos.Comment.ListByPostID(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, before, 2)

	archived := s.archive(t, p.ID)
	assert.Equal(t, p.ID, archived.OriginalID)
	assert.Equal(t, 2, archived.CommentsCount)
	assert.Equal(t, []string{"go", "sql"}, tagNames(archived.Tags))
	require.NotNil(t, archived.User)
	assert.Equal(t, "owner@example.com", archived.User.Email)

	_, err = s.repos.Post.FindByID(ctx, p.ID)
	assert.ErrorIs(t, err, constant.ErrNotFound)
	gone, err := s.repos.Comment.ListByPostID(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, gone)

	page, err := s.repos.ArchivedPost.List(ctx, &model.ArchivedPostQuery{})
	require.NoError(t, err)
	require.Equal(t, int64(1), page.Total)
	assert.Equal(t, p.ID, page.Items[0].OriginalID)

	var restoredID uint
	err = s.tm.Do(ctx, func(repos repository.Repositories) error {
		var err error
		restoredID, err = repos.ArchivedPost.Restore(ctx, archived.ID)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, p.ID, restoredID)

	restored, err := s.repos.Post.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Title, restored.Title)
	assert.Equal(t, owner.ID, restored.UserID)
	assert.True(t, p.CreatedAt.Equal(restored.CreatedAt))

	after, err := s.repos.Comment.ListByPostID(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, after, 2)
	for i := range before {
		assert.Equal(t, before[i].ID, after[i].ID)
		assert.Equal(t, before[i].Text, after[i].Text)
		assert.Equal(t, before[i].UserID, after[i].UserID)
	}

	tags, err := s.repos.Tag.ListByPostID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "sql"}, tagNames(tags))

	page, err = s.repos.ArchivedPost.List(ctx, &model.ArchivedPostQuery{})
	require.NoError(t, err)
	assert.Zero(t, page.Total)
}

func TestArchivePostWithoutTagsOrComments(t *testing.T) {
	s := newSQLiteStore(t)
	owner := s.user(t, "bare@example.com")
	p := s.post(t, owner, "bare", nil)

	archived := s.archive(t, p.ID)
	assert.Empty(t, archived.Tags)
	assert.Zero(t, archived.CommentsCount)
}

func TestArchivePostNotFound(t *testing.T) {
	s := newSQLiteStore(t)
	err := s.tm.Do(context.Background(), func(repos repository.Repositories) error {
		_, err := repos.ArchivedPost.Archive(context.Background(), 404)
		return err
	})
	assert.ErrorIs(t, err, constant.ErrPostNotFound)
}

func TestRestoreArchivedPostNotFound(t *testing.T) {
	s := newSQLiteStore(t)
	err := s.tm.Do(context.Background(), func(repos repository.Repositories) error {
		_, err := repos.ArchivedPost.Restore(context.Background(), 404)
		return err
	})
	assert.ErrorIs(t, err, constant.ErrNotFound)
}

func TestArchiveRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	owner := s.user(t, "rb@example.com")
	p := s.post(t, owner, "keep me", []string{"go"}, owner)

	boom := errors.New("boom")
	err := s.tm.Do(ctx, func(repos repository.Repositories) error {
		if _, err := repos.ArchivedPost.Archive(ctx, p.ID); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = s.repos.Post.FindByID(ctx, p.ID)
	assert.NoError(t, err)
	page, err := s.repos.ArchivedPost.List(ctx, &model.ArchivedPostQuery{})
	require.NoError(t, err)
	assert.Zero(t, page.Total)
}

func TestArchiveRollsBackOnCancelledContext(t *testing.T) {
	s := newSQLiteStore(t)
	owner := s.user(t, "cancel@example.com")
	p := s.post(t, owner, "cancel", nil)

	ctx, cancel := context.WithCancel(context.Background())
	err := s.tm.Do(ctx, func(repos repository.Repositories) error {
		if _, err := repos.ArchivedPost.Archive(ctx, p.ID); err != nil {
			return err
		}
		cancel()
		return nil
	})
	require.Error(t, err)

	_, err = s.repos.Post.FindByID(context.Background(), p.ID)
	assert.NoError(t, err)
}

func TestListArchivedPostsFilters(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	u := s.user(t, "list@example.com")
	c := s.user(t, "commenter@example.com")

	a := s.post(t, u, "Alpha release notes", []string{"go"}, u, c)
	b := s.post(t, u, "Beta plans", nil)
	g := s.post(t, u, "Gamma retro", []string{"db"}, c)
	for _, p := range []*model.Post{a, b, g} {
		s.archive(t, p.ID)
	}

	zero, one := 0, 1
	tests := []struct {
		name      string
		query     model.ArchivedPostQuery
		wantTotal int64
		wantFirst string
		wantLen   int
	}{
		{"默认按归档时间升序", model.ArchivedPostQuery{}, 3, "Alpha release notes", 3},
		{"评论数大于0且分页", model.ArchivedPostQuery{Limit: 1, CommentsCountOperator: model.CountGT, CommentsCountValue: &zero}, 2, "Alpha release notes", 1},
		{"评论数大于0第二页", model.ArchivedPostQuery{Limit: 1, Offset: 1, CommentsCountOperator: model.CountGT, CommentsCountValue: &zero}, 2, "Gamma retro", 1},
		{"无评论", model.ArchivedPostQuery{CommentsCountOperator: model.CountIsBlank}, 1, "Beta plans", 1},
		{"有评论", model.ArchivedPostQuery{CommentsCountOperator: model.CountIsNotBlank}, 2, "Alpha release notes", 2},
		{"评论数等于1", model.ArchivedPostQuery{CommentsCountOperator: model.CountEQ, CommentsCountValue: &one}, 1, "Gamma retro", 1},
		{"评论数不等于1", model.ArchivedPostQuery{CommentsCountOperator: model.CountNE, CommentsCountValue: &one}, 2, "Alpha release notes", 2},
		{"按评论数降序", model.ArchivedPostQuery{SortBy: model.ArchivedPostSortCommentsCount, SortOrder: model.SortOrderDesc}, 3, "Alpha release notes", 3},
		{"按标题降序", model.ArchivedPostQuery{SortBy: model.ArchivedPostSortTitle, SortOrder: model.SortOrderDesc}, 3, "Gamma retro", 3},
		{"搜索标题", model.ArchivedPostQuery{Search: "beta"}, 1, "Beta plans", 1},
		{"搜索描述", model.ArchivedPostQuery{Search: "ABOUT GAMMA"}, 1, "Gamma retro", 1},
		{"分页越界", model.ArchivedPostQuery{Offset: 10}, 3, "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := tt.query
			page, err := s.repos.ArchivedPost.List(ctx, &q)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTotal, page.Total)
			require.Len(t, page.Items, tt.wantLen)
			if tt.wantLen > 0 {
				assert.Equal(t, tt.wantFirst, page.Items[0].Title)
			}
		})
	}

	t.Run("按标签过滤", func(t *testing.T) {
		goTag := s.tag(t, "go")
		dbTag := s.tag(t, "db")
		page, err := s.repos.ArchivedPost.List(ctx, &model.ArchivedPostQuery{TagIDs: []uint{goTag.ID}})
		require.NoError(t, err)
		require.Equal(t, int64(1), page.Total)
		assert.Equal(t, a.ID, page.Items[0].OriginalID)

		page, err = s.repos.ArchivedPost.List(ctx, &model.ArchivedPostQuery{TagIDs: []uint{goTag.ID, dbTag.ID}})
		require.NoError(t, err)
		assert.Equal(t, int64(2), page.Total)
	})

	t.Run("非法运算符", func(t *testing.T) {
		_, err := s.repos.ArchivedPost.List(ctx, &model.ArchivedPostQuery{CommentsCountOperator: "LIKE"})
		assert.ErrorIs(t, err, constant.ErrBadRequest)
	})
}

func TestDeleteArchivedPost(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	u := s.user(t, "del@example.com")
	p := s.post(t, u, "to delete", []string{"go"}, u)
	archived := s.archive(t, p.ID)

	deleted, err := s.repos.ArchivedPost.Delete(ctx, archived.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, deleted.OriginalID)
	assert.Equal(t, 1, deleted.CommentsCount)

	_, err = s.repos.ArchivedPost.FindByID(ctx, archived.ID)
	assert.ErrorIs(t, err, constant.ErrNotFound)
	comments, err := s.repos.ArchivedPost.ListComments(ctx, archived.ID)
	require.NoError(t, err)
	assert.Empty(t, comments)

	_, err = s.repos.ArchivedPost.Delete(ctx, archived.ID)
	assert.ErrorIs(t, err, constant.ErrNotFound)

	// 标签只会被引用，不会随归档一起删除
	_, err = s.repos.Tag.FindByName(ctx, "go")
	assert.NoError(t, err)
}

func TestRestoreSkipsCommentsOfDeletedAuthors(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	owner := s.user(t, "keep@example.com")
	gone := s.user(t, "gone@example.com")
	p := s.post(t, owner, "orphans", nil, owner, gone)
	archived := s.archive(t, p.ID)

	require.NoError(t, s.repos.User.Delete(ctx, gone.ID))

	err := s.tm.Do(ctx, func(repos repository.Repositories) error {
		_, err := repos.ArchivedPost.Restore(ctx, archived.ID)
		return err
	})
	require.NoError(t, err)

	comments, err := s.repos.Comment.ListByPostID(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, owner.ID, comments[0].UserID)
}

func TestDeleteArchivedBefore(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	u := s.user(t, "old@example.com")
	p := s.post(t, u, "old", nil)
	s.archive(t, p.ID)

	n, err := s.repos.ArchivedPost.DeleteArchivedBefore(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = s.repos.ArchivedPost.DeleteArchivedBefore(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCreateFromSnapshotAndListByUser(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	u := s.user(t, "snap@example.com")
	goTag := s.tag(t, "go")
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	created, err := s.repos.ArchivedPost.CreateFromSnapshot(ctx, &model.CreateArchivedPostParams{
		OriginalID: 9001, Title: "from snapshot", UserID: u.ID,
		CreatedAt: at, UpdatedAt: at, ArchivedAt: at,
		TagIDs:   []uint{goTag.ID},
		Comments: []model.CreateArchivedCommentParams{{OriginalID: 77, Text: "old", UserID: u.ID, CreatedAt: at, UpdatedAt: at}},
	})
	require.NoError(t, err)

	list, err := s.repos.ArchivedPost.ListByUserID(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)
	assert.Equal(t, uint(9001), list[0].OriginalID)
	assert.True(t, at.Equal(list[0].ArchivedAt))
	assert.Equal(t, []string{"go"}, tagNames(list[0].Tags))
	assert.Equal(t, 1, list[0].CommentsCount)

	comments, err := s.repos.ArchivedPost.ListComments(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, uint(77), comments[0].OriginalID)
}

func TestReassignCommentAuthor(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	owner := s.user(t, "host@example.com")
	guest := s.user(t, "guest@example.com")
	p := s.post(t, owner, "guest book", nil, owner, guest, guest)
	archived := s.archive(t, p.ID)

	// 模拟访客被归档后以新 ID 恢复
	require.NoError(t, s.repos.User.Delete(ctx, guest.ID))
	revived := s.user(t, "guest-again@example.com")

	tests := []struct {
		name     string
		from, to uint
		want     int
	}{
		{name: "迁移访客评论", from: guest.ID, to: revived.ID, want: 2},
		{name: "旧 ID 已无评论", from: guest.ID, to: revived.ID, want: 0},
		{name: "不存在的作者", from: 9999, to: revived.ID, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := s.repos.ArchivedPost.ReassignCommentAuthor(ctx, tt.from, tt.to)
			require.NoError(t, err)
			assert.Equal(t, tt.want, n)
		})
	}

	err := s.tm.Do(ctx, func(repos repository.Repositories) error {
		_, err := repos.ArchivedPost.Restore(ctx, archived.ID)
		return err
	})
	require.NoError(t, err)

	comments, err := s.repos.Comment.ListByPostID(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, comments, 3)
	authors := map[uint]int{}
	for _, c := range comments {
		authors[c.UserID]++
	}
	assert.Equal(t, map[uint]int{owner.ID: 1, revived.ID: 2}, authors)
}

func TestEnsureTagByName(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	existing := s.tag(t, "go")

	var first, second, fresh *model.Tag
	err := s.tm.Do(ctx, func(repos repository.Repositories) error {
		var err error
		if first, err = repos.Tag.EnsureByName(ctx, &model.CreateTagParams{Name: "go", Description: "忽略"}); err != nil {
			return err
		}
		if fresh, err = repos.Tag.EnsureByName(ctx, &model.CreateTagParams{Name: "rust", Description: "系统"}); err != nil {
			return err
		}
		second, err = repos.Tag.EnsureByName(ctx, &model.CreateTagParams{Name: "rust"})
		return err
	})
	require.NoError(t, err)

	assert.Equal(t, existing.ID, first.ID)
	assert.Empty(t, first.Description, "已存在的标签不应被覆盖")
	assert.Equal(t, fresh.ID, second.ID)
	assert.Equal(t, "系统", second.Description)

	found, err := s.repos.Tag.FindByName(ctx, "rust")
	require.NoError(t, err)
	assert.Equal(t, fresh.ID, found.ID)
}
