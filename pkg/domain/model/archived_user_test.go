package model

import (
	"errors"
	"testing"
	"time"

	"github.com/anzhiyu-c/anheyu-archive/pkg/constant"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSnapshot() *UserSnapshot {
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	return &UserSnapshot{
		User: SnapshotUser{ID: 3, Email: "a@example.com", FirstName: "An", LastName: "Zhi", Role: RoleUser, CreatedAt: now, UpdatedAt: now},
		Posts: []SnapshotPost{
			{ID: 10, Title: "hello", CreatedAt: now, UpdatedAt: now, Tags: []SnapshotTag{{ID: 1, Name: "go"}}},
		},
		CommentsOnPosts: []SnapshotCommentOnPost{
			{ID: 100, Text: "nice", PostID: 10, CreatedAt: now, UpdatedAt: now, User: SnapshotCommentUser{ID: 4}},
		},
		UserComments: []SnapshotComment{
			{ID: 200, Text: "me too", PostID: 20, UserID: 3, CreatedAt: now, UpdatedAt: now},
		},
	}
}

func TestSnapshotEncodeDecode(t *testing.T) {
	raw, err := EncodeUserSnapshot(sampleSnapshot())
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"version":1`)
	assert.Contains(t, string(raw), `"userData"`)
	assert.Contains(t, string(raw), `"commentsOnPostsData"`)

	s, err := DecodeUserSnapshot(CurrentSnapshotVersion, raw)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", s.User.Email)
	require.Len(t, s.Posts, 1)
	assert.Equal(t, "go", s.Posts[0].Tags[0].Name)
	assert.Equal(t, uint(4), s.CommentsOnPosts[0].User.ID)
}

func TestDecodeUnknownVersion(t *testing.T) {
	tests := []struct {
		name    string
		version int
		raw     string
	}{
		{"未来版本", 99, `{"version":99}`},
		{"列版本与文档版本不一致", 1, `{"version":2}`},
		{"零版本", 0, `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeUserSnapshot(tt.version, []byte(tt.raw))
			assert.True(t, errors.Is(err, constant.ErrUnsupportedSnapshotVersion))
		})
	}
}

func TestRestoreUserData(t *testing.T) {
	data, err := RestoreUserData(&ArchivedUser{ID: 1, OriginalUserID: 3, Snapshot: sampleSnapshot()})
	require.NoError(t, err)
	assert.Equal(t, uint(3), data.User.ID)
	assert.Len(t, data.UserComments, 1)

	_, err = RestoreUserData(&ArchivedUser{ID: 1})
	assert.Error(t, err)
}

func TestListArchivedUsersRequestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   ListArchivedUsersRequest
		want ListArchivedUsersRequest
	}{
		{name: "超过上限", in: ListArchivedUsersRequest{Limit: 1000, Offset: -3}, want: ListArchivedUsersRequest{Limit: MaxArchiveListLimit}},
		{name: "零值", in: ListArchivedUsersRequest{}, want: ListArchivedUsersRequest{Limit: DefaultArchiveListLimit}},
		{name: "合法值", in: ListArchivedUsersRequest{Limit: 30, Offset: 60, Search: "bob"}, want: ListArchivedUsersRequest{Limit: 30, Offset: 60, Search: "bob"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.in
			req.Normalize()
			assert.Equal(t, tt.want, req)
		})
	}
}

func TestArchivedPostQueryNormalize(t *testing.T) {
	q := &ArchivedPostQuery{Limit: 1000, Offset: -3}
	require.NoError(t, q.Normalize())
	assert.Equal(t, MaxArchiveListLimit, q.Limit)
	assert.Equal(t, 0, q.Offset)
	assert.Equal(t, ArchivedPostSortCreatedAt, q.SortBy)
	assert.Equal(t, SortOrderAsc, q.SortOrder)

	bad := &ArchivedPostQuery{CommentsCountOperator: ">"}
	assert.Error(t, bad.Normalize())

	blank := &ArchivedPostQuery{CommentsCountOperator: CountIsBlank}
	assert.NoError(t, blank.Normalize())

	assert.Error(t, (&ArchivedPostQuery{SortBy: "views"}).Normalize())
}
