package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleCapabilities(t *testing.T) {
	tests := []struct {
		name string
		role Role
		cap  Capability
		want bool
	}{
		{"管理员可管理归档", RoleAdmin, CapabilityManageArchive, true},
		{"管理员可管理用户", RoleAdmin, CapabilityManageUsers, true},
		{"普通用户可归档自己的文章", RoleUser, CapabilityArchiveOwnPost, true},
		{"普通用户不可归档他人文章", RoleUser, CapabilityArchiveAnyPost, false},
		{"普通用户不可管理归档", RoleUser, CapabilityManageArchive, false},
		{"未知角色没有任何能力", Role("guest"), CapabilityArchiveOwnPost, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.role.Can(tt.cap))
		})
	}
}

func TestCanArchivePost(t *testing.T) {
	assert.True(t, RoleUser.CanArchivePost(7, 7))
	assert.False(t, RoleUser.CanArchivePost(7, 8))
	assert.True(t, RoleAdmin.CanArchivePost(7, 8))
	assert.False(t, Role("").CanArchivePost(7, 7))
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole("admin")
	assert.NoError(t, err)
	assert.Equal(t, RoleAdmin, r)

	_, err = ParseRole("root")
	assert.Error(t, err)
	assert.False(t, Role("root").Valid())
}
