package model

import "fmt"

// Role 是封闭的用户角色枚举。
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Capability 是角色可以拥有的能力。
type Capability int

const (
	// CapabilityArchiveOwnPost 归档自己的文章
	CapabilityArchiveOwnPost Capability = iota + 1
	// CapabilityArchiveAnyPost 归档任意用户的文章
	CapabilityArchiveAnyPost
	// CapabilityManageArchive 查看、恢复、永久删除归档文章
	CapabilityManageArchive
	// CapabilityManageUsers 归档、恢复、停用、启用用户
	CapabilityManageUsers
)

// ParseRole 将字符串解析为已知角色。
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleUser:
		return RoleUser, nil
	}
	return "", fmt.Errorf("未知的用户角色: %q", s)
}

// Valid 判断是否为已知角色。
func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// Can 判断角色是否拥有某项能力。新增角色时必须在这里补全分支。
func (r Role) Can(c Capability) bool {
	switch r {
	case RoleAdmin:
		switch c {
		case CapabilityArchiveOwnPost, CapabilityArchiveAnyPost, CapabilityManageArchive, CapabilityManageUsers:
			return true
		}
	case RoleUser:
		switch c {
		case CapabilityArchiveOwnPost:
			return true
		case CapabilityArchiveAnyPost, CapabilityManageArchive, CapabilityManageUsers:
			return false
		}
	}
	return false
}

// CanArchivePost 结合所有权判断 actor 能否归档 owner 的文章。
func (r Role) CanArchivePost(ownerID, actorID uint) bool {
	if r.Can(CapabilityArchiveAnyPost) {
		return true
	}
	return ownerID == actorID && r.Can(CapabilityArchiveOwnPost)
}

// Actor 表示发起操作的调用者。
type Actor struct {
	UserID uint
	Role   Role
}
