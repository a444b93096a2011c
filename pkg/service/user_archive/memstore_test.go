package user_archive

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/anzhiyu-c/anheyu-archive/pkg/constant"
	"github.com/anzhiyu-c/anheyu-archive/pkg/domain/model"
	"github.com/anzhiyu-c/anheyu-archive/pkg/domain/repository"
)

// memData 模拟数据库中的表，外键级联与唯一约束按真实表结构实现
type memData struct {
	seq              uint
	users            map[uint]model.User
	posts            map[uint]model.Post
	comments         map[uint]model.Comment
	tags             map[uint]model.Tag
	postTags         map[[2]uint]bool
	archivedPosts    map[uint]model.ArchivedPost
	archivedPostTags map[[2]uint]bool
	archivedComments map[uint]model.ArchivedComment
	archivedUsers    map[uint]model.ArchivedUser
}

func newMemData() *memData {
	return &memData{
		users:            map[uint]model.User{},
		posts:            map[uint]model.Post{},
		comments:         map[uint]model.Comment{},
		tags:             map[uint]model.Tag{},
		postTags:         map[[2]uint]bool{},
		archivedPosts:    map[uint]model.ArchivedPost{},
		archivedPostTags: map[[2]uint]bool{},
		archivedComments: map[uint]model.ArchivedComment{},
		archivedUsers:    map[uint]model.ArchivedUser{},
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (d *memData) clone() *memData {
	return &memData{
		seq:              d.seq,
		users:            cloneMap(d.users),
		posts:            cloneMap(d.posts),
		comments:         cloneMap(d.comments),
		tags:             cloneMap(d.tags),
		postTags:         cloneMap(d.postTags),
		archivedPosts:    cloneMap(d.archivedPosts),
		archivedPostTags: cloneMap(d.archivedPostTags),
		archivedComments: cloneMap(d.archivedComments),
		archivedUsers:    cloneMap(d.archivedUsers),
	}
}

func (d *memData) nextID() uint {
	d.seq++
	return d.seq
}

func (d *memData) deletePost(id uint) {
	delete(d.posts, id)
	for cid, c := range d.comments {
		if c.PostID == id {
			delete(d.comments, cid)
		}
	}
	for k := range d.postTags {
		if k[0] == id {
			delete(d.postTags, k)
		}
	}
}

func (d *memData) deleteArchivedPost(id uint) {
	delete(d.archivedPosts, id)
	for cid, c := range d.archivedComments {
		if c.ArchivedPostID == id {
			delete(d.archivedComments, cid)
		}
	}
	for k := range d.archivedPostTags {
		if k[0] == id {
			delete(d.archivedPostTags, k)
		}
	}
}

// memStore 持有当前已提交的数据，事务在副本上执行，成功后整体替换
type memStore struct {
	mu   sync.Mutex
	data *memData

	// hideArchived 让 FindByOriginalUserID 始终返回未找到，用于模拟并发下的检查竞争
	hideArchived bool
	// failOn 在指定操作上返回错误，用于验证回滚
	failOn string
}

func newMemStore() *memStore {
	return &memStore{data: newMemData()}
}

func (s *memStore) repos(d *memData) repository.Repositories {
	return repository.Repositories{
		User:         &memUserRepo{s: s, d: d},
		Post:         &memPostRepo{s: s, d: d},
		Comment:      &memCommentRepo{s: s, d: d},
		Tag:          &memTagRepo{d: d},
		ArchivedPost: &memArchivedPostRepo{d: d},
		ArchivedUser: &memArchivedUserRepo{s: s, d: d},
	}
}

// Do 实现了 repository.TransactionManager
func (s *memStore) Do(ctx context.Context, fn func(repos repository.Repositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := s.data.clone()
	if err := fn(s.repos(tx)); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.data = tx
	return nil
}

// committed 返回一组读取已提交数据的仓储
func (s *memStore) committed() repository.Repositories {
	return s.repos(s.data)
}

func (s *memStore) fail(op string) error {
	if s.failOn == op {
		return fmt.Errorf("模拟的数据库错误: %s", op)
	}
	return nil
}

// --- 用户 ---

type memUserRepo struct {
	s *memStore
	d *memData
}

func (r *memUserRepo) FindByID(_ context.Context, id uint) (*model.User, error) {
	u, ok := r.d.users[id]
	if !ok {
		return nil, constant.ErrNotFound
	}
	return &u, nil
}

func (r *memUserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range r.d.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, constant.ErrNotFound
}

func (r *memUserRepo) Create(_ context.Context, p *model.CreateUserParams) (*model.User, error) {
	if err := r.s.fail("user.create"); err != nil {
		return nil, err
	}
	for _, u := range r.d.users {
		if u.Email == p.Email {
			return nil, constant.ErrDuplicate
		}
	}
	role := p.Role
	if role == "" {
		role = model.RoleUser
	}
	now := time.Now().UTC()
	u := model.User{
		ID: r.d.nextID(), IdentityID: p.IdentityID, Email: p.Email, FirstName: p.FirstName, LastName: p.LastName,
		Role: role, IsActive: true, CreatedAt: now, UpdatedAt: now,
	}
	r.d.users[u.ID] = u
	return &u, nil
}

func (r *memUserRepo) Delete(_ context.Context, id uint) error {
	if err := r.s.fail("user.delete"); err != nil {
		return err
	}
	if _, ok := r.d.users[id]; !ok {
		return constant.ErrNotFound
	}
	delete(r.d.users, id)
	for pid, p := range r.d.posts {
		if p.UserID == id {
			r.d.deletePost(pid)
		}
	}
	for cid, c := range r.d.comments {
		if c.UserID == id {
			delete(r.d.comments, cid)
		}
	}
	for aid, a := range r.d.archivedPosts {
		if a.UserID == id {
			r.d.deleteArchivedPost(aid)
		}
	}
	return nil
}

func (r *memUserRepo) SetActive(_ context.Context, id uint, active bool) error {
	u, ok := r.d.users[id]
	if !ok {
		return constant.ErrNotFound
	}
	u.IsActive = active
	r.d.users[id] = u
	return nil
}

// --- 文章 ---

type memPostRepo struct {
	s *memStore
	d *memData
}

func (r *memPostRepo) FindByID(_ context.Context, id uint) (*model.Post, error) {
	p, ok := r.d.posts[id]
	if !ok {
		return nil, constant.ErrNotFound
	}
	return &p, nil
}

func (r *memPostRepo) Create(_ context.Context, params *model.CreatePostParams) (*model.Post, error) {
	if err := r.s.fail("post.create"); err != nil {
		return nil, err
	}
	if _, ok := r.d.users[params.UserID]; !ok {
		return nil, fmt.Errorf("外键约束失败: users(%d)", params.UserID)
	}
	id := params.ID
	if id == 0 {
		id = r.d.nextID()
	} else if _, ok := r.d.posts[id]; ok {
		return nil, constant.ErrConflict
	}
	p := model.Post{
		ID: id, Title: params.Title, Description: params.Description, UserID: params.UserID,
		CreatedAt: params.CreatedAt, UpdatedAt: params.UpdatedAt, DeletedAt: params.DeletedAt,
	}
	r.d.posts[id] = p
	return &p, nil
}

func (r *memPostRepo) Update(_ context.Context, id uint, params *model.UpdatePostParams) (*model.Post, error) {
	p, ok := r.d.posts[id]
	if !ok {
		return nil, constant.ErrNotFound
	}
	if params.Title != nil {
		p.Title = *params.Title
	}
	if params.Description != nil {
		p.Description = *params.Description
	}
	r.d.posts[id] = p
	return &p, nil
}

func (r *memPostRepo) Delete(_ context.Context, id uint) error {
	if _, ok := r.d.posts[id]; !ok {
		return constant.ErrNotFound
	}
	r.d.deletePost(id)
	return nil
}

func (r *memPostRepo) ListAllByUserID(_ context.Context, userID uint) ([]*model.Post, error) {
	var out []*model.Post
	for _, p := range r.d.posts {
		if p.UserID == userID {
			p := p
			out = append(out, &p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// --- 评论 ---

type memCommentRepo struct {
	s *memStore
	d *memData
}

func (r *memCommentRepo) sorted(match func(model.Comment) bool) []*model.Comment {
	var out []*model.Comment
	for _, c := range r.d.comments {
		if match(c) {
			c := c
			if u, ok := r.d.users[c.UserID]; ok {
				c.User = &model.UserSummary{ID: u.ID, Email: u.Email, FirstName: u.FirstName, LastName: u.LastName}
			}
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *memCommentRepo) ListByPostID(_ context.Context, postID uint) ([]*model.Comment, error) {
	return r.sorted(func(c model.Comment) bool { return c.PostID == postID }), nil
}

func (r *memCommentRepo) ListAllByUserID(_ context.Context, userID uint) ([]*model.Comment, error) {
	return r.sorted(func(c model.Comment) bool { return c.UserID == userID }), nil
}

func (r *memCommentRepo) Create(_ context.Context, params *model.CreateCommentParams) (*model.Comment, error) {
	if err := r.s.fail("comment.create"); err != nil {
		return nil, err
	}
	if _, ok := r.d.posts[params.PostID]; !ok {
		return nil, fmt.Errorf("外键约束失败: posts(%d)", params.PostID)
	}
	if _, ok := r.d.users[params.UserID]; !ok {
		return nil, fmt.Errorf("外键约束失败: users(%d)", params.UserID)
	}
	id := params.ID
	if id == 0 {
		id = r.d.nextID()
	}
	c := model.Comment{
		ID: id, Text: params.Text, PostID: params.PostID, UserID: params.UserID,
		CreatedAt: params.CreatedAt, UpdatedAt: params.UpdatedAt,
	}
	r.d.comments[id] = c
	return &c, nil
}

// --- 标签 ---

type memTagRepo struct {
	d *memData
}

func (r *memTagRepo) FindByName(_ context.Context, name string) (*model.Tag, error) {
	for _, t := range r.d.tags {
		if t.Name == name {
			t := t
			return &t, nil
		}
	}
	return nil, constant.ErrNotFound
}

func (r *memTagRepo) Create(ctx context.Context, p *model.CreateTagParams) (*model.Tag, error) {
	if _, err := r.FindByName(ctx, p.Name); err == nil {
		return nil, constant.ErrDuplicate
	}
	t := model.Tag{ID: r.d.nextID(), Name: p.Name, Description: p.Description}
	r.d.tags[t.ID] = t
	return &t, nil
}

func (r *memTagRepo) EnsureByName(ctx context.Context, p *model.CreateTagParams) (*model.Tag, error) {
	if t, err := r.FindByName(ctx, p.Name); err == nil {
		return t, nil
	}
	t := model.Tag{ID: r.d.nextID(), Name: p.Name, Description: p.Description}
	r.d.tags[t.ID] = t
	return &t, nil
}

func (r *memTagRepo) AddToPost(_ context.Context, postID, tagID uint) error {
	if _, ok := r.d.posts[postID]; !ok {
		return fmt.Errorf("外键约束失败: posts(%d)", postID)
	}
	r.d.postTags[[2]uint{postID, tagID}] = true
	return nil
}

func (r *memTagRepo) RemoveFromPost(_ context.Context, postID, tagID uint) error {
	delete(r.d.postTags, [2]uint{postID, tagID})
	return nil
}

func (r *memTagRepo) ListByPostID(_ context.Context, postID uint) ([]*model.Tag, error) {
	var out []*model.Tag
	for k := range r.d.postTags {
		if k[0] == postID {
			t := r.d.tags[k[1]]
			out = append(out, &t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// --- 归档文章（仅实现用户归档用到的方法） ---

type memArchivedPostRepo struct {
	repository.ArchivedPostRepository
	d *memData
}

func (r *memArchivedPostRepo) ListByUserID(_ context.Context, userID uint) ([]*model.ArchivedPost, error) {
	var out []*model.ArchivedPost
	for _, a := range r.d.archivedPosts {
		if a.UserID != userID {
			continue
		}
		a := a
		for k := range r.d.archivedPostTags {
			if k[0] == a.ID {
				t := r.d.tags[k[1]]
				a.Tags = append(a.Tags, &t)
			}
		}
		out = append(out, &a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memArchivedPostRepo) ListComments(_ context.Context, archivedPostID uint) ([]*model.ArchivedComment, error) {
	var out []*model.ArchivedComment
	for _, c := range r.d.archivedComments {
		if c.ArchivedPostID == archivedPostID {
			c := c
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memArchivedPostRepo) ReassignCommentAuthor(_ context.Context, oldUserID, newUserID uint) (int, error) {
	n := 0
	for id, c := range r.d.archivedComments {
		if c.UserID == oldUserID {
			c.UserID = newUserID
			r.d.archivedComments[id] = c
			n++
		}
	}
	return n, nil
}

func (r *memArchivedPostRepo) CreateFromSnapshot(_ context.Context, p *model.CreateArchivedPostParams) (*model.ArchivedPost, error) {
	for _, a := range r.d.archivedPosts {
		if a.OriginalID == p.OriginalID {
			return nil, constant.ErrConflict
		}
	}
	a := model.ArchivedPost{
		ID: r.d.nextID(), OriginalID: p.OriginalID, Title: p.Title, Description: p.Description, UserID: p.UserID,
		CreatedAt: p.CreatedAt, UpdatedAt: p.UpdatedAt, ArchivedAt: p.ArchivedAt, CommentsCount: len(p.Comments),
	}
	r.d.archivedPosts[a.ID] = a
	for _, tagID := range p.TagIDs {
		r.d.archivedPostTags[[2]uint{a.ID, tagID}] = true
	}
	for _, c := range p.Comments {
		id := r.d.nextID()
		r.d.archivedComments[id] = model.ArchivedComment{
			ID: id, OriginalID: c.OriginalID, Text: c.Text, ArchivedPostID: a.ID, UserID: c.UserID,
			CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt,
		}
	}
	return &a, nil
}

// --- 归档用户 ---

type memArchivedUserRepo struct {
	s *memStore
	d *memData
}

func (r *memArchivedUserRepo) Create(_ context.Context, p *model.CreateArchivedUserParams) (*model.ArchivedUser, error) {
	for _, a := range r.d.archivedUsers {
		if a.OriginalUserID == p.OriginalUserID {
			return nil, constant.ErrUserAlreadyArchived
		}
	}
	// 与真实仓储一样经过一次编解码
	raw, err := model.EncodeUserSnapshot(p.Snapshot)
	if err != nil {
		return nil, err
	}
	snapshot, err := model.DecodeUserSnapshot(model.CurrentSnapshotVersion, raw)
	if err != nil {
		return nil, err
	}
	a := model.ArchivedUser{
		ID: r.d.nextID(), OriginalUserID: p.OriginalUserID, ArchivedAt: time.Now().UTC(),
		ArchivedBy: p.ArchivedBy, Snapshot: snapshot,
	}
	r.d.archivedUsers[a.ID] = a
	return &a, nil
}

func (r *memArchivedUserRepo) FindByID(_ context.Context, id uint) (*model.ArchivedUser, error) {
	a, ok := r.d.archivedUsers[id]
	if !ok {
		return nil, constant.ErrNotFound
	}
	return &a, nil
}

func (r *memArchivedUserRepo) FindByOriginalUserID(_ context.Context, originalUserID uint) (*model.ArchivedUser, error) {
	if r.s.hideArchived {
		return nil, constant.ErrNotFound
	}
	for _, a := range r.d.archivedUsers {
		if a.OriginalUserID == originalUserID {
			a := a
			return &a, nil
		}
	}
	return nil, constant.ErrNotFound
}

func (r *memArchivedUserRepo) List(_ context.Context, limit, offset int, search string) (*repository.PageResult[model.ArchivedUser], error) {
	var all []*model.ArchivedUser
	for _, a := range r.d.archivedUsers {
		if search != "" && !strings.Contains(strings.ToLower(a.Snapshot.User.Email), strings.ToLower(search)) {
			continue
		}
		a := a
		all = append(all, &a)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	total := int64(len(all))
	if offset > len(all) {
		offset = len(all)
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return &repository.PageResult[model.ArchivedUser]{Items: all, Total: total}, nil
}

func (r *memArchivedUserRepo) Delete(_ context.Context, id uint) error {
	if _, ok := r.d.archivedUsers[id]; !ok {
		return constant.ErrNotFound
	}
	delete(r.d.archivedUsers, id)
	return nil
}

// liveArchivedUserRepo 在事务之外读取最新提交的数据
type liveArchivedUserRepo struct {
	s *memStore
}

func (r *liveArchivedUserRepo) repo() *memArchivedUserRepo {
	return &memArchivedUserRepo{s: r.s, d: r.s.data}
}

func (r *liveArchivedUserRepo) Create(ctx context.Context, p *model.CreateArchivedUserParams) (*model.ArchivedUser, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.repo().Create(ctx, p)
}

func (r *liveArchivedUserRepo) FindByID(ctx context.Context, id uint) (*model.ArchivedUser, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.repo().FindByID(ctx, id)
}

func (r *liveArchivedUserRepo) FindByOriginalUserID(ctx context.Context, id uint) (*model.ArchivedUser, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.repo().FindByOriginalUserID(ctx, id)
}

func (r *liveArchivedUserRepo) List(ctx context.Context, limit, offset int, search string) (*repository.PageResult[model.ArchivedUser], error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.repo().List(ctx, limit, offset, search)
}

func (r *liveArchivedUserRepo) Delete(ctx context.Context, id uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.repo().Delete(ctx, id)
}
