/*
 * @Description: 文章归档、恢复与归档查询
 * @Author: 安知鱼
 * @Date: 2026-03-10 11:50:29
 * @LastEditTime: 2026-03-21 11:21:32
 * @LastEditors: 安知鱼
 */
package archive

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
)

// Service 封装了文章级归档的业务逻辑。
type Service struct {
	tm               repository.TransactionManager
	postRepo         repository.PostRepository
	archivedPostRepo repository.ArchivedPostRepository
	eventBus         *event.EventBus
}

// NewService 是归档 Service 的构造函数。eventBus 可以为 nil。
func NewService(
	tm repository.TransactionManager,
	postRepo repository.PostRepository,
	archivedPostRepo repository.ArchivedPostRepository,
	eventBus *event.EventBus,
) *Service {
	return &Service{
		tm:               tm,
		postRepo:         postRepo,
		archivedPostRepo: archivedPostRepo,
		eventBus:         eventBus,
	}
}

// ToAPIResponse 将归档文章领域模型转换为用于API响应的DTO。
func ToAPIResponse(p *model.ArchivedPost) *model.ArchivedPostResponse {
	if p == nil {
		return nil
	}
	resp := &model.ArchivedPostResponse{
		ID:            idgen.MustPublicID(p.ID, idgen.EntityTypeArchivedPost),
		OriginalID:    idgen.MustPublicID(p.OriginalID, idgen.EntityTypePost),
		Title:         p.Title,
		Description:   p.Description,
		CommentsCount: p.CommentsCount,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
		ArchivedAt:    p.ArchivedAt,
		Tags:          make([]*model.TagResponse, 0, len(p.Tags)),
	}
	if p.User != nil {
		resp.User = &model.UserSummaryResponse{
			ID:        idgen.MustPublicID(p.User.ID, idgen.EntityTypeUser),
			Email:     p.User.Email,
			FirstName: p.User.FirstName,
			LastName:  p.User.LastName,
		}
	}
	for _, t := range p.Tags {
		resp.Tags = append(resp.Tags, &model.TagResponse{
			ID:          idgen.MustPublicID(t.ID, idgen.EntityTypeTag),
			Name:        t.Name,
			Description: t.Description,
		})
	}
	return resp
}

func toCommentResponse(c *model.ArchivedComment) *model.ArchivedCommentResponse {
	return &model.ArchivedCommentResponse{
		ID:         idgen.MustPublicID(c.ID, idgen.EntityTypeArchivedComment),
		OriginalID: idgen.MustPublicID(c.OriginalID, idgen.EntityTypeComment),
		Text:       c.Text,
		UserID:     idgen.MustPublicID(c.UserID, idgen.EntityTypeUser),
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}

// ArchivePost 归档一篇文章。
// 先确认文章存在，再判断调用者是否为作者或拥有归档任意文章的能力。
func (s *Service) ArchivePost(ctx context.Context, postID uint, actor model.Actor) (*model.ArchivedPostResponse, error) {
	post, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		if errors.Is(err, constant.ErrNotFound) {
			return nil, constant.ErrPostNotFound
		}
		return nil, fmt.Errorf("获取文章信息失败: %w", err)
	}

	if !actor.Role.CanArchivePost(post.UserID, actor.UserID) {
		return nil, constant.ErrForbidden
	}

	var archived *model.ArchivedPost
	err = s.tm.Do(ctx, func(repos repository.Repositories) error {
		var txErr error
		archived, txErr = repos.ArchivedPost.Archive(ctx, postID)
		return txErr
	})
	if err != nil {
		// 并发归档时，后到的请求会发现文章已经不存在
		if errors.Is(err, constant.ErrPostNotFound) {
			return nil, err
		}
		log.Printf("【归档】归档文章 %d 失败: %v", postID, err)
		return nil, fmt.Errorf("%w: %v", constant.ErrArchiveFailed, err)
	}

	log.Printf("【归档】用户 %d 归档了文章 %d，归档ID %d", actor.UserID, postID, archived.ID)
	if s.eventBus != nil {
		s.eventBus.Publish(event.PostArchived, event.PostArchivedPayload{
			ArchivedPostID: archived.ID,
			OriginalPostID: archived.OriginalID,
			ActorID:        actor.UserID,
		})
	}
	return ToAPIResponse(archived), nil
}

// RestoreArchivedPost 使用原始 ID 恢复文章及其评论、标签关联。
func (s *Service) RestoreArchivedPost(ctx context.Context, archivedPostID uint) (*model.RestoreArchivedPostResponse, error) {
	var postID uint
	err := s.tm.Do(ctx, func(repos repository.Repositories) error {
		var txErr error
		postID, txErr = repos.ArchivedPost.Restore(ctx, archivedPostID)
		return txErr
	})
	if err != nil {
		if errors.Is(err, constant.ErrNotFound) {
			return nil, err
		}
		log.Printf("【归档】恢复归档文章 %d 失败: %v", archivedPostID, err)
		return nil, fmt.Errorf("%w: %v", constant.ErrRestoreFailed, err)
	}

	log.Printf("【归档】归档文章 %d 已恢复为文章 %d", archivedPostID, postID)
	return &model.RestoreArchivedPostResponse{
		Success: true,
		PostID:  idgen.MustPublicID(postID, idgen.EntityTypePost),
	}, nil
}

// DeleteArchivedPost 永久删除归档文章，不做恢复。
func (s *Service) DeleteArchivedPost(ctx context.Context, archivedPostID uint) (*model.ArchivedPostResponse, error) {
	var deleted *model.ArchivedPost
	err := s.tm.Do(ctx, func(repos repository.Repositories) error {
		var txErr error
		deleted, txErr = repos.ArchivedPost.Delete(ctx, archivedPostID)
		return txErr
	})
	if err != nil {
		if errors.Is(err, constant.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("删除归档文章失败: %w", err)
	}
	log.Printf("【归档】归档文章 %d（原文章 %d）已被永久删除", deleted.ID, deleted.OriginalID)
	return ToAPIResponse(deleted), nil
}

// ListArchivedPosts 分页查询归档文章。
func (s *Service) ListArchivedPosts(ctx context.Context, req *model.ListArchivedPostsRequest) (*model.ArchivedPostListResponse, error) {
	q, err := toQuery(req)
	if err != nil {
		return nil, err
	}

	page, err := s.archivedPostRepo.List(ctx, q)
	if err != nil {
		return nil, err
	}

	posts := make([]*model.ArchivedPostResponse, len(page.Items))
	for i, p := range page.Items {
		posts[i] = ToAPIResponse(p)
	}
	return &model.ArchivedPostListResponse{Posts: posts, Total: page.Total}, nil
}

// toQuery 把请求参数转换为仓储查询，标签使用公共ID
func toQuery(req *model.ListArchivedPostsRequest) (*model.ArchivedPostQuery, error) {
	if req == nil {
		req = &model.ListArchivedPostsRequest{}
	}
	tagIDs, err := idgen.DecodePublicIDBatch(req.TagIDs, idgen.EntityTypeTag)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", constant.ErrBadRequest, err)
	}
	q := &model.ArchivedPostQuery{
		Limit:                 req.Limit,
		Offset:                req.Offset,
		Search:                req.Search,
		SortBy:                req.SortBy,
		SortOrder:             req.SortOrder,
		CommentsCountOperator: model.CountOperator(req.CommentsCountOperator),
		CommentsCountValue:    req.CommentsCountValue,
		TagIDs:                tagIDs,
	}
	if err := q.Normalize(); err != nil {
		return nil, fmt.Errorf("%w: %v", constant.ErrBadRequest, err)
	}
	return q, nil
}

// GetArchivedPost 获取单篇归档文章
func (s *Service) GetArchivedPost(ctx context.Context, archivedPostID uint) (*model.ArchivedPostResponse, error) {
	p, err := s.archivedPostRepo.FindByID(ctx, archivedPostID)
	if err != nil {
		return nil, err
	}
	return ToAPIResponse(p), nil
}

// ListArchivedComments 返回归档文章的全部评论
func (s *Service) ListArchivedComments(ctx context.Context, archivedPostID uint) ([]*model.ArchivedCommentResponse, error) {
	if _, err := s.archivedPostRepo.FindByID(ctx, archivedPostID); err != nil {
		return nil, err
	}
	comments, err := s.archivedPostRepo.ListComments(ctx, archivedPostID)
	if err != nil {
		return nil, err
	}
	resp := make([]*model.ArchivedCommentResponse, len(comments))
	for i, c := range comments {
		resp[i] = toCommentResponse(c)
	}
	return resp, nil
}
