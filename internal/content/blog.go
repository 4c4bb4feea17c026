package content

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/castport/internal/model"
	"github.com/hitoshi/castport/internal/repository"
	"github.com/hitoshi/castport/internal/security"
)

// BlogPostPatch は記事更新の部分パッチ。nilフィールドは変更しない。
type BlogPostPatch struct {
	Title   *string
	Content *string
}

// BlogService はブログ記事のビジネスロジックを提供する。
type BlogService struct {
	postRepo  repository.BlogPostRepository
	castRepo  repository.CastMemberRepository
	sanitizer security.ContentSanitizerService
}

// NewBlogService はBlogServiceを生成する。
func NewBlogService(
	postRepo repository.BlogPostRepository,
	castRepo repository.CastMemberRepository,
	sanitizer security.ContentSanitizerService,
) *BlogService {
	return &BlogService{
		postRepo:  postRepo,
		castRepo:  castRepo,
		sanitizer: sanitizer,
	}
}

// Create は下書き状態の記事を作成する。
// 操作者はキャストメンバープロフィールを持っている必要がある。
// 本文HTMLは保存前にサニタイズする。
func (s *BlogService) Create(ctx context.Context, user *model.User, title, content string) (*model.BlogPost, error) {
	member, err := s.castRepo.FindByUserID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve cast member profile: %w", err)
	}
	if member == nil {
		return nil, ErrForbidden
	}

	now := time.Now()
	post := &model.BlogPost{
		ID:        uuid.New().String(),
		AuthorID:  member.ID,
		Title:     title,
		Content:   s.sanitizer.Sanitize(content),
		Status:    model.PostStatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to create blog post: %w", err)
	}

	slog.Info("blog post created",
		slog.String("post_id", post.ID),
		slog.String("author_id", member.ID),
	)
	return post, nil
}

// ListPublished は公開済み記事の一覧を返す。
func (s *BlogService) ListPublished(ctx context.Context, limit int) ([]*model.BlogPost, error) {
	return s.postRepo.ListPublished(ctx, limit)
}

// GetPublished は公開済み記事を1件返す。
// 非公開ステータスの記事は存在しないものとして扱う。
func (s *BlogService) GetPublished(ctx context.Context, id string) (*model.BlogPost, error) {
	post, err := s.postRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if post == nil || post.Status != model.PostStatusPublished {
		return nil, ErrNotFound
	}
	return post, nil
}

// ListOwn は操作者自身の全記事（ステータス不問）を返す。
// プロフィールを持たない操作者には空の一覧を返す。
func (s *BlogService) ListOwn(ctx context.Context, user *model.User) ([]*model.BlogPost, error) {
	member, err := s.castRepo.FindByUserID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve cast member profile: %w", err)
	}
	if member == nil {
		return nil, nil
	}
	return s.postRepo.ListByAuthor(ctx, member.ID)
}

// Update は記事を部分更新する。所有者のみ実行できる（admin override: no）。
func (s *BlogService) Update(ctx context.Context, id string, user *model.User, patch BlogPostPatch) (*model.BlogPost, error) {
	post, err := s.postRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrNotFound
	}

	if _, err := checkOwnership(ctx, s.castRepo, user, post.AuthorID, false); err != nil {
		return nil, err
	}

	if patch.Title != nil {
		post.Title = *patch.Title
	}
	if patch.Content != nil {
		post.Content = s.sanitizer.Sanitize(*patch.Content)
	}
	post.UpdatedAt = time.Now()

	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to update blog post: %w", err)
	}
	return post, nil
}

// Submit は下書き記事を提出済みに遷移させる。所有者のみ実行できる（admin override: no）。
func (s *BlogService) Submit(ctx context.Context, id string, user *model.User) (*model.BlogPost, error) {
	return s.transition(ctx, id, user, model.PostStatusSubmitted, model.PostStatusDraft)
}

// Publish は記事を公開する。所有者のみ実行できる（admin override: no）。
// 下書き・提出済みのどちらからでも公開できる（編集承認ゲートは設けない）。
func (s *BlogService) Publish(ctx context.Context, id string, user *model.User) (*model.BlogPost, error) {
	return s.transition(ctx, id, user, model.PostStatusPublished, model.PostStatusDraft, model.PostStatusSubmitted)
}

// transition は所有権チェック付きのステータス遷移を行う。
func (s *BlogService) transition(ctx context.Context, id string, user *model.User, to model.PostStatus, from ...model.PostStatus) (*model.BlogPost, error) {
	post, err := s.postRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrNotFound
	}

	if _, err := checkOwnership(ctx, s.castRepo, user, post.AuthorID, false); err != nil {
		return nil, err
	}

	allowed := false
	for _, f := range from {
		if post.Status == f {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, ErrInvalidStatus
	}

	post.Status = to
	post.UpdatedAt = time.Now()

	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to update blog post status: %w", err)
	}

	slog.Info("blog post status changed",
		slog.String("post_id", post.ID),
		slog.String("status", string(to)),
	)
	return post, nil
}

// Delete は記事を削除する。所有者のみ実行できる（admin override: no）。
func (s *BlogService) Delete(ctx context.Context, id string, user *model.User) error {
	post, err := s.postRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if post == nil {
		return ErrNotFound
	}

	if _, err := checkOwnership(ctx, s.castRepo, user, post.AuthorID, false); err != nil {
		return err
	}

	if err := s.postRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete blog post: %w", err)
	}
	return nil
}
