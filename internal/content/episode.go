package content

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/castport/internal/model"
	"github.com/hitoshi/castport/internal/objectstore"
	"github.com/hitoshi/castport/internal/repository"
)

// ObjectPolicyAttacher はエピソードが参照するオブジェクトへの
// ポリシー付与に必要なインターフェース。objectstore.Serviceの部分集合。
type ObjectPolicyAttacher interface {
	NormalizeObjectPath(raw string) string
	KeyForObjectPath(objectPath string) string
	SetPolicy(ctx context.Context, key string, policy *objectstore.ObjectPolicy) error
}

// EpisodeInput はエピソード作成・更新の入力。
// VideoPathとThumbnailPathにはクライアントから報告された
// アップロードURLまたはパスをそのまま渡す（サービス側で正規化する）。
type EpisodeInput struct {
	Title         string
	Description   string
	VideoPath     string
	ThumbnailPath string
	AirDate       time.Time
}

// EpisodeService はエピソードのビジネスロジックを提供する。
type EpisodeService struct {
	episodeRepo repository.EpisodeRepository
	castRepo    repository.CastMemberRepository
	objects     ObjectPolicyAttacher
}

// NewEpisodeService はEpisodeServiceを生成する。
func NewEpisodeService(
	episodeRepo repository.EpisodeRepository,
	castRepo repository.CastMemberRepository,
	objects ObjectPolicyAttacher,
) *EpisodeService {
	return &EpisodeService{
		episodeRepo: episodeRepo,
		castRepo:    castRepo,
		objects:     objects,
	}
}

// List は全エピソードをair_date降順で返す。
func (s *EpisodeService) List(ctx context.Context, limit int) ([]*model.Episode, error) {
	return s.episodeRepo.List(ctx, limit)
}

// Get は指定IDのエピソードを返す。
func (s *EpisodeService) Get(ctx context.Context, id string) (*model.Episode, error) {
	episode, err := s.episodeRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if episode == nil {
		return nil, ErrNotFound
	}
	return episode, nil
}

// Create はエピソードを作成する。
// 参照するオブジェクトパスを正規化し、所有者のみアクセス可能な
// プライベートポリシーを各オブジェクトに付与する。
// ポリシーの所有者はエピソード作成者のユーザーID。
func (s *EpisodeService) Create(ctx context.Context, user *model.User, input EpisodeInput) (*model.Episode, error) {
	member, err := s.castRepo.FindByUserID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve cast member profile: %w", err)
	}
	if member == nil {
		return nil, ErrForbidden
	}

	videoPath, err := s.attachPolicy(ctx, user.ID, input.VideoPath)
	if err != nil {
		return nil, err
	}
	thumbnailPath, err := s.attachPolicy(ctx, user.ID, input.ThumbnailPath)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	episode := &model.Episode{
		ID:            uuid.New().String(),
		AuthorID:      member.ID,
		Title:         input.Title,
		Description:   input.Description,
		VideoPath:     videoPath,
		ThumbnailPath: thumbnailPath,
		AirDate:       input.AirDate,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.episodeRepo.Create(ctx, episode); err != nil {
		return nil, fmt.Errorf("failed to create episode: %w", err)
	}

	slog.Info("episode created",
		slog.String("episode_id", episode.ID),
		slog.String("author_id", member.ID),
	)
	return episode, nil
}

// Update はエピソードを更新する。所有者のみ実行できる（admin override: no）。
// オブジェクトパスが変更された場合は新しいオブジェクトにポリシーを付与する。
func (s *EpisodeService) Update(ctx context.Context, id string, user *model.User, input EpisodeInput) (*model.Episode, error) {
	episode, err := s.episodeRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if episode == nil {
		return nil, ErrNotFound
	}

	if _, err := checkOwnership(ctx, s.castRepo, user, episode.AuthorID, false); err != nil {
		return nil, err
	}

	if input.VideoPath != "" {
		videoPath, err := s.attachPolicy(ctx, user.ID, input.VideoPath)
		if err != nil {
			return nil, err
		}
		episode.VideoPath = videoPath
	}
	if input.ThumbnailPath != "" {
		thumbnailPath, err := s.attachPolicy(ctx, user.ID, input.ThumbnailPath)
		if err != nil {
			return nil, err
		}
		episode.ThumbnailPath = thumbnailPath
	}

	episode.Title = input.Title
	episode.Description = input.Description
	if !input.AirDate.IsZero() {
		episode.AirDate = input.AirDate
	}
	episode.UpdatedAt = time.Now()

	if err := s.episodeRepo.Update(ctx, episode); err != nil {
		return nil, fmt.Errorf("failed to update episode: %w", err)
	}
	return episode, nil
}

// Delete はエピソードを削除する。
// 削除は管理者専用ルートからのみ呼び出される（ルート側でロールを保証する）。
func (s *EpisodeService) Delete(ctx context.Context, id string) error {
	episode, err := s.episodeRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if episode == nil {
		return ErrNotFound
	}

	if err := s.episodeRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete episode: %w", err)
	}
	return nil
}

// attachPolicy はオブジェクトパスを正規化し、所有者ポリシーを付与する。
// 空のパスは空のまま返す。参照先オブジェクトが存在しない場合はErrNotFound。
func (s *EpisodeService) attachPolicy(ctx context.Context, ownerID, rawPath string) (string, error) {
	if rawPath == "" {
		return "", nil
	}

	normalized := s.objects.NormalizeObjectPath(rawPath)
	key := s.objects.KeyForObjectPath(normalized)
	if key == "" {
		return "", fmt.Errorf("invalid object path: %w", ErrNotFound)
	}

	if err := s.objects.SetPolicy(ctx, key, objectstore.NewOwnerPolicy(ownerID)); err != nil {
		if errors.Is(err, objectstore.ErrObjectNotFound) {
			return "", fmt.Errorf("referenced object does not exist: %w", ErrNotFound)
		}
		return "", fmt.Errorf("failed to attach object policy: %w", err)
	}

	return normalized, nil
}
