package content

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/castport/internal/model"
	"github.com/hitoshi/castport/internal/objectstore"
	"github.com/hitoshi/castport/internal/repository"
)

// DossierService は教育者向け資料のビジネスロジックを提供する。
// 作成・削除は管理者専用ルートからのみ呼び出される（所有権の概念はない）。
type DossierService struct {
	dossierRepo repository.DossierRepository
	objects     ObjectPolicyAttacher
}

// NewDossierService はDossierServiceを生成する。
func NewDossierService(dossierRepo repository.DossierRepository, objects ObjectPolicyAttacher) *DossierService {
	return &DossierService{
		dossierRepo: dossierRepo,
		objects:     objects,
	}
}

// List は全資料をcreated_at降順で返す。
func (s *DossierService) List(ctx context.Context) ([]*model.Dossier, error) {
	return s.dossierRepo.List(ctx)
}

// Create は資料を作成する。参照するドキュメントのパスを正規化し、
// 作成した管理者を所有者とするプライベートポリシーを付与する。
func (s *DossierService) Create(ctx context.Context, user *model.User, title, rawDocumentPath string) (*model.Dossier, error) {
	if rawDocumentPath == "" {
		return nil, fmt.Errorf("document path is required: %w", ErrInvalidStatus)
	}

	normalized := s.objects.NormalizeObjectPath(rawDocumentPath)
	key := s.objects.KeyForObjectPath(normalized)
	if key == "" {
		return nil, fmt.Errorf("invalid document path: %w", ErrNotFound)
	}
	if err := s.objects.SetPolicy(ctx, key, objectstore.NewOwnerPolicy(user.ID)); err != nil {
		return nil, fmt.Errorf("failed to attach document policy: %w", err)
	}

	dossier := &model.Dossier{
		ID:           uuid.New().String(),
		Title:        title,
		DocumentPath: normalized,
		CreatedAt:    time.Now(),
	}
	if err := s.dossierRepo.Create(ctx, dossier); err != nil {
		return nil, fmt.Errorf("failed to create dossier: %w", err)
	}
	return dossier, nil
}

// Delete は資料を削除する。
func (s *DossierService) Delete(ctx context.Context, id string) error {
	dossier, err := s.dossierRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if dossier == nil {
		return ErrNotFound
	}
	return s.dossierRepo.Delete(ctx, id)
}
