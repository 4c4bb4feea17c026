package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/castport/internal/model"
)

// PostgresDossierRepo はPostgreSQLを使用した教育者向け資料リポジトリ。
type PostgresDossierRepo struct {
	db *sql.DB
}

// NewPostgresDossierRepo はPostgresDossierRepoを生成する。
func NewPostgresDossierRepo(db *sql.DB) *PostgresDossierRepo {
	return &PostgresDossierRepo{db: db}
}

// FindByID は指定IDの資料を取得する。見つからない場合はnilを返す。
func (r *PostgresDossierRepo) FindByID(ctx context.Context, id string) (*model.Dossier, error) {
	d := &model.Dossier{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, title, document_path, created_at
		 FROM dossiers
		 WHERE id = $1`,
		id,
	).Scan(&d.ID, &d.Title, &d.DocumentPath, &d.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find dossier: %w", err)
	}

	return d, nil
}

// Create は資料を作成する。
func (r *PostgresDossierRepo) Create(ctx context.Context, dossier *model.Dossier) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO dossiers (id, title, document_path, created_at)
		 VALUES ($1, $2, $3, $4)`,
		dossier.ID, dossier.Title, dossier.DocumentPath, dossier.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create dossier: %w", err)
	}
	return nil
}

// Delete は指定IDの資料を削除する。
func (r *PostgresDossierRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM dossiers WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete dossier: %w", err)
	}
	return nil
}

// List は全資料をcreated_at降順で返す。
func (r *PostgresDossierRepo) List(ctx context.Context) ([]*model.Dossier, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, document_path, created_at
		 FROM dossiers
		 ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list dossiers: %w", err)
	}
	defer rows.Close()

	var dossiers []*model.Dossier
	for rows.Next() {
		d := &model.Dossier{}
		if err := rows.Scan(&d.ID, &d.Title, &d.DocumentPath, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan dossier: %w", err)
		}
		dossiers = append(dossiers, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate dossiers: %w", err)
	}

	return dossiers, nil
}

// compile-time interface check
var _ DossierRepository = (*PostgresDossierRepo)(nil)
