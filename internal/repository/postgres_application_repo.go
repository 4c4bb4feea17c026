package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/castport/internal/model"
)

// PostgresApplicationRepo はPostgreSQLを使用した応募リポジトリ。
type PostgresApplicationRepo struct {
	db *sql.DB
}

// NewPostgresApplicationRepo はPostgresApplicationRepoを生成する。
func NewPostgresApplicationRepo(db *sql.DB) *PostgresApplicationRepo {
	return &PostgresApplicationRepo{db: db}
}

// Create は応募を作成する。
func (r *PostgresApplicationRepo) Create(ctx context.Context, app *model.Application) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO applications (id, kind, name, email, payload, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		app.ID, app.Kind, app.Name, app.Email, app.Payload, app.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	return nil
}

// ListByKind は指定種別の応募をcreated_at降順で返す。
func (r *PostgresApplicationRepo) ListByKind(ctx context.Context, kind model.ApplicationKind) ([]*model.Application, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, kind, name, email, payload, created_at
		 FROM applications
		 WHERE kind = $1
		 ORDER BY created_at DESC`,
		kind,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	defer rows.Close()

	var apps []*model.Application
	for rows.Next() {
		app := &model.Application{}
		if err := rows.Scan(&app.ID, &app.Kind, &app.Name, &app.Email, &app.Payload, &app.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		apps = append(apps, app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate applications: %w", err)
	}

	return apps, nil
}

// DeleteByKindAndID は種別とIDが一致する応募を削除する。削除された場合はtrueを返す。
func (r *PostgresApplicationRepo) DeleteByKindAndID(ctx context.Context, kind model.ApplicationKind, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM applications WHERE kind = $1 AND id = $2`,
		kind, id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete application: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}

	return affected > 0, nil
}

// compile-time interface check
var _ ApplicationRepository = (*PostgresApplicationRepo)(nil)
