package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/castport/internal/model"
)

// PostgresEpisodeRepo はPostgreSQLを使用したエピソードリポジトリ。
type PostgresEpisodeRepo struct {
	db *sql.DB
}

// NewPostgresEpisodeRepo はPostgresEpisodeRepoを生成する。
func NewPostgresEpisodeRepo(db *sql.DB) *PostgresEpisodeRepo {
	return &PostgresEpisodeRepo{db: db}
}

// FindByID は指定IDのエピソードを取得する。見つからない場合はnilを返す。
func (r *PostgresEpisodeRepo) FindByID(ctx context.Context, id string) (*model.Episode, error) {
	e := &model.Episode{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, author_id, title, description, video_path, thumbnail_path, air_date, created_at, updated_at
		 FROM episodes
		 WHERE id = $1`,
		id,
	).Scan(&e.ID, &e.AuthorID, &e.Title, &e.Description, &e.VideoPath, &e.ThumbnailPath, &e.AirDate, &e.CreatedAt, &e.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find episode: %w", err)
	}

	return e, nil
}

// Create はエピソードを作成する。
func (r *PostgresEpisodeRepo) Create(ctx context.Context, episode *model.Episode) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO episodes (id, author_id, title, description, video_path, thumbnail_path, air_date, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		episode.ID, episode.AuthorID, episode.Title, episode.Description,
		episode.VideoPath, episode.ThumbnailPath, episode.AirDate, episode.CreatedAt, episode.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create episode: %w", err)
	}
	return nil
}

// Update はエピソードの内容とupdated_atを更新する。
func (r *PostgresEpisodeRepo) Update(ctx context.Context, episode *model.Episode) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE episodes
		 SET title = $2, description = $3, video_path = $4, thumbnail_path = $5, air_date = $6, updated_at = $7
		 WHERE id = $1`,
		episode.ID, episode.Title, episode.Description,
		episode.VideoPath, episode.ThumbnailPath, episode.AirDate, episode.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update episode: %w", err)
	}
	return nil
}

// Delete は指定IDのエピソードを削除する。
func (r *PostgresEpisodeRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM episodes WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete episode: %w", err)
	}
	return nil
}

// List は全エピソードをair_date降順で返す。
func (r *PostgresEpisodeRepo) List(ctx context.Context, limit int) ([]*model.Episode, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, author_id, title, description, video_path, thumbnail_path, air_date, created_at, updated_at
		 FROM episodes
		 ORDER BY air_date DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list episodes: %w", err)
	}
	defer rows.Close()

	var episodes []*model.Episode
	for rows.Next() {
		e := &model.Episode{}
		if err := rows.Scan(&e.ID, &e.AuthorID, &e.Title, &e.Description, &e.VideoPath, &e.ThumbnailPath, &e.AirDate, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan episode: %w", err)
		}
		episodes = append(episodes, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate episodes: %w", err)
	}

	return episodes, nil
}

// compile-time interface check
var _ EpisodeRepository = (*PostgresEpisodeRepo)(nil)
