package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/castport/internal/model"
)

// PostgresBlogPostRepo はPostgreSQLを使用したブログ記事リポジトリ。
type PostgresBlogPostRepo struct {
	db *sql.DB
}

// NewPostgresBlogPostRepo はPostgresBlogPostRepoを生成する。
func NewPostgresBlogPostRepo(db *sql.DB) *PostgresBlogPostRepo {
	return &PostgresBlogPostRepo{db: db}
}

// FindByID は指定IDの記事を取得する。見つからない場合はnilを返す。
func (r *PostgresBlogPostRepo) FindByID(ctx context.Context, id string) (*model.BlogPost, error) {
	post := &model.BlogPost{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, author_id, title, content, status, created_at, updated_at
		 FROM blog_posts
		 WHERE id = $1`,
		id,
	).Scan(&post.ID, &post.AuthorID, &post.Title, &post.Content, &post.Status, &post.CreatedAt, &post.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find blog post: %w", err)
	}

	return post, nil
}

// Create は記事を作成する。
func (r *PostgresBlogPostRepo) Create(ctx context.Context, post *model.BlogPost) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO blog_posts (id, author_id, title, content, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		post.ID, post.AuthorID, post.Title, post.Content, post.Status, post.CreatedAt, post.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create blog post: %w", err)
	}
	return nil
}

// Update は記事のタイトル・本文・ステータス・updated_atを更新する。
func (r *PostgresBlogPostRepo) Update(ctx context.Context, post *model.BlogPost) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE blog_posts
		 SET title = $2, content = $3, status = $4, updated_at = $5
		 WHERE id = $1`,
		post.ID, post.Title, post.Content, post.Status, post.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update blog post: %w", err)
	}
	return nil
}

// Delete は指定IDの記事を削除する。
func (r *PostgresBlogPostRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM blog_posts WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete blog post: %w", err)
	}
	return nil
}

// ListPublished は公開済み記事をcreated_at降順で返す。
func (r *PostgresBlogPostRepo) ListPublished(ctx context.Context, limit int) ([]*model.BlogPost, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, author_id, title, content, status, created_at, updated_at
		 FROM blog_posts
		 WHERE status = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		model.PostStatusPublished, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list published blog posts: %w", err)
	}
	defer rows.Close()

	return scanBlogPosts(rows)
}

// ListByAuthor は指定著者の全記事（ステータス不問）をcreated_at降順で返す。
func (r *PostgresBlogPostRepo) ListByAuthor(ctx context.Context, authorID string) ([]*model.BlogPost, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, author_id, title, content, status, created_at, updated_at
		 FROM blog_posts
		 WHERE author_id = $1
		 ORDER BY created_at DESC`,
		authorID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list blog posts by author: %w", err)
	}
	defer rows.Close()

	return scanBlogPosts(rows)
}

func scanBlogPosts(rows *sql.Rows) ([]*model.BlogPost, error) {
	var posts []*model.BlogPost
	for rows.Next() {
		post := &model.BlogPost{}
		if err := rows.Scan(&post.ID, &post.AuthorID, &post.Title, &post.Content, &post.Status, &post.CreatedAt, &post.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan blog post: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate blog posts: %w", err)
	}
	return posts, nil
}

// compile-time interface check
var _ BlogPostRepository = (*PostgresBlogPostRepo)(nil)
