package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/blogd/internal/model"
)

// PostgresPostRepo はPostgreSQLを使用した記事リポジトリ。
// 著者参照は非正規化カラム（author_id, author_username）として記事行に埋め込む。
type PostgresPostRepo struct {
	db *sql.DB
}

// NewPostgresPostRepo はPostgresPostRepoを生成する。
func NewPostgresPostRepo(db *sql.DB) *PostgresPostRepo {
	return &PostgresPostRepo{db: db}
}

// Create は記事を作成する。
func (r *PostgresPostRepo) Create(ctx context.Context, post *model.Post) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO posts (id, title, content, author_id, author_username, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		post.ID, post.Title, post.Content, post.Author.ID, post.Author.Username,
		post.CreatedAt, post.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert post: %w", err)
	}

	return nil
}

// FindByID は指定IDの記事を取得する。見つからない場合はnilを返す。
func (r *PostgresPostRepo) FindByID(ctx context.Context, id string) (*model.Post, error) {
	post := &model.Post{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, title, content, author_id, author_username, created_at, updated_at
		 FROM posts WHERE id = $1`,
		id,
	).Scan(&post.ID, &post.Title, &post.Content, &post.Author.ID, &post.Author.Username,
		&post.CreatedAt, &post.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find post by ID: %w", err)
	}

	return post, nil
}

// List は記事一覧を作成順（created_at昇順）で返す。
func (r *PostgresPostRepo) List(ctx context.Context, offset, limit int) ([]*model.Post, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, content, author_id, author_username, created_at, updated_at
		 FROM posts
		 ORDER BY created_at ASC, id ASC
		 OFFSET $1 LIMIT $2`,
		offset, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	return scanPosts(rows)
}

// ListByAuthor は指定著者の記事一覧を作成順で返す。
// 該当記事がない場合は空スライスを返す。
func (r *PostgresPostRepo) ListByAuthor(ctx context.Context, authorID string, offset, limit int) ([]*model.Post, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, content, author_id, author_username, created_at, updated_at
		 FROM posts
		 WHERE author_id = $1
		 ORDER BY created_at ASC, id ASC
		 OFFSET $2 LIMIT $3`,
		authorID, offset, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts by author: %w", err)
	}
	defer rows.Close()

	return scanPosts(rows)
}

// Update は記事のタイトルと本文を更新し、更新後の記事を返す。
// author_id・author_usernameは変更しない。見つからない場合はnilを返す。
func (r *PostgresPostRepo) Update(ctx context.Context, id, title, content string) (*model.Post, error) {
	post := &model.Post{}
	err := r.db.QueryRowContext(ctx,
		`UPDATE posts
		 SET title = $2, content = $3, updated_at = now()
		 WHERE id = $1
		 RETURNING id, title, content, author_id, author_username, created_at, updated_at`,
		id, title, content,
	).Scan(&post.ID, &post.Title, &post.Content, &post.Author.ID, &post.Author.Username,
		&post.CreatedAt, &post.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update post: %w", err)
	}

	return post, nil
}

// scanPosts は結果セットをPostスライスに変換する。
func scanPosts(rows *sql.Rows) ([]*model.Post, error) {
	posts := []*model.Post{}
	for rows.Next() {
		post := &model.Post{}
		if err := rows.Scan(&post.ID, &post.Title, &post.Content,
			&post.Author.ID, &post.Author.Username,
			&post.CreatedAt, &post.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate posts: %w", err)
	}

	return posts, nil
}

// compile-time interface check
var _ PostRepository = (*PostgresPostRepo)(nil)
