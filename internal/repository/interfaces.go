// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"

	"github.com/hitoshi/blogd/internal/model"
)

// ErrDuplicateEmail はメールアドレスの一意制約違反を表す。
// サービス層の事前チェックをすり抜けた同時登録はusers.emailの
// UNIQUE制約がこのエラーとして返す。
var ErrDuplicateEmail = errors.New("email already in use")

// UserRepository はユーザーデータの永続化インターフェース。
// セッションについては関知しない。
type UserRepository interface {
	// FindByEmail は指定メールアドレスのユーザーを取得する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// Create はユーザーを作成する。
	// メールアドレスが既に使用されている場合はErrDuplicateEmailを返す。
	Create(ctx context.Context, user *model.User) error
}

// PostRepository は記事データの永続化インターフェース。
type PostRepository interface {
	// Create は記事を作成する。
	Create(ctx context.Context, post *model.Post) error

	// FindByID は指定IDの記事を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Post, error)

	// List は記事一覧を作成順で返す。
	// offsetは読み飛ばす件数、limitは最大取得件数。
	List(ctx context.Context, offset, limit int) ([]*model.Post, error)

	// ListByAuthor は指定著者の記事一覧を作成順で返す。
	// 該当記事がない場合は空スライスを返す。
	ListByAuthor(ctx context.Context, authorID string, offset, limit int) ([]*model.Post, error)

	// Update は記事のタイトルと本文を更新し、更新後の記事を返す。
	// 著者参照は変更せず、updated_atを現在時刻に更新する。
	// 見つからない場合はnilを返す。
	Update(ctx context.Context, id, title, content string) (*model.Post, error)
}
