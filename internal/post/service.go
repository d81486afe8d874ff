// Package post は記事の作成・取得・更新のワークフローを提供する。
package post

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/blogd/internal/authz"
	"github.com/hitoshi/blogd/internal/model"
	"github.com/hitoshi/blogd/internal/repository"
	"github.com/hitoshi/blogd/internal/security"
)

// defaultPageSize は記事一覧の1ページあたりの件数。
const defaultPageSize = 12

// MetricsRecorder は記事メトリクス収集のインターフェース。
// metrics.Collectorの部分集合として定義する。nilの場合は記録しない。
type MetricsRecorder interface {
	RecordPostCreated()
	RecordPostUpdated()
}

// Service は記事に関するビジネスロジックを提供する。
// 変更操作（Create/Update）は認証済みクレームを要求し、
// 所有権チェックをauthzパッケージに委譲する。
type Service struct {
	postRepo  repository.PostRepository
	sanitizer security.ContentSanitizerService
	metrics   MetricsRecorder
}

// NewService はServiceを生成する。
// metricsはnilを許容する（記録なし）。
func NewService(
	postRepo repository.PostRepository,
	sanitizer security.ContentSanitizerService,
	metrics MetricsRecorder,
) *Service {
	return &Service{
		postRepo:  postRepo,
		sanitizer: sanitizer,
		metrics:   metrics,
	}
}

// Create は認証済みユーザーの記事を作成する。
// claimsがnilの場合はUNAUTHENTICATED、タイトル・本文が空の場合はVALIDATION_ERRORを返す。
// 著者参照はクレームのsubjectから導出し、クライアント入力からは受け取らない。
func (s *Service) Create(ctx context.Context, claims *model.SessionClaims, title, content string) (*model.Post, error) {
	if claims == nil {
		return nil, model.NewUnauthenticatedError()
	}

	title, content, err := s.validateFields(title, content)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	post := &model.Post{
		ID:      uuid.New().String(),
		Title:   title,
		Content: content,
		Author: model.AuthorRef{
			ID:       claims.SubjectID,
			Username: claims.Name,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordPostCreated()
	}
	slog.Info("post created",
		slog.String("post_id", post.ID),
		slog.String("author_id", post.Author.ID),
	)

	return post, nil
}

// Update は記事のタイトルと本文を更新する。
// 記事が存在しない場合はPOST_NOT_FOUND、所有者でない場合はFORBIDDEN、
// セッションがない場合はUNAUTHENTICATEDを返す。著者参照は変更されない。
func (s *Service) Update(ctx context.Context, claims *model.SessionClaims, postID, title, content string) (*model.Post, error) {
	// 1. 対象記事の取得
	existing, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to find post: %w", err)
	}
	if existing == nil {
		return nil, model.NewPostNotFoundError(postID)
	}

	// 2. 所有権チェック
	if !authz.AuthorizeMutation(claims, existing.Author.ID) {
		if claims == nil {
			return nil, model.NewUnauthenticatedError()
		}
		slog.Warn("post mutation denied",
			slog.String("post_id", postID),
			slog.String("subject_id", claims.SubjectID),
			slog.String("owner_id", existing.Author.ID),
		)
		return nil, model.NewForbiddenError()
	}

	// 3. 入力検証とサニタイズ
	title, content, err = s.validateFields(title, content)
	if err != nil {
		return nil, err
	}

	// 4. 更新（updated_atはリポジトリ側で現在時刻に更新される）
	updated, err := s.postRepo.Update(ctx, postID, title, content)
	if err != nil {
		return nil, fmt.Errorf("failed to update post: %w", err)
	}
	if updated == nil {
		return nil, model.NewPostNotFoundError(postID)
	}

	if s.metrics != nil {
		s.metrics.RecordPostUpdated()
	}
	slog.Info("post updated",
		slog.String("post_id", updated.ID),
	)

	return updated, nil
}

// Get は指定IDの記事を取得する。見つからない場合はPOST_NOT_FOUNDを返す。
func (s *Service) Get(ctx context.Context, postID string) (*model.Post, error) {
	post, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to find post: %w", err)
	}
	if post == nil {
		return nil, model.NewPostNotFoundError(postID)
	}
	return post, nil
}

// List は記事一覧を作成順でページネーション付きで返す。
// pageは1始まり。0以下が指定された場合は1として扱う。
func (s *Service) List(ctx context.Context, page int) ([]*model.Post, error) {
	offset, limit := pageToOffset(page)
	posts, err := s.postRepo.List(ctx, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return posts, nil
}

// ListByAuthor は指定著者の記事一覧を作成順でページネーション付きで返す。
// 該当記事がない場合は空スライスを返す（404にはしない）。
func (s *Service) ListByAuthor(ctx context.Context, authorID string, page int) ([]*model.Post, error) {
	offset, limit := pageToOffset(page)
	posts, err := s.postRepo.ListByAuthor(ctx, authorID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts by author: %w", err)
	}
	return posts, nil
}

// validateFields はタイトルと本文を検証・サニタイズして返す。
// タイトルはタグを除去したテキスト、本文は許可リストを通したHTMLになる。
func (s *Service) validateFields(title, content string) (string, string, error) {
	if title == "" {
		return "", "", model.NewValidationError("title")
	}
	if content == "" {
		return "", "", model.NewValidationError("content")
	}

	title = s.sanitizer.SanitizeStrict(title)
	content = s.sanitizer.Sanitize(content)

	// サニタイズの結果空になった場合も入力不正として扱う
	if title == "" {
		return "", "", model.NewValidationError("title")
	}
	if content == "" {
		return "", "", model.NewValidationError("content")
	}

	return title, content, nil
}

// pageToOffset は1始まりのページ番号をOFFSET/LIMITに変換する。
func pageToOffset(page int) (offset, limit int) {
	if page < 1 {
		page = 1
	}
	return (page - 1) * defaultPageSize, defaultPageSize
}
