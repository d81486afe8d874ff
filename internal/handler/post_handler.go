package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/blogd/internal/middleware"
	"github.com/hitoshi/blogd/internal/model"
)

// PostServiceInterface は記事ハンドラーが必要とするサービスインターフェース。
type PostServiceInterface interface {
	// Create は認証済みユーザーの記事を作成する。
	Create(ctx context.Context, claims *model.SessionClaims, title, content string) (*model.Post, error)
	// Update は所有者の記事のタイトル・本文を更新する。
	Update(ctx context.Context, claims *model.SessionClaims, postID, title, content string) (*model.Post, error)
	// Get は記事詳細を返す。
	Get(ctx context.Context, postID string) (*model.Post, error)
	// List は記事一覧をページネーション付きで返す。
	List(ctx context.Context, page int) ([]*model.Post, error)
	// ListByAuthor は指定著者の記事一覧をページネーション付きで返す。
	ListByAuthor(ctx context.Context, authorID string, page int) ([]*model.Post, error)
}

// PostHandler は記事管理のHTTPハンドラー。
type PostHandler struct {
	service PostServiceInterface
}

// NewPostHandler はPostHandlerを生成する。
func NewPostHandler(service PostServiceInterface) *PostHandler {
	return &PostHandler{service: service}
}

// --- リクエスト・レスポンス型 ---

// postMutationRequest は記事の作成・更新リクエストのボディ。
type postMutationRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// postCreatedResponse は記事作成成功時のレスポンス。
type postCreatedResponse struct {
	PostID string `json:"post_id"`
}

// Create は記事を作成する。
// POST /posts
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, err := middleware.ClaimsFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	var req postMutationRequest
	if !decodeJSONStrict(w, r, &req) {
		return
	}

	post, err := h.service.Create(r.Context(), claims, req.Title, req.Content)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(postCreatedResponse{PostID: post.ID})
}

// List は記事一覧を取得する。
// authorIdクエリパラメータが指定された場合は著者で絞り込む。
// 該当記事がない場合も200で空配列を返す。
// GET /posts?page=N / GET /posts?authorId=ID&page=N
func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	page := parsePage(r.URL.Query().Get("page"))
	authorID := r.URL.Query().Get("authorId")

	var posts []*model.Post
	var err error
	if authorID != "" {
		posts, err = h.service.ListByAuthor(r.Context(), authorID, page)
	} else {
		posts, err = h.service.List(r.Context(), page)
	}
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(posts)
}

// Get は記事詳細を取得する。
// GET /posts/{id}
func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "id")

	post, err := h.service.Get(r.Context(), postID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(post)
}

// Update は記事のタイトル・本文を更新する。
// PUT /posts/{id} / PATCH /posts/{id}
func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims, err := middleware.ClaimsFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	postID := chi.URLParam(r, "id")

	var req postMutationRequest
	if !decodeJSONStrict(w, r, &req) {
		return
	}

	post, err := h.service.Update(r.Context(), claims, postID, req.Title, req.Content)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(post)
}

// --- ヘルパー関数 ---

// parsePage はpageクエリパラメータを解析する。未指定・不正値は1ページ目として扱う。
func parsePage(raw string) int {
	if raw == "" {
		return 1
	}
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// decodeJSONStrict はリクエストボディを検証付きでデコードする。
// 未知のフィールドは明示的に拒否する。失敗時は400を書き込みfalseを返す。
func decodeJSONStrict(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "正しいJSON形式でリクエストしてください。",
		})
		return false
	}
	return true
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		statusCode := mapAPIErrorToHTTPStatus(apiErr)
		middleware.WriteErrorResponse(w, statusCode, apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
// エラー種別とステータスコードの対応はここに一元化し、ルートごとに重複させない。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeValidation, "INVALID_REQUEST":
		return http.StatusBadRequest
	case model.ErrCodeInvalidCredentials, model.ErrCodeUnauthenticated:
		return http.StatusUnauthorized
	case model.ErrCodeForbidden:
		return http.StatusForbidden
	case model.ErrCodePostNotFound:
		return http.StatusNotFound
	case model.ErrCodeDuplicateEmail:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
