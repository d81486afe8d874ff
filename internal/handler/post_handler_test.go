package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/blogd/internal/middleware"
	"github.com/hitoshi/blogd/internal/model"
)

// mockPostService はPostServiceInterfaceのモック実装
type mockPostService struct {
	createFunc       func(ctx context.Context, claims *model.SessionClaims, title, content string) (*model.Post, error)
	updateFunc       func(ctx context.Context, claims *model.SessionClaims, postID, title, content string) (*model.Post, error)
	getFunc          func(ctx context.Context, postID string) (*model.Post, error)
	listFunc         func(ctx context.Context, page int) ([]*model.Post, error)
	listByAuthorFunc func(ctx context.Context, authorID string, page int) ([]*model.Post, error)
}

var _ PostServiceInterface = (*mockPostService)(nil)

func (m *mockPostService) Create(ctx context.Context, claims *model.SessionClaims, title, content string) (*model.Post, error) {
	return m.createFunc(ctx, claims, title, content)
}

func (m *mockPostService) Update(ctx context.Context, claims *model.SessionClaims, postID, title, content string) (*model.Post, error) {
	return m.updateFunc(ctx, claims, postID, title, content)
}

func (m *mockPostService) Get(ctx context.Context, postID string) (*model.Post, error) {
	return m.getFunc(ctx, postID)
}

func (m *mockPostService) List(ctx context.Context, page int) ([]*model.Post, error) {
	return m.listFunc(ctx, page)
}

func (m *mockPostService) ListByAuthor(ctx context.Context, authorID string, page int) ([]*model.Post, error) {
	return m.listByAuthorFunc(ctx, authorID, page)
}

func sessionRequest(method, target, body string) *http.Request {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	claims := &model.SessionClaims{
		SubjectID: "user-1",
		Name:      "alice",
		Email:     "alice@example.com",
		IssuedAt:  time.Now(),
		ExpiresAt: time.Now().Add(time.Hour),
	}
	return r.WithContext(middleware.ContextWithClaims(r.Context(), claims))
}

// withURLParam はchiのURLパラメータをリクエストコンテキストに設定する。
func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// 記事作成成功時に201とpost_idが返ることを検証
func TestPostHandler_CreateSuccess(t *testing.T) {
	service := &mockPostService{
		createFunc: func(_ context.Context, claims *model.SessionClaims, title, content string) (*model.Post, error) {
			if claims.SubjectID != "user-1" {
				t.Errorf("claims.SubjectID = %q, want %q", claims.SubjectID, "user-1")
			}
			return &model.Post{ID: "post-1", Title: title, Content: content}, nil
		},
	}
	h := NewPostHandler(service)

	r := sessionRequest(http.MethodPost, "/posts", `{"title":"t","content":"c"}`)
	w := httptest.NewRecorder()

	h.Create(w, r)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
	}

	var resp struct {
		PostID string `json:"post_id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.PostID != "post-1" {
		t.Errorf("post_id = %q, want %q", resp.PostID, "post-1")
	}
}

// セッションクレームのない作成リクエストは401になることを検証
func TestPostHandler_CreateUnauthenticated(t *testing.T) {
	service := &mockPostService{
		createFunc: func(_ context.Context, _ *model.SessionClaims, _, _ string) (*model.Post, error) {
			t.Error("service must not be called without session")
			return nil, nil
		},
	}
	h := NewPostHandler(service)

	r := httptest.NewRequest(http.MethodPost, "/posts", strings.NewReader(`{"title":"t","content":"c"}`))
	w := httptest.NewRecorder()

	h.Create(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

// 未知のフィールドを含む作成リクエストは400で拒否されることを検証
// （著者参照などをクライアント入力で指定できない）
func TestPostHandler_CreateRejectsUnknownFields(t *testing.T) {
	service := &mockPostService{
		createFunc: func(_ context.Context, _ *model.SessionClaims, _, _ string) (*model.Post, error) {
			t.Error("service must not be called for invalid body")
			return nil, nil
		},
	}
	h := NewPostHandler(service)

	r := sessionRequest(http.MethodPost, "/posts", `{"title":"t","content":"c","author":{"id":"user-9"}}`)
	w := httptest.NewRecorder()

	h.Create(w, r)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

// 記事一覧がpageパラメータ付きでサービスに渡ることを検証
func TestPostHandler_ListPageParsing(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		wantPage int
	}{
		{"no page", "", 1},
		{"page 3", "?page=3", 3},
		{"invalid page", "?page=abc", 1},
		{"zero page", "?page=0", 1},
		{"negative page", "?page=-2", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotPage int
			service := &mockPostService{
				listFunc: func(_ context.Context, page int) ([]*model.Post, error) {
					gotPage = page
					return []*model.Post{}, nil
				},
			}
			h := NewPostHandler(service)

			r := httptest.NewRequest(http.MethodGet, "/posts"+tt.query, nil)
			w := httptest.NewRecorder()

			h.List(w, r)

			if w.Code != http.StatusOK {
				t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
			}
			if gotPage != tt.wantPage {
				t.Errorf("page = %d, want %d", gotPage, tt.wantPage)
			}
		})
	}
}

// authorIdクエリパラメータで著者絞り込みに分岐することを検証
func TestPostHandler_ListByAuthor(t *testing.T) {
	service := &mockPostService{
		listByAuthorFunc: func(_ context.Context, authorID string, page int) ([]*model.Post, error) {
			if authorID != "user-9" {
				t.Errorf("authorID = %q, want %q", authorID, "user-9")
			}
			if page != 2 {
				t.Errorf("page = %d, want 2", page)
			}
			return []*model.Post{}, nil
		},
		listFunc: func(_ context.Context, _ int) ([]*model.Post, error) {
			t.Error("List must not be called when authorId is present")
			return nil, nil
		},
	}
	h := NewPostHandler(service)

	r := httptest.NewRequest(http.MethodGet, "/posts?authorId=user-9&page=2", nil)
	w := httptest.NewRecorder()

	h.List(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if got := strings.TrimSpace(w.Body.String()); got != "[]" {
		t.Errorf("body = %q, want empty JSON array", got)
	}
}

// 記事詳細の取得と404を検証
func TestPostHandler_Get(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		service := &mockPostService{
			getFunc: func(_ context.Context, postID string) (*model.Post, error) {
				return &model.Post{
					ID:    postID,
					Title: "hello",
					Author: model.AuthorRef{
						ID:       "user-1",
						Username: "alice",
					},
				}, nil
			},
		}
		h := NewPostHandler(service)

		r := withURLParam(httptest.NewRequest(http.MethodGet, "/posts/post-1", nil), "id", "post-1")
		w := httptest.NewRecorder()

		h.Get(w, r)

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
		}

		var post model.Post
		if err := json.Unmarshal(w.Body.Bytes(), &post); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if post.ID != "post-1" || post.Author.Username != "alice" {
			t.Errorf("unexpected post: %+v", post)
		}
	})

	t.Run("not found", func(t *testing.T) {
		service := &mockPostService{
			getFunc: func(_ context.Context, postID string) (*model.Post, error) {
				return nil, model.NewPostNotFoundError(postID)
			},
		}
		h := NewPostHandler(service)

		r := withURLParam(httptest.NewRequest(http.MethodGet, "/posts/missing", nil), "id", "missing")
		w := httptest.NewRecorder()

		h.Get(w, r)

		if w.Code != http.StatusNotFound {
			t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
		}
	})
}

// 記事更新の成功・権限エラー・404を検証
func TestPostHandler_Update(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		service := &mockPostService{
			updateFunc: func(_ context.Context, claims *model.SessionClaims, postID, title, content string) (*model.Post, error) {
				return &model.Post{ID: postID, Title: title, Content: content}, nil
			},
		}
		h := NewPostHandler(service)

		r := withURLParam(sessionRequest(http.MethodPut, "/posts/post-1", `{"title":"new","content":"body"}`), "id", "post-1")
		w := httptest.NewRecorder()

		h.Update(w, r)

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
		}

		var post model.Post
		if err := json.Unmarshal(w.Body.Bytes(), &post); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if post.Title != "new" {
			t.Errorf("title = %q, want %q", post.Title, "new")
		}
	})

	t.Run("forbidden", func(t *testing.T) {
		service := &mockPostService{
			updateFunc: func(_ context.Context, _ *model.SessionClaims, _, _, _ string) (*model.Post, error) {
				return nil, model.NewForbiddenError()
			},
		}
		h := NewPostHandler(service)

		r := withURLParam(sessionRequest(http.MethodPut, "/posts/post-1", `{"title":"t","content":"c"}`), "id", "post-1")
		w := httptest.NewRecorder()

		h.Update(w, r)

		if w.Code != http.StatusForbidden {
			t.Errorf("status = %d, want %d", w.Code, http.StatusForbidden)
		}
	})

	t.Run("not found", func(t *testing.T) {
		service := &mockPostService{
			updateFunc: func(_ context.Context, _ *model.SessionClaims, postID, _, _ string) (*model.Post, error) {
				return nil, model.NewPostNotFoundError(postID)
			},
		}
		h := NewPostHandler(service)

		r := withURLParam(sessionRequest(http.MethodPut, "/posts/missing", `{"title":"t","content":"c"}`), "id", "missing")
		w := httptest.NewRecorder()

		h.Update(w, r)

		if w.Code != http.StatusNotFound {
			t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
		}
	})

	t.Run("unauthenticated", func(t *testing.T) {
		h := NewPostHandler(&mockPostService{})

		r := withURLParam(httptest.NewRequest(http.MethodPut, "/posts/post-1", strings.NewReader(`{"title":"t","content":"c"}`)), "id", "post-1")
		w := httptest.NewRecorder()

		h.Update(w, r)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
		}
	})
}
