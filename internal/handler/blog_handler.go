package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/castport/internal/content"
	"github.com/hitoshi/castport/internal/middleware"
	"github.com/hitoshi/castport/internal/model"
)

// BlogServiceInterface はブログハンドラーが必要とするサービスインターフェース。
type BlogServiceInterface interface {
	Create(ctx context.Context, user *model.User, title, body string) (*model.BlogPost, error)
	ListPublished(ctx context.Context, limit int) ([]*model.BlogPost, error)
	GetPublished(ctx context.Context, id string) (*model.BlogPost, error)
	ListOwn(ctx context.Context, user *model.User) ([]*model.BlogPost, error)
	Update(ctx context.Context, id string, user *model.User, patch content.BlogPostPatch) (*model.BlogPost, error)
	Submit(ctx context.Context, id string, user *model.User) (*model.BlogPost, error)
	Publish(ctx context.Context, id string, user *model.User) (*model.BlogPost, error)
	Delete(ctx context.Context, id string, user *model.User) error
}

// BlogHandler はブログ記事のHTTPハンドラー。
type BlogHandler struct {
	service BlogServiceInterface
}

// NewBlogHandler はBlogHandlerを生成する。
func NewBlogHandler(service BlogServiceInterface) *BlogHandler {
	return &BlogHandler{service: service}
}

type createPostRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type updatePostRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

// blogPostResponse はブログ記事のAPIレスポンス。
type blogPostResponse struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"authorId"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ListPublished は公開済み記事の一覧を返す。
// GET /api/blog/posts
func (h *BlogHandler) ListPublished(w http.ResponseWriter, r *http.Request) {
	posts, err := h.service.ListPublished(r.Context(), 50)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBlogPostResponses(posts))
}

// GetPublished は公開済み記事の詳細を返す。
// GET /api/blog/posts/{id}
// 非公開ステータスの記事は存在しないものとして404を返す。
func (h *BlogHandler) GetPublished(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	post, err := h.service.GetPublished(r.Context(), id)
	if err != nil {
		if errors.Is(err, content.ErrNotFound) {
			writeAPIErrorResponse(w, http.StatusNotFound, model.NewNotFoundError("記事"))
			return
		}
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBlogPostResponse(post))
}

// ListOwn は認証済み著者自身の記事一覧（ステータス不問）を返す。
// GET /api/cast/blog/posts
func (h *BlogHandler) ListOwn(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	posts, err := h.service.ListOwn(r.Context(), user)
	if err != nil {
		handleContentError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBlogPostResponses(posts))
}

// Create は記事を下書きとして作成する。
// POST /api/cast/blog/posts
func (h *BlogHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req createPostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("リクエストボディの解析に失敗しました。"))
		return
	}
	if req.Title == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("入力内容に誤りがあります。", "title is required"))
		return
	}

	post, err := h.service.Create(r.Context(), user, req.Title, req.Content)
	if err != nil {
		handleContentError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBlogPostResponse(post))
}

// Update は記事を更新する。所有権チェックはサービス層が行う。
// PATCH /api/cast/blog/posts/{id}
func (h *BlogHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req updatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("リクエストボディの解析に失敗しました。"))
		return
	}

	post, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), user, content.BlogPostPatch{
		Title:   req.Title,
		Content: req.Content,
	})
	if err != nil {
		handleContentError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBlogPostResponse(post))
}

// Submit は下書きを提出済みに遷移させる。
// POST /api/cast/blog/posts/{id}/submit
func (h *BlogHandler) Submit(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Submit)
}

// Publish は記事を公開する。
// POST /api/cast/blog/posts/{id}/publish
func (h *BlogHandler) Publish(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Publish)
}

func (h *BlogHandler) transition(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id string, user *model.User) (*model.BlogPost, error)) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	post, err := fn(r.Context(), chi.URLParam(r, "id"), user)
	if err != nil {
		handleContentError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBlogPostResponse(post))
}

// Delete は記事を削除する。所有権チェックはサービス層が行う。
// DELETE /api/cast/blog/posts/{id}
func (h *BlogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id"), user); err != nil {
		handleContentError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- ヘルパー関数 ---

func toBlogPostResponse(post *model.BlogPost) blogPostResponse {
	return blogPostResponse{
		ID:        post.ID,
		AuthorID:  post.AuthorID,
		Title:     post.Title,
		Content:   post.Content,
		Status:    string(post.Status),
		CreatedAt: post.CreatedAt,
		UpdatedAt: post.UpdatedAt,
	}
}

func toBlogPostResponses(posts []*model.BlogPost) []blogPostResponse {
	resp := make([]blogPostResponse, 0, len(posts))
	for _, post := range posts {
		resp = append(resp, toBlogPostResponse(post))
	}
	return resp
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	middleware.WriteErrorResponse(w, statusCode, apiErr)
}

// handleContentError はcontentパッケージのセンチネルエラーをHTTPステータスに変換する。
func handleContentError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, content.ErrNotFound):
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewNotFoundError("コンテンツ"))
	case errors.Is(err, content.ErrForbidden):
		writeAPIErrorResponse(w, http.StatusForbidden, model.NewForbiddenError())
	case errors.Is(err, content.ErrInvalidStatus):
		writeAPIErrorResponse(w, http.StatusConflict, model.NewValidationError("この記事の状態ではその操作を行えません。"))
	default:
		handleServiceError(w, err)
	}
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	logError("internal server error", err)
	middleware.WriteInternalServerError(w)
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeInvalidCredentials, model.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case model.ErrCodeForbidden:
		return http.StatusForbidden
	case model.ErrCodeNotFound:
		return http.StatusNotFound
	case model.ErrCodeValidationFailed, model.ErrCodeResetTokenInvalid, model.ErrCodeResetTokenUsed:
		return http.StatusBadRequest
	case model.ErrCodeSigningFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func logError(msg string, err error) {
	slog.Error(msg, slog.String("error", err.Error()))
}
