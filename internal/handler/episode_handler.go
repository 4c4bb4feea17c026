package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/castport/internal/content"
	"github.com/hitoshi/castport/internal/middleware"
	"github.com/hitoshi/castport/internal/model"
)

// EpisodeServiceInterface はエピソードハンドラーが必要とするサービスインターフェース。
type EpisodeServiceInterface interface {
	List(ctx context.Context, limit int) ([]*model.Episode, error)
	Get(ctx context.Context, id string) (*model.Episode, error)
	Create(ctx context.Context, user *model.User, input content.EpisodeInput) (*model.Episode, error)
	Update(ctx context.Context, id string, user *model.User, input content.EpisodeInput) (*model.Episode, error)
	Delete(ctx context.Context, id string) error
}

// EpisodeHandler はエピソードのHTTPハンドラー。
type EpisodeHandler struct {
	service EpisodeServiceInterface
}

// NewEpisodeHandler はEpisodeHandlerを生成する。
func NewEpisodeHandler(service EpisodeServiceInterface) *EpisodeHandler {
	return &EpisodeHandler{service: service}
}

type episodeRequest struct {
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	VideoPath     string    `json:"videoPath"`
	ThumbnailPath string    `json:"thumbnailPath"`
	AirDate       time.Time `json:"airDate"`
}

// episodeResponse はエピソードのAPIレスポンス。
type episodeResponse struct {
	ID            string    `json:"id"`
	AuthorID      string    `json:"authorId"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	VideoPath     string    `json:"videoPath"`
	ThumbnailPath string    `json:"thumbnailPath"`
	AirDate       time.Time `json:"airDate"`
	CreatedAt     time.Time `json:"createdAt"`
}

// List は全エピソードの一覧を返す。
// GET /api/episodes, GET /api/parent/episodes
func (h *EpisodeHandler) List(w http.ResponseWriter, r *http.Request) {
	episodes, err := h.service.List(r.Context(), 50)
	if err != nil {
		handleContentError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEpisodeResponses(episodes))
}

// Get はエピソード詳細を返す。
// GET /api/episodes/{id}
func (h *EpisodeHandler) Get(w http.ResponseWriter, r *http.Request) {
	episode, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleContentError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEpisodeResponse(episode))
}

// Create はエピソードを作成する。
// POST /api/episodes
// 参照するオブジェクトには作成者を所有者とするプライベートポリシーが付与される。
func (h *EpisodeHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	req, apiErr := decodeEpisodeRequest(r)
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	episode, err := h.service.Create(r.Context(), user, content.EpisodeInput{
		Title:         req.Title,
		Description:   req.Description,
		VideoPath:     req.VideoPath,
		ThumbnailPath: req.ThumbnailPath,
		AirDate:       req.AirDate,
	})
	if err != nil {
		handleContentError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEpisodeResponse(episode))
}

// Update はエピソードを更新する。所有権チェックはサービス層が行う。
// PUT /api/episodes/{id}
func (h *EpisodeHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	req, apiErr := decodeEpisodeRequest(r)
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	episode, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), user, content.EpisodeInput{
		Title:         req.Title,
		Description:   req.Description,
		VideoPath:     req.VideoPath,
		ThumbnailPath: req.ThumbnailPath,
		AirDate:       req.AirDate,
	})
	if err != nil {
		handleContentError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEpisodeResponse(episode))
}

// Delete はエピソードを削除する。管理者専用ルートに配置すること。
// DELETE /api/episodes/{id}
func (h *EpisodeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleContentError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeEpisodeRequest(r *http.Request) (*episodeRequest, *model.APIError) {
	var req episodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, model.NewValidationError("リクエストボディの解析に失敗しました。")
	}
	if req.Title == "" {
		return nil, model.NewValidationError("入力内容に誤りがあります。", "title is required")
	}
	return &req, nil
}

func toEpisodeResponse(episode *model.Episode) episodeResponse {
	return episodeResponse{
		ID:            episode.ID,
		AuthorID:      episode.AuthorID,
		Title:         episode.Title,
		Description:   episode.Description,
		VideoPath:     episode.VideoPath,
		ThumbnailPath: episode.ThumbnailPath,
		AirDate:       episode.AirDate,
		CreatedAt:     episode.CreatedAt,
	}
}

func toEpisodeResponses(episodes []*model.Episode) []episodeResponse {
	resp := make([]episodeResponse, 0, len(episodes))
	for _, episode := range episodes {
		resp = append(resp, toEpisodeResponse(episode))
	}
	return resp
}
