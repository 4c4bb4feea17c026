package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/castport/internal/middleware"
	"github.com/hitoshi/castport/internal/model"
)

// DossierServiceInterface は資料ハンドラーが必要とするサービスインターフェース。
type DossierServiceInterface interface {
	List(ctx context.Context) ([]*model.Dossier, error)
	Create(ctx context.Context, user *model.User, title, rawDocumentPath string) (*model.Dossier, error)
	Delete(ctx context.Context, id string) error
}

// DossierHandler は教育者向け資料のHTTPハンドラー。
// 一覧はeducator（またはadmin）、作成・削除はadmin専用ルートに配置する。
type DossierHandler struct {
	service DossierServiceInterface
}

// NewDossierHandler はDossierHandlerを生成する。
func NewDossierHandler(service DossierServiceInterface) *DossierHandler {
	return &DossierHandler{service: service}
}

type createDossierRequest struct {
	Title        string `json:"title"`
	DocumentPath string `json:"documentPath"`
}

type dossierResponse struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	DocumentPath string    `json:"documentPath"`
	CreatedAt    time.Time `json:"createdAt"`
}

// List は資料一覧を返す。
// GET /api/dossiers
func (h *DossierHandler) List(w http.ResponseWriter, r *http.Request) {
	dossiers, err := h.service.List(r.Context())
	if err != nil {
		handleContentError(w, err)
		return
	}

	resp := make([]dossierResponse, 0, len(dossiers))
	for _, d := range dossiers {
		resp = append(resp, toDossierResponse(d))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create は資料を作成する。
// POST /api/dossiers
func (h *DossierHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req createDossierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("リクエストボディの解析に失敗しました。"))
		return
	}

	var details []string
	if req.Title == "" {
		details = append(details, "title is required")
	}
	if req.DocumentPath == "" {
		details = append(details, "documentPath is required")
	}
	if len(details) > 0 {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("入力内容に誤りがあります。", details...))
		return
	}

	dossier, err := h.service.Create(r.Context(), user, req.Title, req.DocumentPath)
	if err != nil {
		handleContentError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toDossierResponse(dossier))
}

// Delete は資料を削除する。
// DELETE /api/dossiers/{id}
func (h *DossierHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleContentError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func toDossierResponse(d *model.Dossier) dossierResponse {
	return dossierResponse{
		ID:           d.ID,
		Title:        d.Title,
		DocumentPath: d.DocumentPath,
		CreatedAt:    d.CreatedAt,
	}
}
