package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hitoshi/castport/internal/model"
	"github.com/hitoshi/castport/internal/repository"
)

// ApplicationHandler は公開フォーム応募のHTTPハンドラー。
// 送信は未認証で受け付ける（フォーム専用レート制限を適用すること）。
// 一覧・削除は管理者専用ルートに配置する。
type ApplicationHandler struct {
	repo repository.ApplicationRepository
}

// NewApplicationHandler はApplicationHandlerを生成する。
func NewApplicationHandler(repo repository.ApplicationRepository) *ApplicationHandler {
	return &ApplicationHandler{repo: repo}
}

// applicationRequest は応募フォームの共通フィールド。
// 種別ごとの追加フィールドはpayloadにそのまま保持する。
type applicationRequest struct {
	Name    string          `json:"name"`
	Email   string          `json:"email"`
	Payload json.RawMessage `json:"payload"`
}

type applicationResponse struct {
	ID        string          `json:"id"`
	Kind      string          `json:"kind"`
	Name      string          `json:"name"`
	Email     string          `json:"email"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Submit は指定種別の応募送信ハンドラーを返す。
// POST /api/{kind}-applications
func (h *ApplicationHandler) Submit(kind model.ApplicationKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !model.ValidApplicationKind(kind) {
			writeAPIErrorResponse(w, http.StatusNotFound, model.NewNotFoundError("応募フォーム"))
			return
		}

		var req applicationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("リクエストボディの解析に失敗しました。"))
			return
		}

		var details []string
		if req.Email == "" {
			details = append(details, "email is required")
		}
		// ニュースレター購読はメールアドレスのみ必須
		if req.Name == "" && kind != model.ApplicationNewsletter {
			details = append(details, "name is required")
		}
		if len(details) > 0 {
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("入力内容に誤りがあります。", details...))
			return
		}

		app := &model.Application{
			ID:        uuid.New().String(),
			Kind:      kind,
			Name:      req.Name,
			Email:     model.NormalizeEmail(req.Email),
			Payload:   req.Payload,
			CreatedAt: time.Now(),
		}
		if err := h.repo.Create(r.Context(), app); err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, map[string]interface{}{
			"success": true,
			"id":      app.ID,
		})
	}
}

// List は指定種別の応募一覧ハンドラーを返す。管理者専用。
// GET /api/admin/{kind}-applications
func (h *ApplicationHandler) List(kind model.ApplicationKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		apps, err := h.repo.ListByKind(r.Context(), kind)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		resp := make([]applicationResponse, 0, len(apps))
		for _, app := range apps {
			resp = append(resp, applicationResponse{
				ID:        app.ID,
				Kind:      string(app.Kind),
				Name:      app.Name,
				Email:     app.Email,
				Payload:   json.RawMessage(app.Payload),
				CreatedAt: app.CreatedAt,
			})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// Delete は指定種別の応募削除ハンドラーを返す。管理者専用。
// DELETE /api/admin/{kind}-applications/{id}
// 種別とIDの両方が一致しない限り削除しない。
func (h *ApplicationHandler) Delete(kind model.ApplicationKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		deleted, err := h.repo.DeleteByKindAndID(r.Context(), kind, id)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		if !deleted {
			writeAPIErrorResponse(w, http.StatusNotFound, model.NewNotFoundError("応募"))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
