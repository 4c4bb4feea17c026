package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/castport/internal/middleware"
	"github.com/hitoshi/castport/internal/model"
	"github.com/hitoshi/castport/internal/objectstore"
)

// ObjectServiceInterface はオブジェクトハンドラーが必要とするサービスインターフェース。
type ObjectServiceInterface interface {
	IssueUploadURL(ctx context.Context) (*objectstore.UploadURL, error)
	KeyForObjectPath(objectPath string) string
	CanAccessObject(ctx context.Context, userID, key string, requested objectstore.Permission) (bool, error)
	Stream(ctx context.Context, w http.ResponseWriter, key string) error
	StreamPublic(ctx context.Context, w http.ResponseWriter, filePath string) error
}

// ObjectMetricsRecorder はオブジェクト操作のメトリクスを記録する。
type ObjectMetricsRecorder interface {
	RecordUploadURLIssued()
	RecordObjectAccess(allowed bool)
	RecordObjectStreamLatency(duration time.Duration)
}

// ObjectHandler は署名付きURL発行と保護オブジェクト配信のHTTPハンドラー。
type ObjectHandler struct {
	service ObjectServiceInterface
	metrics ObjectMetricsRecorder
}

// NewObjectHandler はObjectHandlerを生成する。metricsはnilでもよい。
func NewObjectHandler(service ObjectServiceInterface, metrics ObjectMetricsRecorder) *ObjectHandler {
	return &ObjectHandler{
		service: service,
		metrics: metrics,
	}
}

// IssueUploadURL は署名付きアップロードURLを発行する。
// POST /api/objects/upload
// 毎回新しい一意のオブジェクトキーを生成する。発行失敗時はURLを返さない。
func (h *ObjectHandler) IssueUploadURL(w http.ResponseWriter, r *http.Request) {
	upload, err := h.service.IssueUploadURL(r.Context())
	if err != nil {
		var signErr *objectstore.SigningError
		if errors.As(err, &signErr) {
			logError("failed to presign upload URL", err)
			writeAPIErrorResponse(w, http.StatusBadGateway, model.NewSigningFailedError())
			return
		}
		handleServiceError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordUploadURLIssued()
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"uploadURL":  upload.URL,
		"method":     upload.Method,
		"objectPath": upload.ObjectPath,
	})
}

// ServeObject は保護オブジェクトを配信する。
// GET /objects/*
// ACL評価で拒否された場合は401（本文なし）、オブジェクト不在は404を返す。
// 既にオブジェクトパスを知っている呼び出し元への応答のため、
// 拒否レスポンスで存在の有無を漏らさない。
func (h *ObjectHandler) ServeObject(w http.ResponseWriter, r *http.Request) {
	objectPath := "/objects/" + chi.URLParam(r, "*")
	key := h.service.KeyForObjectPath(objectPath)
	if key == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	var userID string
	if user, ok := middleware.UserFromContext(r.Context()); ok {
		userID = user.ID
	}

	allowed, err := h.service.CanAccessObject(r.Context(), userID, key, objectstore.PermissionRead)
	if err != nil {
		if errors.Is(err, objectstore.ErrObjectNotFound) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		logError("failed to evaluate object access", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordObjectAccess(allowed)
	}
	if !allowed {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	start := time.Now()
	if err := h.service.Stream(r.Context(), w, key); err != nil {
		if errors.Is(err, objectstore.ErrObjectNotFound) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		logError("failed to stream object", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if h.metrics != nil {
		h.metrics.RecordObjectStreamLatency(time.Since(start))
	}
}

// ServePublicObject は公開オブジェクトを配信する。認証不要。
// GET /public-objects/*
// 設定された公開検索パスを順に探索し、見つからなければ404を返す。
func (h *ObjectHandler) ServePublicObject(w http.ResponseWriter, r *http.Request) {
	filePath := chi.URLParam(r, "*")
	if filePath == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	if err := h.service.StreamPublic(r.Context(), w, filePath); err != nil {
		if errors.Is(err, objectstore.ErrObjectNotFound) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if errors.Is(err, objectstore.ErrNoSearchPaths) {
			logError("public object search paths not configured", err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		logError("failed to stream public object", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
}
