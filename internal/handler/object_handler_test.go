package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/castport/internal/model"
	"github.com/hitoshi/castport/internal/objectstore"
)

// --- モック定義 ---

type mockObjectService struct {
	issueUploadURLFn  func(ctx context.Context) (*objectstore.UploadURL, error)
	keyForPathFn      func(objectPath string) string
	canAccessObjectFn func(ctx context.Context, userID, key string, requested objectstore.Permission) (bool, error)
	streamFn          func(ctx context.Context, w http.ResponseWriter, key string) error
	streamPublicFn    func(ctx context.Context, w http.ResponseWriter, filePath string) error
}

func (m *mockObjectService) IssueUploadURL(ctx context.Context) (*objectstore.UploadURL, error) {
	if m.issueUploadURLFn != nil {
		return m.issueUploadURLFn(ctx)
	}
	return nil, errors.New("not configured")
}

func (m *mockObjectService) KeyForObjectPath(objectPath string) string {
	if m.keyForPathFn != nil {
		return m.keyForPathFn(objectPath)
	}
	return strings.TrimPrefix(objectPath, "/objects/")
}

func (m *mockObjectService) CanAccessObject(ctx context.Context, userID, key string, requested objectstore.Permission) (bool, error) {
	if m.canAccessObjectFn != nil {
		return m.canAccessObjectFn(ctx, userID, key, requested)
	}
	return false, nil
}

func (m *mockObjectService) Stream(ctx context.Context, w http.ResponseWriter, key string) error {
	if m.streamFn != nil {
		return m.streamFn(ctx, w, key)
	}
	return nil
}

func (m *mockObjectService) StreamPublic(ctx context.Context, w http.ResponseWriter, filePath string) error {
	if m.streamPublicFn != nil {
		return m.streamPublicFn(ctx, w, filePath)
	}
	return objectstore.ErrObjectNotFound
}

func serveObjectRequest(path string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	wildcard := strings.TrimPrefix(path, "/objects/")
	if strings.HasPrefix(path, "/public-objects/") {
		wildcard = strings.TrimPrefix(path, "/public-objects/")
	}
	return withChiURLParam(req, "*", wildcard)
}

// --- POST /api/objects/upload ---

func TestObjectHandler_IssueUploadURL_Success(t *testing.T) {
	svc := &mockObjectService{
		issueUploadURLFn: func(ctx context.Context) (*objectstore.UploadURL, error) {
			return &objectstore.UploadURL{
				URL:        "https://storage.example.com/bucket/private/uploads/abc?signature=xyz",
				Method:     http.MethodPut,
				ObjectPath: "/objects/uploads/abc",
			}, nil
		},
	}
	h := NewObjectHandler(svc, nil)

	req := withUser(httptest.NewRequest(http.MethodPost, "/api/objects/upload", nil), castUser)
	w := httptest.NewRecorder()

	h.IssueUploadURL(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
	var body map[string]interface{}
	json.NewDecoder(w.Result().Body).Decode(&body)
	if body["uploadURL"] == "" || body["uploadURL"] == nil {
		t.Error("uploadURL must be present")
	}
	if body["method"] != http.MethodPut {
		t.Errorf("method = %v, want PUT", body["method"])
	}
}

// 署名失敗時はURLを返さない。
func TestObjectHandler_IssueUploadURL_SigningFailure_Returns502(t *testing.T) {
	svc := &mockObjectService{
		issueUploadURLFn: func(ctx context.Context) (*objectstore.UploadURL, error) {
			return nil, &objectstore.SigningError{Err: errors.New("provider unavailable")}
		},
	}
	h := NewObjectHandler(svc, nil)

	req := withUser(httptest.NewRequest(http.MethodPost, "/api/objects/upload", nil), castUser)
	w := httptest.NewRecorder()

	h.IssueUploadURL(w, req)

	if w.Result().StatusCode != http.StatusBadGateway {
		t.Fatalf("status = %d, want %d", w.Result().StatusCode, http.StatusBadGateway)
	}
	var body map[string]interface{}
	json.NewDecoder(w.Result().Body).Decode(&body)
	if _, ok := body["uploadURL"]; ok {
		t.Error("no URL may be returned on signing failure")
	}
	if body["code"] != model.ErrCodeSigningFailed {
		t.Errorf("code = %v, want %v", body["code"], model.ErrCodeSigningFailed)
	}
}

// --- GET /objects/* ---

func TestObjectHandler_ServeObject_Denied_Returns401EmptyBody(t *testing.T) {
	svc := &mockObjectService{
		canAccessObjectFn: func(ctx context.Context, userID, key string, requested objectstore.Permission) (bool, error) {
			return false, nil
		},
	}
	h := NewObjectHandler(svc, nil)

	w := httptest.NewRecorder()
	h.ServeObject(w, serveObjectRequest("/objects/uploads/abc"))

	if w.Result().StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusUnauthorized)
	}
	if w.Body.Len() != 0 {
		t.Errorf("deny response must have empty body, got %q", w.Body.String())
	}
}

func TestObjectHandler_ServeObject_Missing_Returns404(t *testing.T) {
	svc := &mockObjectService{
		canAccessObjectFn: func(ctx context.Context, userID, key string, requested objectstore.Permission) (bool, error) {
			return false, objectstore.ErrObjectNotFound
		},
	}
	h := NewObjectHandler(svc, nil)

	w := httptest.NewRecorder()
	h.ServeObject(w, serveObjectRequest("/objects/uploads/missing"))

	if w.Result().StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusNotFound)
	}
}

func TestObjectHandler_ServeObject_Allowed_StreamsBytes(t *testing.T) {
	svc := &mockObjectService{
		canAccessObjectFn: func(ctx context.Context, userID, key string, requested objectstore.Permission) (bool, error) {
			if userID != "user-a" {
				t.Errorf("userID = %q, want %q", userID, "user-a")
			}
			if requested != objectstore.PermissionRead {
				t.Errorf("permission = %q, want read", requested)
			}
			return true, nil
		},
		streamFn: func(ctx context.Context, w http.ResponseWriter, key string) error {
			if key != "uploads/abc" {
				t.Errorf("key = %q, want %q", key, "uploads/abc")
			}
			w.Header().Set("Content-Type", "video/mp4")
			w.Write([]byte("video-bytes"))
			return nil
		},
	}
	h := NewObjectHandler(svc, nil)

	w := httptest.NewRecorder()
	h.ServeObject(w, withUser(serveObjectRequest("/objects/uploads/abc"), castUser))

	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
	if w.Body.String() != "video-bytes" {
		t.Errorf("body = %q", w.Body.String())
	}
}

// 匿名の呼び出しはACL評価に空のユーザーIDで渡る。
func TestObjectHandler_ServeObject_Anonymous_PassesEmptyUserID(t *testing.T) {
	var gotUserID = "unset"
	svc := &mockObjectService{
		canAccessObjectFn: func(ctx context.Context, userID, key string, requested objectstore.Permission) (bool, error) {
			gotUserID = userID
			return false, nil
		},
	}
	h := NewObjectHandler(svc, nil)

	w := httptest.NewRecorder()
	h.ServeObject(w, serveObjectRequest("/objects/uploads/abc"))

	if gotUserID != "" {
		t.Errorf("userID = %q, want empty", gotUserID)
	}
	if w.Result().StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusUnauthorized)
	}
}

// --- GET /public-objects/* ---

func TestObjectHandler_ServePublicObject_Found_Streams(t *testing.T) {
	svc := &mockObjectService{
		streamPublicFn: func(ctx context.Context, w http.ResponseWriter, filePath string) error {
			if filePath != "logos/banner.png" {
				t.Errorf("filePath = %q", filePath)
			}
			w.Write([]byte("png-bytes"))
			return nil
		},
	}
	h := NewObjectHandler(svc, nil)

	w := httptest.NewRecorder()
	h.ServePublicObject(w, serveObjectRequest("/public-objects/logos/banner.png"))

	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
	if w.Body.String() != "png-bytes" {
		t.Errorf("body = %q", w.Body.String())
	}
}

func TestObjectHandler_ServePublicObject_Missing_Returns404(t *testing.T) {
	h := NewObjectHandler(&mockObjectService{}, nil)

	w := httptest.NewRecorder()
	h.ServePublicObject(w, serveObjectRequest("/public-objects/logos/missing.png"))

	if w.Result().StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusNotFound)
	}
}
