package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/castport/internal/content"
	"github.com/hitoshi/castport/internal/middleware"
	"github.com/hitoshi/castport/internal/model"
)

// --- ルーター統合テスト用モック ---

// routerSessionFinder はセッションIDからロール別のテストユーザーを引くモック。
type routerSessionFinder struct {
	sessions map[string]*model.Session
}

func (f *routerSessionFinder) FindByID(ctx context.Context, id string) (*model.Session, error) {
	return f.sessions[id], nil
}

func (f *routerSessionFinder) Touch(ctx context.Context, id string, expiresAt time.Time) error {
	return nil
}

type routerUserFinder struct {
	users map[string]*model.User
}

func (f *routerUserFinder) FindByID(ctx context.Context, id string) (*model.User, error) {
	return f.users[id], nil
}

type mockEpisodeService struct{}

func (m *mockEpisodeService) List(ctx context.Context, limit int) ([]*model.Episode, error) {
	return nil, nil
}
func (m *mockEpisodeService) Get(ctx context.Context, id string) (*model.Episode, error) {
	return &model.Episode{ID: id}, nil
}
func (m *mockEpisodeService) Create(ctx context.Context, user *model.User, input content.EpisodeInput) (*model.Episode, error) {
	return &model.Episode{ID: "ep-new"}, nil
}
func (m *mockEpisodeService) Update(ctx context.Context, id string, user *model.User, input content.EpisodeInput) (*model.Episode, error) {
	return &model.Episode{ID: id}, nil
}
func (m *mockEpisodeService) Delete(ctx context.Context, id string) error {
	return nil
}

type mockDossierService struct{}

func (m *mockDossierService) List(ctx context.Context) ([]*model.Dossier, error) {
	return nil, nil
}
func (m *mockDossierService) Create(ctx context.Context, user *model.User, title, rawDocumentPath string) (*model.Dossier, error) {
	return &model.Dossier{ID: "dossier-new", Title: title}, nil
}
func (m *mockDossierService) Delete(ctx context.Context, id string) error {
	return nil
}

type mockApplicationRepo struct{}

func (m *mockApplicationRepo) Create(ctx context.Context, app *model.Application) error {
	return nil
}
func (m *mockApplicationRepo) ListByKind(ctx context.Context, kind model.ApplicationKind) ([]*model.Application, error) {
	return nil, nil
}
func (m *mockApplicationRepo) DeleteByKindAndID(ctx context.Context, kind model.ApplicationKind, id string) (bool, error) {
	return true, nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	sessionMaxAge := 30 * 24 * time.Hour
	sessions := map[string]*model.Session{}
	users := map[string]*model.User{}
	for _, role := range []model.Role{model.RoleCastMember, model.RoleParent, model.RoleEducator, model.RoleAdmin} {
		userID := "user-" + string(role)
		sessions["sess-"+string(role)] = &model.Session{
			ID:        "sess-" + string(role),
			UserID:    userID,
			ExpiresAt: time.Now().Add(sessionMaxAge),
		}
		users[userID] = &model.User{ID: userID, Role: role}
	}

	rl := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())
	t.Cleanup(rl.Stop)

	return NewRouter(&RouterDeps{
		SessionFinder:     &routerSessionFinder{sessions: sessions},
		UserFinder:        &routerUserFinder{users: users},
		SessionSecret:     testSessionSecret,
		SessionMaxAge:     sessionMaxAge,
		AuthConfig:        AuthHandlerConfig{SessionSecret: testSessionSecret},
		CORSAllowedOrigin: "http://localhost:5173",
		RateLimiter:       rl,
		Logger:            slog.New(slog.NewJSONHandler(io.Discard, nil)),
		AuthService:       &mockAuthService{},
		BlogService:       &mockBlogService{},
		EpisodeService:    &mockEpisodeService{},
		DossierService:    &mockDossierService{},
		ObjectService:     &mockObjectService{},
		ApplicationRepo:   &mockApplicationRepo{},
	})
}

// doRouted はロール指定でルーターにリクエストを送る。roleが空なら匿名。
func doRouted(t *testing.T, router http.Handler, method, path string, role model.Role) *http.Response {
	t.Helper()

	req := httptest.NewRequest(method, path, nil)
	if role != "" {
		req.AddCookie(&http.Cookie{
			Name:  middleware.SessionCookieName,
			Value: middleware.SignSessionCookie("sess-"+string(role), testSessionSecret),
		})
	}
	// 状態変更メソッド用のCSRFトークン
	req.AddCookie(&http.Cookie{Name: "castport_csrf", Value: "test-token"})
	req.Header.Set("X-CSRF-Token", "test-token")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w.Result()
}

// --- テスト ---

func TestRouter_Health_Anonymous(t *testing.T) {
	router := newTestRouter(t)

	resp := doRouted(t, router, http.MethodGet, "/health", "")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
}

func TestRouter_PublicBlogList_Anonymous(t *testing.T) {
	router := newTestRouter(t)

	resp := doRouted(t, router, http.MethodGet, "/api/blog/posts", "")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
}

func TestRouter_CastRoutes_RoleGate(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		role model.Role
		want int
	}{
		{"", http.StatusUnauthorized},
		{model.RoleParent, http.StatusForbidden},
		{model.RoleEducator, http.StatusForbidden},
		{model.RoleCastMember, http.StatusOK},
		{model.RoleAdmin, http.StatusOK}, // adminはすべてのロールゲートを通過できる
	}
	for _, tt := range tests {
		resp := doRouted(t, router, http.MethodGet, "/api/cast/blog/posts", tt.role)
		if resp.StatusCode != tt.want {
			t.Errorf("role %q: status = %d, want %d", tt.role, resp.StatusCode, tt.want)
		}
	}
}

func TestRouter_DossierList_EducatorGate(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		role model.Role
		want int
	}{
		{model.RoleCastMember, http.StatusForbidden},
		{model.RoleEducator, http.StatusOK},
		{model.RoleAdmin, http.StatusOK},
	}
	for _, tt := range tests {
		resp := doRouted(t, router, http.MethodGet, "/api/dossiers", tt.role)
		if resp.StatusCode != tt.want {
			t.Errorf("role %q: status = %d, want %d", tt.role, resp.StatusCode, tt.want)
		}
	}
}

func TestRouter_ParentEpisodes_ParentGate(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		role model.Role
		want int
	}{
		{"", http.StatusUnauthorized},
		{model.RoleParent, http.StatusOK},
		{model.RoleEducator, http.StatusForbidden},
		{model.RoleAdmin, http.StatusOK},
	}
	for _, tt := range tests {
		resp := doRouted(t, router, http.MethodGet, "/api/parent/episodes", tt.role)
		if resp.StatusCode != tt.want {
			t.Errorf("role %q: status = %d, want %d", tt.role, resp.StatusCode, tt.want)
		}
	}
}

func TestRouter_EpisodeDelete_AdminOnly(t *testing.T) {
	router := newTestRouter(t)

	// 所有者であってもcast_memberは削除ルートに到達できない
	resp := doRouted(t, router, http.MethodDelete, "/api/episodes/ep-1", model.RoleCastMember)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("cast_member: status = %d, want %d", resp.StatusCode, http.StatusForbidden)
	}

	resp = doRouted(t, router, http.MethodDelete, "/api/episodes/ep-1", model.RoleAdmin)
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("admin: status = %d, want %d", resp.StatusCode, http.StatusNoContent)
	}
}

func TestRouter_AdminApplications_AdminOnly(t *testing.T) {
	router := newTestRouter(t)

	resp := doRouted(t, router, http.MethodGet, "/api/admin/summiteer-applications", model.RoleEducator)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("educator: status = %d, want %d", resp.StatusCode, http.StatusForbidden)
	}

	resp = doRouted(t, router, http.MethodGet, "/api/admin/summiteer-applications", model.RoleAdmin)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("admin: status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
}

func TestRouter_UploadURL_RequiresCastMemberOrAdmin(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		role model.Role
		want int
	}{
		{"", http.StatusUnauthorized},
		{model.RoleParent, http.StatusForbidden},
		// モックのIssueUploadURLは未設定エラーを返すため500になるが、
		// ロールゲートを通過したことは確認できる
		{model.RoleCastMember, http.StatusInternalServerError},
		{model.RoleAdmin, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		resp := doRouted(t, router, http.MethodPost, "/api/objects/upload", tt.role)
		if resp.StatusCode != tt.want {
			t.Errorf("role %q: status = %d, want %d", tt.role, resp.StatusCode, tt.want)
		}
	}
}

func TestRouter_ProtectedObject_ACLDecides(t *testing.T) {
	router := newTestRouter(t)

	// モックのCanAccessObjectは常に拒否するため匿名・認証済みともに401
	resp := doRouted(t, router, http.MethodGet, "/objects/uploads/abc", "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("anonymous: status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}
}

func TestRouter_PublicObject_NotFound(t *testing.T) {
	router := newTestRouter(t)

	resp := doRouted(t, router, http.MethodGet, "/public-objects/logos/missing.png", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}
