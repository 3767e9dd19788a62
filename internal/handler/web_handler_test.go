package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/membergate/internal/auth"
	"github.com/hitoshi/membergate/internal/middleware"
	"github.com/hitoshi/membergate/internal/model"
	"github.com/hitoshi/membergate/internal/security"
)

// authServiceMock はテスト用の認証サービス実装。
type authServiceMock struct {
	registerFunc func(ctx context.Context, name, email, plaintext string) (*model.User, string, error)
	loginFunc    func(ctx context.Context, email, plaintext string) (*model.User, string, error)
}

func (m *authServiceMock) Register(ctx context.Context, name, email, plaintext string) (*model.User, string, error) {
	return m.registerFunc(ctx, name, email, plaintext)
}

func (m *authServiceMock) Login(ctx context.Context, email, plaintext string) (*model.User, string, error) {
	return m.loginFunc(ctx, email, plaintext)
}

func newTestHandler(t *testing.T, authSvc AuthServiceInterface, downloadDir string) *WebHandler {
	t.Helper()
	h, err := NewWebHandler(authSvc, security.NewPathGuard(downloadDir), nil, WebHandlerConfig{
		SessionMaxAge: 3600,
	})
	if err != nil {
		t.Fatalf("NewWebHandler failed: %v", err)
	}
	return h
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.SessionCookieName {
			return c
		}
	}
	return nil
}

// 登録成功でセッションCookieが設定され/secretsへリダイレクトされることを検証
func TestRegister_Success_SetsCookieAndRedirects(t *testing.T) {
	authSvc := &authServiceMock{
		registerFunc: func(ctx context.Context, name, email, plaintext string) (*model.User, string, error) {
			return &model.User{ID: 1, Name: name, Email: email}, "issued-token", nil
		},
	}
	h := newTestHandler(t, authSvc, t.TempDir())

	form := url.Values{"name": {"Alice"}, "email": {"a@x.com"}, "password": {"p1"}}
	req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := httptest.NewRecorder()
	h.Register(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusFound)
	}
	if loc := rec.Header().Get("Location"); loc != "/secrets" {
		t.Errorf("Location = %q, want %q", loc, "/secrets")
	}

	cookie := sessionCookie(t, rec)
	if cookie == nil {
		t.Fatal("session cookie should be set")
	}
	if cookie.Value != "issued-token" {
		t.Errorf("cookie value = %q, want %q", cookie.Value, "issued-token")
	}
	if !cookie.HttpOnly {
		t.Error("session cookie must be HTTP only")
	}
}

// 登録済みemailでの登録がエラーコード付きでログイン画面へリダイレクトされることを検証
func TestRegister_DuplicateEmail_RedirectsToLogin(t *testing.T) {
	authSvc := &authServiceMock{
		registerFunc: func(ctx context.Context, name, email, plaintext string) (*model.User, string, error) {
			return nil, "", model.NewDuplicateEmailError()
		},
	}
	h := newTestHandler(t, authSvc, t.TempDir())

	form := url.Values{"name": {"Alice"}, "email": {"a@x.com"}, "password": {"p1"}}
	req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := httptest.NewRecorder()
	h.Register(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusFound)
	}
	if loc := rec.Header().Get("Location"); loc != "/login?error=duplicate_email" {
		t.Errorf("Location = %q, want %q", loc, "/login?error=duplicate_email")
	}
	if sessionCookie(t, rec) != nil {
		t.Error("no session cookie should be set on failure")
	}
}

// 必須項目の欠落でフォームが再描画されることを検証
func TestRegister_MissingFields_RerendersForm(t *testing.T) {
	called := false
	authSvc := &authServiceMock{
		registerFunc: func(ctx context.Context, name, email, plaintext string) (*model.User, string, error) {
			called = true
			return nil, "", nil
		},
	}
	h := newTestHandler(t, authSvc, t.TempDir())

	form := url.Values{"name": {"Alice"}, "email": {""}, "password": {"p1"}}
	req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := httptest.NewRecorder()
	h.Register(rec, req)

	if called {
		t.Error("auth service must not be called with missing fields")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), "All fields are required.") {
		t.Error("response should contain the validation message")
	}
}

// ログイン失敗時にエラーメッセージ付きでフォームが再描画されることを検証
func TestLogin_Failure_RerendersWithMessage(t *testing.T) {
	cases := []struct {
		name string
		err  *model.APIError
	}{
		{"unknown email", model.NewInvalidEmailError()},
		{"wrong password", model.NewInvalidPasswordError()},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			authSvc := &authServiceMock{
				loginFunc: func(ctx context.Context, email, plaintext string) (*model.User, string, error) {
					return nil, "", tc.err
				},
			}
			h := newTestHandler(t, authSvc, t.TempDir())

			form := url.Values{"email": {"a@x.com"}, "password": {"p1"}}
			req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

			rec := httptest.NewRecorder()
			h.Login(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
			}
			if !strings.Contains(rec.Body.String(), tc.err.Message) {
				t.Errorf("response should contain %q", tc.err.Message)
			}
			if sessionCookie(t, rec) != nil {
				t.Error("no session cookie should be set on failure")
			}
		})
	}
}

// ログイン成功でセッションCookieが設定され/secretsへリダイレクトされることを検証
func TestLogin_Success_SetsCookieAndRedirects(t *testing.T) {
	authSvc := &authServiceMock{
		loginFunc: func(ctx context.Context, email, plaintext string) (*model.User, string, error) {
			return &model.User{ID: 1, Email: email}, "issued-token", nil
		},
	}
	h := newTestHandler(t, authSvc, t.TempDir())

	form := url.Values{"email": {"a@x.com"}, "password": {"p1"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := httptest.NewRecorder()
	h.Login(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusFound)
	}
	if loc := rec.Header().Get("Location"); loc != "/secrets" {
		t.Errorf("Location = %q, want %q", loc, "/secrets")
	}
	if cookie := sessionCookie(t, rec); cookie == nil || cookie.Value != "issued-token" {
		t.Error("session cookie should carry the issued token")
	}
}

// ?error=コードが定義済みメッセージとして表示されることを検証
func TestLoginForm_KnownErrorCode_ShowsMessage(t *testing.T) {
	h := newTestHandler(t, &authServiceMock{}, t.TempDir())

	req := httptest.NewRequest(http.MethodGet, "/login?error=unauthenticated", nil)
	rec := httptest.NewRecorder()
	h.LoginForm(rec, req)

	if !strings.Contains(rec.Body.String(), model.NewUnauthenticatedError().Message) {
		t.Error("response should contain the unauthenticated message")
	}
}

// 未定義の?error=コードでは任意文字列が表示されないことを検証
func TestLoginForm_UnknownErrorCode_ShowsNothing(t *testing.T) {
	h := newTestHandler(t, &authServiceMock{}, t.TempDir())

	req := httptest.NewRequest(http.MethodGet, "/login?error=%3Cscript%3Ealert(1)%3C/script%3E", nil)
	rec := httptest.NewRecorder()
	h.LoginForm(rec, req)

	if strings.Contains(rec.Body.String(), "alert(1)") {
		t.Error("unknown error codes must not be echoed to the page")
	}
}

// 認証済みユーザーのログインフォームアクセスが/secretsへリダイレクトされることを検証
func TestLoginForm_Authenticated_Redirects(t *testing.T) {
	h := newTestHandler(t, &authServiceMock{}, t.TempDir())

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	visitor := auth.AuthenticatedVisitor(&model.User{ID: 1, Name: "Alice"})
	req = req.WithContext(middleware.ContextWithVisitor(req.Context(), visitor))

	rec := httptest.NewRecorder()
	h.LoginForm(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusFound)
	}
	if loc := rec.Header().Get("Location"); loc != "/secrets" {
		t.Errorf("Location = %q, want %q", loc, "/secrets")
	}
}

// ログアウトでセッションCookieが無効化されホームへリダイレクトされることを検証
func TestLogout_ClearsCookieAndRedirects(t *testing.T) {
	h := newTestHandler(t, &authServiceMock{}, t.TempDir())

	req := httptest.NewRequest(http.MethodGet, "/logout", nil)
	rec := httptest.NewRecorder()
	h.Logout(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusFound)
	}
	if loc := rec.Header().Get("Location"); loc != "/" {
		t.Errorf("Location = %q, want %q", loc, "/")
	}

	cookie := sessionCookie(t, rec)
	if cookie == nil {
		t.Fatal("an expiring session cookie should be set")
	}
	if cookie.MaxAge != -1 {
		t.Errorf("cookie MaxAge = %d, want -1", cookie.MaxAge)
	}
	if cookie.Value != "" {
		t.Errorf("cookie value = %q, want empty", cookie.Value)
	}
}

func downloadRequest(filename string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/download/"+url.PathEscape(filename), nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("filename", filename)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// 実在するファイルが添付ファイルとして送信されることを検証
func TestDownload_ExistingFile_ServesAttachment(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "cheat_sheet.txt"), []byte("the secret"), 0o600); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	h := newTestHandler(t, &authServiceMock{}, dir)

	rec := httptest.NewRecorder()
	h.Download(rec, downloadRequest("cheat_sheet.txt"))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got := rec.Header().Get("Content-Disposition"); !strings.Contains(got, "attachment") {
		t.Errorf("Content-Disposition = %q, want attachment", got)
	}
	if rec.Body.String() != "the secret" {
		t.Errorf("body = %q, want file contents", rec.Body.String())
	}
}

// 存在しないファイルで404が返ることを検証
func TestDownload_MissingFile_Returns404(t *testing.T) {
	h := newTestHandler(t, &authServiceMock{}, t.TempDir())

	rec := httptest.NewRecorder()
	h.Download(rec, downloadRequest("nope.txt"))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

// ディレクトリ外へ抜けるパスで404が返り、ファイルが読めないことを検証
func TestDownload_Traversal_Returns404(t *testing.T) {
	dir := t.TempDir()
	// 封じ込めルートの外にファイルを置く
	outside := filepath.Join(dir, "outside.txt")
	if err := os.WriteFile(outside, []byte("must not leak"), 0o600); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	h := newTestHandler(t, &authServiceMock{}, filepath.Join(dir, "files"))

	for _, filename := range []string{"../outside.txt", "..", "/etc/passwd"} {
		rec := httptest.NewRecorder()
		h.Download(rec, downloadRequest(filename))

		if rec.Code != http.StatusNotFound {
			t.Errorf("status for %q = %d, want %d", filename, rec.Code, http.StatusNotFound)
		}
		if strings.Contains(rec.Body.String(), "must not leak") {
			t.Errorf("file contents leaked for %q", filename)
		}
	}
}
