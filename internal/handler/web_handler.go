// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/membergate/internal/middleware"
	"github.com/hitoshi/membergate/internal/model"
	"github.com/hitoshi/membergate/internal/security"
)

//go:embed templates/*.html
var templatesFS embed.FS

// AuthServiceInterface はWebハンドラーが必要とする認証サービスインターフェース。
type AuthServiceInterface interface {
	Register(ctx context.Context, name, email, plaintext string) (*model.User, string, error)
	Login(ctx context.Context, email, plaintext string) (*model.User, string, error)
}

// DownloadRecorder はダウンロードのメトリクス記録インターフェース。
// metrics.Collectorの部分集合として定義する。nil指定で記録なし。
type DownloadRecorder interface {
	RecordDownload()
}

// WebHandlerConfig はWebハンドラーの設定。
type WebHandlerConfig struct {
	CookieDomain  string
	CookieSecure  bool
	SessionMaxAge int // セッションCookieの有効期間（秒）
}

// WebHandler は画面描画と認証フローのHTTPハンドラー。
type WebHandler struct {
	auth      AuthServiceInterface
	pathGuard security.PathGuardService
	metrics   DownloadRecorder
	config    WebHandlerConfig
	templates *template.Template
}

// NewWebHandler はWebHandlerを生成する。
// 埋め込みテンプレートのパースに失敗した場合はエラーを返す。
func NewWebHandler(
	auth AuthServiceInterface,
	pathGuard security.PathGuardService,
	metrics DownloadRecorder,
	config WebHandlerConfig,
) (*WebHandler, error) {
	templates, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	return &WebHandler{
		auth:      auth,
		pathGuard: pathGuard,
		metrics:   metrics,
		config:    config,
		templates: templates,
	}, nil
}

// pageData はテンプレートへ渡す描画データ。
type pageData struct {
	Authenticated bool
	Name          string
	Error         string
}

// loginErrorMessages はloginページの?error=コードと表示メッセージの対応表。
// 表示されるのはこの表にある定義済みメッセージのみで、
// クライアント経由の任意文字列が画面に出ることはない。
var loginErrorMessages = map[string]string{
	"duplicate_email":  model.NewDuplicateEmailError().Message,
	"invalid_email":    model.NewInvalidEmailError().Message,
	"invalid_password": model.NewInvalidPasswordError().Message,
	"unauthenticated":  model.NewUnauthenticatedError().Message,
}

// Home はランディングページを描画する。
// GET /
func (h *WebHandler) Home(w http.ResponseWriter, r *http.Request) {
	h.render(w, "index.html", h.pageDataFor(r))
}

// RegisterForm は登録フォームを描画する。認証済みの場合は/secretsへリダイレクトする。
// GET /register
func (h *WebHandler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	if middleware.VisitorFromContext(r.Context()).IsAuthenticated() {
		http.Redirect(w, r, "/secrets", http.StatusFound)
		return
	}
	h.render(w, "register.html", pageData{})
}

// Register は新規ユーザーを登録し、セッションを確立して/secretsへリダイレクトする。
// emailが登録済みの場合はエラーコード付きでログイン画面へリダイレクトする。
// POST /register
func (h *WebHandler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	name := r.PostFormValue("name")
	email := r.PostFormValue("email")
	plaintext := r.PostFormValue("password")

	if name == "" || email == "" || plaintext == "" {
		h.render(w, "register.html", pageData{Error: "All fields are required."})
		return
	}

	_, token, err := h.auth.Register(r.Context(), name, email, plaintext)
	if err != nil {
		var apiErr *model.APIError
		if errors.As(err, &apiErr) && apiErr.Code == model.ErrCodeDuplicateEmail {
			http.Redirect(w, r, "/login?error=duplicate_email", http.StatusFound)
			return
		}
		slog.Error("registration failed", slog.String("error", err.Error()))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.setSessionCookie(w, token)
	http.Redirect(w, r, "/secrets", http.StatusFound)
}

// LoginForm はログインフォームを描画する。認証済みの場合は/secretsへリダイレクトする。
// ?error=<code> が定義済みコードの場合は対応するメッセージをインライン表示する。
// GET /login
func (h *WebHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	if middleware.VisitorFromContext(r.Context()).IsAuthenticated() {
		http.Redirect(w, r, "/secrets", http.StatusFound)
		return
	}

	message := loginErrorMessages[r.URL.Query().Get("error")]
	h.render(w, "login.html", pageData{Error: message})
}

// Login は資格情報を検証し、セッションを確立して/secretsへリダイレクトする。
// 検証失敗時はエラーメッセージ付きでログインフォームを再描画する。
// POST /login
func (h *WebHandler) Login(w http.ResponseWriter, r *http.Request) {
	if middleware.VisitorFromContext(r.Context()).IsAuthenticated() {
		http.Redirect(w, r, "/secrets", http.StatusFound)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	email := r.PostFormValue("email")
	plaintext := r.PostFormValue("password")

	_, token, err := h.auth.Login(r.Context(), email, plaintext)
	if err != nil {
		var apiErr *model.APIError
		if errors.As(err, &apiErr) {
			h.render(w, "login.html", pageData{Error: apiErr.Message})
			return
		}
		slog.Error("login failed", slog.String("error", err.Error()))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.setSessionCookie(w, token)
	http.Redirect(w, r, "/secrets", http.StatusFound)
}

// Secrets は認証済みユーザー向けのコンテンツページを描画する。
// RequireAuthミドルウェアの内側に配置される。
// GET /secrets
func (h *WebHandler) Secrets(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.VisitorFromContext(r.Context()).User()
	if !ok {
		http.Redirect(w, r, "/login?error=unauthenticated", http.StatusFound)
		return
	}

	h.render(w, "secrets.html", pageData{
		Authenticated: true,
		Name:          user.Name,
	})
}

// Logout はセッションCookieをクリアし、ホームへリダイレクトする。
// GET /logout
func (h *WebHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.clearSessionCookie(w)
	http.Redirect(w, r, "/", http.StatusFound)
}

// Download はダウンロードディレクトリ内のファイルを添付ファイルとして送信する。
// ディレクトリ外へ抜けるパスおよび存在しないファイルは404を返す。
// GET /download/{filename}
func (h *WebHandler) Download(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")

	path, err := h.pathGuard.Resolve(filename)
	if err != nil {
		slog.Warn("download path rejected",
			slog.String("filename", filename),
			slog.String("error", err.Error()),
		)
		h.renderNotFound(w, filename)
		return
	}

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		h.renderNotFound(w, filename)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordDownload()
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	http.ServeFile(w, r, path)
}

// renderNotFound はダウンロード対象が見つからない場合の404レスポンスを返す。
func (h *WebHandler) renderNotFound(w http.ResponseWriter, filename string) {
	apiErr := model.NewFileNotFoundError(filename)
	http.Error(w, apiErr.Message, http.StatusNotFound)
}

// pageDataFor はリクエストの認証状態から共通の描画データを構築する。
func (h *WebHandler) pageDataFor(r *http.Request) pageData {
	if user, ok := middleware.VisitorFromContext(r.Context()).User(); ok {
		return pageData{Authenticated: true, Name: user.Name}
	}
	return pageData{}
}

// render はテンプレートを描画する。
func (h *WebHandler) render(w http.ResponseWriter, name string, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(w, name, data); err != nil {
		slog.Error("failed to render template",
			slog.String("template", name),
			slog.String("error", err.Error()),
		)
	}
}

// setSessionCookie はセッショントークンをHTTP Only Cookieとして設定する。
func (h *WebHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   h.config.SessionMaxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearSessionCookie はセッションCookieを削除する。
func (h *WebHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
