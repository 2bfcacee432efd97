// Package guard закрывает административные страницы от неавторизованного доступа.
package guard

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/geleverd/geleverd-web/internal/backend"
	"github.com/geleverd/geleverd-web/internal/model"
	"github.com/geleverd/geleverd-web/internal/session"
)

// State описывает состояние авторизации административного представления.
type State int

const (
	Unauthenticated State = iota
	Authenticated
)

func (s State) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "unauthenticated"
}

// DefaultLoginPath задаёт точку входа, на которую перенаправляются неавторизованные запросы.
const DefaultLoginPath = "/admin/login"

type contextKey string

const (
	sessionKey contextKey = "session"
	storeKey   contextKey = "sessionStore"
)

// Guard проверяет наличие сессии и сбрасывает её, когда бэкенд отклоняет токен.
// Срок действия токена заранее не проверяется: единственный сигнал истечения это ответ 401/403.
type Guard struct {
	sessions  session.Provider
	loginPath string
	logger    *zap.Logger
}

// New создаёт Guard поверх указанного провайдера сессий.
func New(sessions session.Provider, logger *zap.Logger) *Guard {
	return &Guard{
		sessions:  sessions,
		loginPath: DefaultLoginPath,
		logger:    logger,
	}
}

// LoginPath возвращает адрес страницы входа.
func (g *Guard) LoginPath() string {
	return g.loginPath
}

// Enter читает хранилище при входе в защищённое представление.
func Enter(ctx context.Context, store session.Store) (State, model.Session, error) {
	s, ok, err := store.Get(ctx)
	if err != nil {
		return Unauthenticated, model.Session{}, err
	}
	if !ok {
		return Unauthenticated, model.Session{}, nil
	}
	return Authenticated, s, nil
}

// Fail обрабатывает ошибку операции авторизованного представления.
// UnauthorizedError сбрасывает сессию; прочие ошибки состояние не меняют.
func Fail(ctx context.Context, store session.Store, err error) (State, error) {
	if !backend.IsUnauthorized(err) {
		return Authenticated, nil
	}
	if clearErr := store.Clear(ctx); clearErr != nil {
		return Unauthenticated, clearErr
	}
	return Unauthenticated, nil
}

// Logout сбрасывает сессию по действию пользователя.
func Logout(ctx context.Context, store session.Store) error {
	return store.Clear(ctx)
}

// Middleware пропускает запрос только при наличии сессии; иначе перенаправляет на страницу входа,
// не обращаясь к бэкенду.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		store := g.sessions.Bind(w, r)

		state, s, err := Enter(r.Context(), store)
		if err != nil {
			g.logger.Error("read session error", zap.Error(err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		if state == Unauthenticated {
			http.Redirect(w, r, g.loginPath, http.StatusSeeOther)
			return
		}

		ctx := context.WithValue(r.Context(), sessionKey, s)
		ctx = context.WithValue(ctx, storeKey, store)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// HandleError сбрасывает сессию и перенаправляет на вход, если err означает отклонённый токен.
// Возвращает true, если ответ уже записан.
func (g *Guard) HandleError(w http.ResponseWriter, r *http.Request, err error) bool {
	store := StoreFromContext(r.Context())
	if store == nil {
		store = g.sessions.Bind(w, r)
	}

	state, clearErr := Fail(r.Context(), store, err)
	if state == Authenticated {
		return false
	}

	if clearErr != nil {
		g.logger.Error("clear session error", zap.Error(clearErr))
	}

	http.Redirect(w, r, g.loginPath, http.StatusSeeOther)
	return true
}

// Logout сбрасывает сессию текущего запроса и перенаправляет на страницу входа.
func (g *Guard) Logout(w http.ResponseWriter, r *http.Request) {
	if err := Logout(r.Context(), g.sessions.Bind(w, r)); err != nil {
		g.logger.Error("logout error", zap.Error(err))
	}
	http.Redirect(w, r, g.loginPath, http.StatusSeeOther)
}

// SessionFromContext извлекает сессию, положенную в контекст Middleware.
func SessionFromContext(ctx context.Context) (model.Session, bool) {
	s, ok := ctx.Value(sessionKey).(model.Session)
	return s, ok
}

// StoreFromContext возвращает хранилище, привязанное к текущему запросу.
func StoreFromContext(ctx context.Context) session.Store {
	s, _ := ctx.Value(storeKey).(session.Store)
	return s
}
