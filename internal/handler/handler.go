// Package handler содержит HTTP-обработчики веб-сервиса 123Geleverd.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/geleverd/geleverd-web/internal/backend"
	"github.com/geleverd/geleverd-web/internal/guard"
	"github.com/geleverd/geleverd-web/internal/middleware"
	"github.com/geleverd/geleverd-web/internal/model"
	"github.com/geleverd/geleverd-web/internal/orderlist"
	"github.com/geleverd/geleverd-web/internal/quote"
	"github.com/geleverd/geleverd-web/internal/session"
	"github.com/geleverd/geleverd-web/internal/validation"
)

const (
	dashboardPath = "/admin/dashboard"
	recentOrders  = 5

	cleanupInterval = time.Minute
	viewIdle        = 30 * time.Minute
)

// Backend определяет контракт бэкенда, используемого HTTP-обработчиками.
type Backend interface {
	Login(ctx context.Context, username, password string) (model.Session, error)
	CurrentAdmin(ctx context.Context, token string) (model.User, error)
	GetDashboardStats(ctx context.Context, token string) (*model.DashboardStats, error)
	ListOrders(ctx context.Context, token string, f backend.Filter) ([]model.Order, error)
	CalculatePrice(ctx context.Context, pickup, delivery string, vehicle model.VehicleType) (*model.PriceQuote, error)
	TrackOrder(ctx context.Context, trackingNumber string) (*model.Order, error)
}

// Handler реализует HTTP-обработчики публичных страниц и панели администратора.
type Handler struct {
	backend  Backend
	sessions session.Provider
	guard    *guard.Guard
	quotes   *quote.Flows
	views    *orderlist.Views
	limiter  *middleware.RateLimiter
	location *time.Location
	logger   *zap.Logger
}

// NewHandler создаёт обработчик. Даты заказов выводятся в зоне loc.
func NewHandler(b Backend, sessions session.Provider, loc *time.Location, logger *zap.Logger) *Handler {
	return &Handler{
		backend:  b,
		sessions: sessions,
		guard:    guard.New(sessions, logger),
		quotes:   quote.NewFlows(b, logger),
		views:    orderlist.NewViews(b),
		limiter:  middleware.NewRateLimiter(guard.DefaultLoginPath, "/api/quote"),
		location: loc,
		logger:   logger,
	}
}

// Run периодически удаляет состояние неактивных посетителей и сессий до отмены контекста.
func (h *Handler) Run(ctx context.Context) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.limiter.Cleanup(middleware.VisitorIdle)
			h.quotes.Cleanup(middleware.VisitorIdle)
			h.views.Cleanup(viewIdle)
		}
	}
}

type notificationResponse struct {
	Notification model.Notification `json:"notification"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func destructive(title, description string) notificationResponse {
	return notificationResponse{Notification: model.Notification{
		Title:       title,
		Description: description,
		Variant:     model.VariantDestructive,
	}}
}

// fail обрабатывает ошибку защищённого представления: отклонённый токен ведёт на страницу входа,
// остальные ошибки логируются и показываются общим уведомлением без подробностей.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, description string) {
	if h.unauthorized(w, r, err) {
		return
	}
	h.logger.Error("backend request error",
		zap.Error(err),
		zap.String("path", r.URL.Path),
		zap.String("request_id", middleware.RequestIDFromContext(r.Context())),
	)
	writeJSON(w, http.StatusBadGateway, destructive("Error", description))
}

// unauthorized сбрасывает сессию и состояние её представлений, если бэкенд отклонил токен.
func (h *Handler) unauthorized(w http.ResponseWriter, r *http.Request, err error) bool {
	if !h.guard.HandleError(w, r, err) {
		return false
	}
	if s, ok := guard.SessionFromContext(r.Context()); ok {
		h.views.Drop(s.Token)
	}
	return true
}

type quoteResponse struct {
	Notification model.Notification `json:"notification"`
	Quote        *model.PriceQuote  `json:"quote,omitempty"`
}

// Quote рассчитывает предварительную стоимость перевозки.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	var req quote.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	res, err := h.quotes.For(middleware.ClientIP(r)).Submit(r.Context(), req)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, quoteResponse{Notification: res.Notification, Quote: res.Quote})
	case errors.Is(err, quote.ErrCalculating):
		writeJSON(w, http.StatusConflict, quoteResponse{Notification: res.Notification})
	case backend.IsValidation(err):
		writeJSON(w, http.StatusUnprocessableEntity, quoteResponse{Notification: res.Notification})
	default:
		writeJSON(w, http.StatusBadGateway, quoteResponse{Notification: res.Notification})
	}
}

// Track возвращает заказ по трек-номеру.
func (h *Handler) Track(w http.ResponseWriter, r *http.Request) {
	number := validation.NormalizeTrackingNumber(chi.URLParam(r, "trackingNumber"))
	if !validation.IsValidTrackingNumber(number) {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	order, err := h.backend.TrackOrder(r.Context(), number)
	if err != nil {
		var se *backend.ServiceError
		if errors.As(err, &se) && se.Status == http.StatusNotFound {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		h.logger.Error("track order error", zap.Error(err), zap.String("tracking_number", number))
		writeJSON(w, http.StatusBadGateway, destructive("Error", "Failed to load order"))
		return
	}

	writeJSON(w, http.StatusOK, orderlist.Rows([]model.Order{*order}, h.location)[0])
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	User         model.User         `json:"user"`
	Redirect     string             `json:"redirect"`
	Notification model.Notification `json:"notification"`
}

// Login обменивает учётные данные на токен и сохраняет сессию.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	sess, err := h.backend.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		var authErr *backend.AuthError
		switch {
		case backend.IsValidation(err):
			writeJSON(w, http.StatusBadRequest, destructive("Validation Error", "Please enter both username and password"))
		case errors.As(err, &authErr):
			detail := authErr.Detail
			if detail == "" {
				detail = "Invalid credentials"
			}
			writeJSON(w, http.StatusUnauthorized, destructive("Login Failed", detail))
		default:
			h.logger.Error("login error", zap.Error(err), zap.String("username", req.Username))
			writeJSON(w, http.StatusBadGateway, destructive("Login Failed", "Something went wrong, please try again"))
		}
		return
	}

	if err := h.sessions.Bind(w, r).Set(r.Context(), sess); err != nil {
		h.logger.Error("store session error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		User:     sess.User,
		Redirect: dashboardPath,
		Notification: model.Notification{
			Title:       "Login Successful",
			Description: "Welcome back, " + sess.User.Username + "!",
			Variant:     model.VariantDefault,
		},
	})
}

// Logout сбрасывает сессию и перенаправляет на страницу входа.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if s, ok, err := h.sessions.Bind(w, r).Get(r.Context()); err == nil && ok {
		h.views.Drop(s.Token)
	}
	h.guard.Logout(w, r)
}

type dashboardResponse struct {
	Stats        *model.DashboardStats `json:"stats"`
	RecentOrders []orderlist.Row       `json:"recent_orders"`
}

// Dashboard возвращает сводную статистику и последние заказы.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	s, _ := guard.SessionFromContext(r.Context())

	var (
		stats *model.DashboardStats
		snap  orderlist.Snapshot
	)

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		stats, err = h.backend.GetDashboardStats(ctx, s.Token)
		return err
	})
	g.Go(func() error {
		var err error
		snap, err = orderlist.NewController(h.backend, s.Token).WithLimit(recentOrders).Refresh(ctx)
		return err
	})

	if err := g.Wait(); err != nil {
		h.fail(w, r, err, "Failed to load dashboard data")
		return
	}

	writeJSON(w, http.StatusOK, dashboardResponse{
		Stats:        stats,
		RecentOrders: orderlist.Rows(snap.Orders, h.location),
	})
}

type ordersResponse struct {
	Search string          `json:"search"`
	Status string          `json:"status"`
	Phase  orderlist.Phase `json:"phase"`
	Count  int             `json:"count"`
	Empty  bool            `json:"empty"`
	Orders []orderlist.Row `json:"orders"`

	Notification *model.Notification `json:"notification,omitempty"`
}

func (h *Handler) ordersBody(snap orderlist.Snapshot) ordersResponse {
	return ordersResponse{
		Search: snap.Search,
		Status: string(snap.Status),
		Phase:  snap.Phase,
		Count:  len(snap.Orders),
		Empty:  snap.Empty(),
		Orders: orderlist.Rows(snap.Orders, h.location),
	}
}

// Orders возвращает список заказов с учётом строки поиска и фильтра статуса.
// Запросы одной сессии разделяют состояние: ответ на устаревший фильтр
// заменяется результатом последнего запроса.
func (h *Handler) Orders(w http.ResponseWriter, r *http.Request) {
	s, _ := guard.SessionFromContext(r.Context())

	q := r.URL.Query()
	search := q.Get("search")
	status := model.OrderStatus(q.Get("status"))
	if status == "all" {
		status = ""
	}

	view := h.views.For(s.Token)

	snap, err := view.SetFilter(r.Context(), search, status)
	if errors.Is(err, orderlist.ErrSuperseded) {
		snap, err = view.Await(r.Context())
		if err == nil && snap.Phase == orderlist.PhaseFailed {
			err = snap.Err
		}
	}
	if err != nil {
		if backend.IsValidation(err) {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		if r.Context().Err() != nil {
			return
		}
		if h.unauthorized(w, r, err) {
			return
		}
		h.logger.Error("list orders error",
			zap.Error(err),
			zap.String("request_id", middleware.RequestIDFromContext(r.Context())),
		)

		// Прежняя выборка возвращается вместе с уведомлением об ошибке.
		body := h.ordersBody(snap)
		n := destructive("Error", "Failed to load orders").Notification
		body.Notification = &n
		writeJSON(w, http.StatusBadGateway, body)
		return
	}

	writeJSON(w, http.StatusOK, h.ordersBody(snap))
}

// Me возвращает профиль администратора, подтверждённый бэкендом по токену сессии.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	s, _ := guard.SessionFromContext(r.Context())

	user, err := h.backend.CurrentAdmin(r.Context(), s.Token)
	if err != nil {
		h.fail(w, r, err, "Failed to load profile")
		return
	}

	writeJSON(w, http.StatusOK, user)
}
