// Package backend предоставляет клиент REST API бэкенда 123Geleverd.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"

	"github.com/geleverd/geleverd-web/internal/model"
)

// DefaultTimeout ограничивает время одного запроса к бэкенду.
const DefaultTimeout = 10 * time.Second

// Client инкапсулирует HTTP-взаимодействие с бэкендом расчёта цен и заказов.
// Автоматических повторов нет: решение о повторе принимает вызывающий код.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Filter задаёт параметры выборки заказов. Пустые поля в запрос не попадают.
type Filter struct {
	Search string
	Status model.OrderStatus
	Limit  int
}

// NewClient создаёт клиент бэкенда по адресу baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	base := strings.TrimRight(baseURL, "/")
	if base != "" && !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}

	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	httpClient := cleanhttp.DefaultPooledClient()
	httpClient.Timeout = timeout

	return &Client{
		baseURL:    base,
		httpClient: httpClient,
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string     `json:"access_token"`
	TokenType   string     `json:"token_type"`
	User        model.User `json:"user"`
}

// Login выполняет вход администратора и возвращает новую сессию.
func (c *Client) Login(ctx context.Context, username, password string) (model.Session, error) {
	if username == "" {
		return model.Session{}, &ValidationError{Field: "username"}
	}
	if password == "" {
		return model.Session{}, &ValidationError{Field: "password"}
	}

	var resp loginResponse
	err := c.do(ctx, http.MethodPost, "/api/admin/login", nil, "", loginRequest{
		Username: username,
		Password: password,
	}, &resp)
	if err != nil {
		var se *ServiceError
		if errors.As(err, &se) && se.Status == http.StatusUnauthorized {
			return model.Session{}, &AuthError{Detail: se.Detail}
		}
		return model.Session{}, err
	}

	if resp.AccessToken == "" || resp.User.Username == "" {
		return model.Session{}, &ServiceError{Status: http.StatusOK, Detail: "incomplete login response"}
	}

	return model.Session{
		Token: resp.AccessToken,
		User:  resp.User,
	}, nil
}

// CurrentAdmin возвращает профиль администратора, которому принадлежит токен.
func (c *Client) CurrentAdmin(ctx context.Context, token string) (model.User, error) {
	var u model.User
	if err := c.do(ctx, http.MethodGet, "/api/admin/me", nil, token, nil, &u); err != nil {
		return model.User{}, err
	}
	return u, nil
}

// GetDashboardStats запрашивает сводку для панели администратора.
func (c *Client) GetDashboardStats(ctx context.Context, token string) (*model.DashboardStats, error) {
	var stats model.DashboardStats
	if err := c.do(ctx, http.MethodGet, "/api/admin/dashboard", nil, token, nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// ListOrders возвращает заказы в порядке, заданном бэкендом.
func (c *Client) ListOrders(ctx context.Context, token string, f Filter) ([]model.Order, error) {
	q := url.Values{}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.Status != "" {
		q.Set("status", string(f.Status))
	}

	var orders []model.Order
	if err := c.do(ctx, http.MethodGet, "/api/orders", q, token, nil, &orders); err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []model.Order{}
	}
	return orders, nil
}

// CalculatePrice запрашивает стоимость перевозки. Авторизация не требуется.
func (c *Client) CalculatePrice(ctx context.Context, pickup, delivery string, vehicle model.VehicleType) (*model.PriceQuote, error) {
	switch {
	case pickup == "":
		return nil, &ValidationError{Field: "pickup_address"}
	case delivery == "":
		return nil, &ValidationError{Field: "delivery_address"}
	case vehicle == "":
		return nil, &ValidationError{Field: "vehicle_type"}
	}

	q := url.Values{}
	q.Set("pickup_address", pickup)
	q.Set("delivery_address", delivery)
	q.Set("vehicle_type", string(vehicle))

	var quote model.PriceQuote
	if err := c.do(ctx, http.MethodPost, "/api/orders/calculate-price", q, "", nil, &quote); err != nil {
		return nil, err
	}
	return &quote, nil
}

// TrackOrder ищет заказ по трек-номеру. Авторизация не требуется.
func (c *Client) TrackOrder(ctx context.Context, trackingNumber string) (*model.Order, error) {
	if trackingNumber == "" {
		return nil, &ValidationError{Field: "tracking_number"}
	}

	var order model.Order
	path := "/api/orders/track/" + url.PathEscape(trackingNumber)
	if err := c.do(ctx, http.MethodGet, path, nil, "", nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, token string, body, out any) error {
	if c == nil || c.baseURL == "" {
		return fmt.Errorf("backend client not configured")
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if token != "" && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
		return &UnauthorizedError{Status: resp.StatusCode}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var er errorResponse
		_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&er)
		return &ServiceError{Status: resp.StatusCode, Detail: er.Detail}
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &ServiceError{Status: resp.StatusCode, Detail: fmt.Sprintf("decode response: %v", err)}
	}

	return nil
}
