package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	limitStrict = rate.Limit(2)
	burstStrict = 5

	limitGeneral = rate.Limit(10)
	burstGeneral = 20
)

// VisitorIdle задаёт, сколько хранится состояние клиента без запросов.
const VisitorIdle = 3 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter ограничивает частоту запросов от одного клиента.
// Вход в админку и расчёт цены ограничиваются строже остальных маршрутов.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	strict   map[string]bool
	now      func() time.Time
}

// NewRateLimiter создаёт ограничитель; strictPaths получают строгий тариф.
func NewRateLimiter(strictPaths ...string) *RateLimiter {
	strict := make(map[string]bool, len(strictPaths))
	for _, p := range strictPaths {
		strict[p] = true
	}
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		strict:   strict,
		now:      time.Now,
	}
}

func (l *RateLimiter) limiter(key string, limit rate.Limit, burst int) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(limit, burst)}
		l.visitors[key] = v
	}
	v.lastSeen = l.now()
	return v.limiter
}

// ClientIP возвращает адрес клиента без порта.
func ClientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// Middleware отвечает 429, когда клиент исчерпал свой лимит.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limit, burst, tier := limitGeneral, burstGeneral, "general"
		if r.Method == http.MethodPost && l.strict[r.URL.Path] {
			limit, burst, tier = limitStrict, burstStrict, "strict"
		}

		if !l.limiter(ClientIP(r)+":"+tier, limit, burst).Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Cleanup удаляет клиентов, не присылавших запросов дольше idle.
func (l *RateLimiter) Cleanup(idle time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, v := range l.visitors {
		if l.now().Sub(v.lastSeen) > idle {
			delete(l.visitors, key)
			removed++
		}
	}
	return removed
}
