// Package orderlist управляет состоянием списка заказов в панели администратора:
// строкой поиска, фильтром статуса и последней полученной выборкой.
package orderlist

import (
	"context"
	"errors"
	"sync"

	"github.com/geleverd/geleverd-web/internal/backend"
	"github.com/geleverd/geleverd-web/internal/model"
)

// ErrSuperseded возвращается запросу, результат которого устарел из-за более нового фильтра.
var ErrSuperseded = errors.New("order list request superseded by a newer filter")

// Lister описывает источник заказов.
type Lister interface {
	ListOrders(ctx context.Context, token string, f backend.Filter) ([]model.Order, error)
}

// Phase описывает состояние отображения списка.
type Phase string

const (
	PhaseLoading Phase = "loading"
	PhaseReady   Phase = "ready"
	PhaseFailed  Phase = "failed"
)

// Snapshot фиксирует состояние контроллера на момент вызова.
type Snapshot struct {
	Search string
	Status model.OrderStatus
	Phase  Phase
	Orders []model.Order
	Err    error
}

// Empty сообщает, что выборка получена и в ней нет заказов.
func (s Snapshot) Empty() bool {
	return s.Phase == PhaseReady && len(s.Orders) == 0
}

// Controller хранит фильтры и заказы одного представления списка.
// Каждый запрос получает номер поколения; применяется только ответ последнего поколения.
type Controller struct {
	lister Lister
	token  string
	limit  int

	mu      sync.Mutex
	gen     uint64
	settled chan struct{}
	search string
	status model.OrderStatus
	phase  Phase
	orders []model.Order
	err    error
}

// NewController создаёт контроллер, запрашивающий заказы с указанным токеном.
func NewController(l Lister, token string) *Controller {
	return &Controller{
		lister: l,
		token:  token,
		phase:  PhaseLoading,
		orders: []model.Order{},
	}
}

// WithLimit ограничивает размер выборки.
func (c *Controller) WithLimit(limit int) *Controller {
	c.mu.Lock()
	c.limit = limit
	c.mu.Unlock()
	return c
}

// SetSearch меняет строку поиска и перезапрашивает список.
func (c *Controller) SetSearch(ctx context.Context, search string) (Snapshot, error) {
	return c.fetch(ctx, func() error {
		c.search = search
		return nil
	})
}

// SetStatus меняет фильтр статуса и перезапрашивает список. Пустой статус снимает фильтр.
func (c *Controller) SetStatus(ctx context.Context, status model.OrderStatus) (Snapshot, error) {
	return c.fetch(ctx, func() error {
		if status != "" && !status.Valid() {
			return &backend.ValidationError{Field: "status"}
		}
		c.status = status
		return nil
	})
}

// SetFilter меняет оба фильтра и выполняет один запрос.
func (c *Controller) SetFilter(ctx context.Context, search string, status model.OrderStatus) (Snapshot, error) {
	return c.fetch(ctx, func() error {
		if status != "" && !status.Valid() {
			return &backend.ValidationError{Field: "status"}
		}
		c.search = search
		c.status = status
		return nil
	})
}

// Refresh повторяет запрос с текущими фильтрами.
func (c *Controller) Refresh(ctx context.Context) (Snapshot, error) {
	return c.fetch(ctx, func() error { return nil })
}

// Snapshot возвращает текущее состояние.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Await ждёт ответа на последний отправленный запрос и возвращает итоговое состояние.
// Без запроса в полёте возвращает текущее состояние сразу.
func (c *Controller) Await(ctx context.Context) (Snapshot, error) {
	c.mu.Lock()
	ch := c.settled
	if ch == nil {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap, nil
	}
	c.mu.Unlock()

	select {
	case <-ch:
		return c.Snapshot(), nil
	case <-ctx.Done():
		return c.Snapshot(), ctx.Err()
	}
}

func (c *Controller) fetch(ctx context.Context, mutate func() error) (Snapshot, error) {
	c.mu.Lock()
	if err := mutate(); err != nil {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap, err
	}
	c.gen++
	gen := c.gen
	if c.settled == nil {
		c.settled = make(chan struct{})
	}
	filter := backend.Filter{Search: c.search, Status: c.status, Limit: c.limit}
	c.phase = PhaseLoading
	c.mu.Unlock()

	orders, err := c.lister.ListOrders(ctx, c.token, filter)

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		return c.snapshotLocked(), ErrSuperseded
	}

	// Последний запрос завершён: будим ожидающих в Await.
	close(c.settled)
	c.settled = nil

	if err != nil {
		// Прежняя выборка остаётся на экране.
		c.phase = PhaseFailed
		c.err = err
		return c.snapshotLocked(), err
	}

	if orders == nil {
		orders = []model.Order{}
	}
	c.orders = orders
	c.phase = PhaseReady
	c.err = nil

	return c.snapshotLocked(), nil
}

func (c *Controller) snapshotLocked() Snapshot {
	orders := make([]model.Order, len(c.orders))
	copy(orders, c.orders)

	return Snapshot{
		Search: c.search,
		Status: c.status,
		Phase:  c.phase,
		Orders: orders,
		Err:    c.err,
	}
}
