package orderlist

import (
	"sync"
	"time"
)

type view struct {
	ctrl     *Controller
	lastSeen time.Time
}

// Views хранит по одному Controller на сессию администратора, так что
// пересекающиеся запросы одной сессии разрешаются в пользу последнего.
type Views struct {
	lister Lister
	now    func() time.Time

	mu    sync.Mutex
	views map[string]*view
}

// NewViews создаёт реестр представлений списка заказов.
func NewViews(l Lister) *Views {
	return &Views{
		lister: l,
		now:    time.Now,
		views:  make(map[string]*view),
	}
}

// For возвращает контроллер сессии с токеном token.
func (v *Views) For(token string) *Controller {
	v.mu.Lock()
	defer v.mu.Unlock()

	vw, ok := v.views[token]
	if !ok {
		vw = &view{ctrl: NewController(v.lister, token)}
		v.views[token] = vw
	}
	vw.lastSeen = v.now()
	return vw.ctrl
}

// Drop забывает состояние сессии после выхода или отказа в доступе.
func (v *Views) Drop(token string) {
	v.mu.Lock()
	delete(v.views, token)
	v.mu.Unlock()
}

// Cleanup удаляет представления, к которым не обращались дольше idle.
func (v *Views) Cleanup(idle time.Duration) int {
	v.mu.Lock()
	defer v.mu.Unlock()

	removed := 0
	for token, vw := range v.views {
		if v.now().Sub(vw.lastSeen) > idle {
			delete(v.views, token)
			removed++
		}
	}
	return removed
}
