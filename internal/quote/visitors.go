package quote

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

type visitorFlow struct {
	flow     *Flow
	lastSeen time.Time
}

// Flows выдаёт каждому посетителю собственный Flow, так что запрет
// параллельных расчётов действует только в пределах одного посетителя.
type Flows struct {
	calc   Calculator
	logger *zap.Logger
	now    func() time.Time

	mu    sync.Mutex
	flows map[string]*visitorFlow
}

// NewFlows создаёт реестр сценариев расчёта.
func NewFlows(calc Calculator, logger *zap.Logger) *Flows {
	return &Flows{
		calc:   calc,
		logger: logger,
		now:    time.Now,
		flows:  make(map[string]*visitorFlow),
	}
}

// For возвращает Flow посетителя key, создавая его при первом обращении.
func (f *Flows) For(key string) *Flow {
	f.mu.Lock()
	defer f.mu.Unlock()

	v, ok := f.flows[key]
	if !ok {
		v = &visitorFlow{flow: NewFlow(f.calc, f.logger)}
		f.flows[key] = v
	}
	v.lastSeen = f.now()
	return v.flow
}

// Cleanup забывает посетителей, бездействующих дольше idle. Идущий расчёт не прерывается.
func (f *Flows) Cleanup(idle time.Duration) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	removed := 0
	for key, v := range f.flows {
		if v.flow.Calculating() {
			continue
		}
		if f.now().Sub(v.lastSeen) > idle {
			delete(f.flows, key)
			removed++
		}
	}
	return removed
}
