package chaos

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"
)

// Injection points used by the inventory service around its warehouse hop.
const (
	PointBeforeWarehouse = "inventory.before_warehouse"
	PointAfterWarehouse  = "inventory.after_warehouse"
)

// Injector is a fault-injection hook called at fixed points of a use case.
// Implementations may delay but must never change the outcome of the call they wrap.
type Injector interface {
	BeforeCall(ctx context.Context, point string)
}

type nop struct{}

func (nop) BeforeCall(context.Context, string) {}

// Nop disables fault injection.
func Nop() Injector { return nop{} }

// RandomDelay sleeps a uniformly random duration in [0, max) at every point.
// A cancelled context cuts the sleep short.
type RandomDelay struct {
	max time.Duration

	mu  sync.Mutex
	rnd *rand.Rand

	// OnDelay, when set, is told about every injected delay.
	OnDelay func(point string, d time.Duration)
}

func NewRandomDelay(max time.Duration, seed uint64) *RandomDelay {
	return &RandomDelay{
		max: max,
		rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

func (r *RandomDelay) BeforeCall(ctx context.Context, point string) {
	if r.max <= 0 {
		return
	}
	r.mu.Lock()
	d := time.Duration(r.rnd.Int64N(int64(r.max)))
	r.mu.Unlock()

	if r.OnDelay != nil {
		r.OnDelay(point, d)
	}

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
