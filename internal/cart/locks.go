package cart

import (
	"hash/fnv"
	"sync"

	"github.com/google/uuid"
)

const lockStripes = 64

// Locks serializes mutations per cart within this process. Two carts may
// share a stripe; that only costs contention, never correctness.
type Locks struct {
	stripes [lockStripes]sync.Mutex
}

// NewLocks builds the shared lock table.
func NewLocks() *Locks {
	return &Locks{}
}

// Acquire locks the stripe for the cart and returns the release func.
func (l *Locks) Acquire(cartID uuid.UUID) func() {
	stripe := &l.stripes[stripeIndex(cartID)]
	stripe.Lock()
	return stripe.Unlock
}

func stripeIndex(id uuid.UUID) int {
	h := fnv.New32a()
	h.Write(id[:])
	return int(h.Sum32() % lockStripes)
}
