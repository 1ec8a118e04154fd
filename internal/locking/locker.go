// Package locking provides keyed mutual exclusion for read-validate-write
// sequences on a single bill.
package locking

import (
	"context"
	"errors"
	"fmt"
)

// ErrLockNotAcquired is returned when a lock could not be obtained before the context ended
var ErrLockNotAcquired = errors.New("lock not acquired")

// Unlock releases a held lock. It is safe to call more than once.
type Unlock func()

// Locker serializes work per key
type Locker interface {
	// Lock blocks until the key is held or ctx is done
	Lock(ctx context.Context, key string) (Unlock, error)
}

// BillKey returns the lock key for a bill number
func BillKey(billNumber int64) string {
	return fmt.Sprintf("bill:%d", billNumber)
}
