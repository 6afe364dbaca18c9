package transport

import "golang.org/x/sync/semaphore"

// Limit is an optional bound on concurrently executing operations.
// "No limit" is a deliberate, first-class configuration value, not a magic
// constant: callers that want no bound say Unlimited explicitly. The zero
// value means "unset" and lets a component substitute its own default via
// Default.
type Limit struct {
	n int64
}

// Unlimited places no bound at all. Use at your own risk: peak memory and
// connection pressure are then bounded only by the workload.
var Unlimited = Limit{n: -1}

// MaxConcurrent bounds the number of simultaneous operations to n.
// Non-positive n is treated as Unlimited.
func MaxConcurrent(n int64) Limit {
	if n <= 0 {
		return Unlimited
	}
	return Limit{n: n}
}

// Default returns l, or MaxConcurrent(n) when l was never set.
func (l Limit) Default(n int64) Limit {
	if l == (Limit{}) {
		return MaxConcurrent(n)
	}
	return l
}

// Bounded reports whether the limit actually restricts anything.
func (l Limit) Bounded() bool { return l.n > 0 }

// Semaphore returns a weighted semaphore enforcing the limit, or nil when
// unbounded.
func (l Limit) Semaphore() *semaphore.Weighted {
	if !l.Bounded() {
		return nil
	}
	return semaphore.NewWeighted(l.n)
}
