package auth

import (
    "context"
    "runtime"

    "golang.org/x/sync/semaphore"
)

// HashPool limits how many hash computations run at once so that slow,
// CPU-bound hashing cannot starve the goroutines serving other requests.
type HashPool struct {
    h   Hasher
    sem *semaphore.Weighted
}

// NewHashPool wraps h. workers <= 0 means runtime.NumCPU().
func NewHashPool(h Hasher, workers int) *HashPool {
    if workers <= 0 {
        workers = runtime.NumCPU()
    }
    return &HashPool{h: h, sem: semaphore.NewWeighted(int64(workers))}
}

// Hash waits for a free slot, then hashes plain.
func (p *HashPool) Hash(ctx context.Context, plain string) (string, error) {
    if err := p.sem.Acquire(ctx, 1); err != nil {
        return "", err
    }
    defer p.sem.Release(1)
    return p.h.Hash(plain)
}

// Verify waits for a free slot, then checks plain against hash. A cancelled
// context while waiting is reported as an error, not as a mismatch.
func (p *HashPool) Verify(ctx context.Context, plain, hash string) (bool, error) {
    if err := p.sem.Acquire(ctx, 1); err != nil {
        return false, err
    }
    defer p.sem.Release(1)
    return p.h.Verify(plain, hash), nil
}
