// Package testutil holds in-memory stand-ins shared by feature tests.
package testutil

import (
	"context"
	"sync"
)

// Snapshotter is implemented by in-memory stores so a Transactor can roll
// them back. Snapshot returns a func that restores the captured state.
type Snapshotter interface {
	Snapshot() (restore func())
}

// Transactor mimics database.Transactor over in-memory stores: on error every
// tracked store is restored to its state at the start of the outermost call.
type Transactor struct {
	mu        sync.Mutex
	stores    []Snapshotter
	depth     int
	Commits   int
	Rollbacks int
	// TransientAborts makes the next N outermost commits fail transiently:
	// state is restored and the callback runs again, as the mongo driver does.
	TransientAborts int
	Retries         int
}

func NewTransactor(stores ...Snapshotter) *Transactor {
	return &Transactor{stores: stores}
}

func (t *Transactor) Track(stores ...Snapshotter) {
	t.stores = append(t.stores, stores...)
}

func (t *Transactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	if t.depth > 0 {
		t.mu.Unlock()
		return fn(ctx)
	}
	restores := t.snapshot()
	t.depth++
	t.mu.Unlock()

	for {
		err := fn(ctx)

		t.mu.Lock()
		if err == nil && t.TransientAborts > 0 {
			t.TransientAborts--
			t.Retries++
			restore(restores)
			// Restores hand the captured slices back; capture afresh for the rerun.
			restores = t.snapshot()
			t.mu.Unlock()
			continue
		}
		t.depth--
		if err != nil {
			restore(restores)
			t.Rollbacks++
		} else {
			t.Commits++
		}
		t.mu.Unlock()
		return err
	}
}

func (t *Transactor) snapshot() []func() {
	restores := make([]func(), 0, len(t.stores))
	for _, s := range t.stores {
		restores = append(restores, s.Snapshot())
	}
	return restores
}

func restore(restores []func()) {
	for i := len(restores) - 1; i >= 0; i-- {
		restores[i]()
	}
}
