package validation

import (
	"errors"

	"github.com/harrison/courseval/internal/models"
)

// ListenerBridge forwards check-completed events into a ResultStore. Events
// that arrive while the store is disabled belong to checks started outside a
// validation run and are dropped. A rejected result aborts the store, so the
// waiting validator fails instead of the error being lost on the checker's
// goroutine.
type ListenerBridge struct {
	store *ResultStore
}

// NewListenerBridge creates a bridge writing into store.
func NewListenerBridge(store *ResultStore) *ListenerBridge {
	return &ListenerBridge{store: store}
}

// AfterCheck implements checker.Listener.
func (b *ListenerBridge) AfterCheck(task *models.Task, result models.CheckResult) {
	if !b.store.Enabled() {
		return
	}
	if err := b.store.Record(task, result); err != nil {
		var stateErr *InvalidStateError
		if errors.As(err, &stateErr) {
			// the run ended between the check and the record
			return
		}
		b.store.Abort(err)
	}
}
