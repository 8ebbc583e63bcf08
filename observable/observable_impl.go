package observable

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/churn-project/churn-dataset/events"
)

// ObservableImpl provides a base implementation of the Observable interface.
// It is embedded in the pipeline, which notifies observers at stage boundaries.
type ObservableImpl struct {
	observerLock sync.RWMutex
	Observers    []Observer
}

func (p *ObservableImpl) AddObserver(o Observer) error {
	slog.Debug("AddObserver")
	p.observerLock.Lock()
	p.Observers = append(p.Observers, o)
	p.observerLock.Unlock()

	return nil
}

// NotifyObservers notifies every observer, returning the joined errors of any which fail
func (p *ObservableImpl) NotifyObservers(ctx context.Context, e events.Event) error {
	p.observerLock.RLock()
	defer p.observerLock.RUnlock()
	var notifyErrors []error
	for _, observer := range p.Observers {
		err := observer.Notify(ctx, e)
		if err != nil {
			notifyErrors = append(notifyErrors, err)
		}
	}

	return errors.Join(notifyErrors...)
}
