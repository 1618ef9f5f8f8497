package watcher

import (
	"context"
	"io"
	"sync"
	"time"

	"kalpdemo/pkg/models"

	"github.com/charmbracelet/log"
)

const maxHistory = 120

// Refresher is a view whose read-only figures can be reloaded periodically.
type Refresher interface {
	Name() string
	Refresh(ctx context.Context) error
}

// SupplyReader is implemented by refreshers that expose a total supply figure.
type SupplyReader interface {
	Supply() (float64, bool)
}

// Watcher fans events out to subscribers and optionally polls refreshers.
type Watcher struct {
	interval   time.Duration
	refreshers []Refresher
	history    []models.SupplyPoint

	subscribers []Subscriber
	mu          sync.RWMutex
	stopChan    chan struct{}
	stopOnce    sync.Once
	logger      *log.Logger
}

// NewWatcher creates a new Watcher. An interval of zero disables polling.
func NewWatcher(interval time.Duration, logger *log.Logger) *Watcher {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Watcher{
		interval: interval,
		stopChan: make(chan struct{}),
		logger:   logger,
	}
}

// Register adds refreshers to the polling loop.
func (w *Watcher) Register(r ...Refresher) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.refreshers = append(w.refreshers, r...)
}

// Subscribe adds a new subscriber and returns a channel to receive events.
func (w *Watcher) Subscribe() Subscriber {
	w.mu.Lock()
	defer w.mu.Unlock()
	ch := make(Subscriber, 100)
	w.subscribers = append(w.subscribers, ch)
	return ch
}

// Unsubscribe removes a subscriber.
func (w *Watcher) Unsubscribe(ch Subscriber) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i, sub := range w.subscribers {
		if sub == ch {
			w.subscribers = append(w.subscribers[:i], w.subscribers[i+1:]...)
			close(ch)
			break
		}
	}
}

// Notify delivers event to every subscriber. Slow subscribers miss it.
func (w *Watcher) Notify(event Event) {
	if event.Time.IsZero() {
		event.Time = time.Now()
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	for _, sub := range w.subscribers {
		select {
		case sub <- event:
		default:
			w.logger.Debug("subscriber is slow, dropping event", "type", event.Type, "view", event.View)
		}
	}
}

// Start begins the polling loop when an interval is configured.
func (w *Watcher) Start(ctx context.Context) {
	if w.interval <= 0 {
		return
	}
	go w.pollingLoop(ctx)
}

// Stop stops the polling loop.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() { close(w.stopChan) })
}

func (w *Watcher) pollingLoop(ctx context.Context) {
	w.refreshAll(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.refreshAll(ctx)
		case <-w.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (w *Watcher) refreshAll(ctx context.Context) {
	w.mu.RLock()
	refreshers := append([]Refresher(nil), w.refreshers...)
	w.mu.RUnlock()

	var wg sync.WaitGroup
	for _, r := range refreshers {
		wg.Add(1)
		go func(r Refresher) {
			defer wg.Done()
			if err := r.Refresh(ctx); err != nil {
				w.logger.Warn("refresh failed", "view", r.Name(), "err", err)
				w.Notify(Event{Type: EventRefreshFailed, View: r.Name(), Data: err.Error()})
				return
			}
			if sr, ok := r.(SupplyReader); ok {
				if v, ok := sr.Supply(); ok {
					point := w.Record(v)
					w.Notify(Event{Type: EventSupplyUpdated, View: r.Name(), Data: point})
				}
			}
		}(r)
	}
	wg.Wait()
}

// Record appends a supply sample to the bounded history.
func (w *Watcher) Record(value float64) models.SupplyPoint {
	point := models.SupplyPoint{Timestamp: time.Now(), Value: value}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.history = append(w.history, point)
	if len(w.history) > maxHistory {
		w.history = w.history[len(w.history)-maxHistory:]
	}
	return point
}

// History returns a copy of the recorded supply samples, oldest first.
func (w *Watcher) History() []models.SupplyPoint {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]models.SupplyPoint(nil), w.history...)
}
