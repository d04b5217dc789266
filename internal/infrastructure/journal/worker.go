package journal

import (
	"context"
	"sync"
	"time"

	"github.com/alinasirlou2020/mobile-shop/internal/domain/identity"
	domoutbox "github.com/alinasirlou2020/mobile-shop/internal/domain/outbox"
	domain "github.com/alinasirlou2020/mobile-shop/internal/domain/product"
	"github.com/alinasirlou2020/mobile-shop/internal/observability"
	"github.com/alinasirlou2020/mobile-shop/internal/observability/logctx"
)

// Entry is one line of the sales journal. Party is the creator for listing
// entries and the new owner for sale entries.
type Entry struct {
	Kind      string
	ProductID uint64
	Name      string
	Price     int64
	Party     identity.ID
	At        time.Time
}

const (
	KindListed = "listed"
	KindSold   = "sold"
)

// Worker subscribes to marketplace events and maintains an append-only,
// ordered journal read model.
type Worker struct {
	subscriber domoutbox.Subscriber
	log        observability.Logger

	mu      sync.RWMutex
	entries []Entry
}

func New(subscriber domoutbox.Subscriber, logger observability.Logger) *Worker {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Worker{
		subscriber: subscriber,
		log:        logger.With(observability.F("component", "journal_worker")),
	}
}

func (w *Worker) Start() {
	w.subscriber.Subscribe(domain.ProductCreatedEvent{}.EventName(), w.handleProductCreated)
	w.subscriber.Subscribe(domain.ProductSoldEvent{}.EventName(), w.handleProductSold)
}

// Entries returns a snapshot of the journal in delivery order.
func (w *Worker) Entries() []Entry {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]Entry(nil), w.entries...)
}

func (w *Worker) handleProductCreated(ctx context.Context, e domoutbox.Event) error {
	evt, ok := e.(domain.ProductCreatedEvent)
	if !ok {
		return nil
	}

	w.append(Entry{
		Kind:      KindListed,
		ProductID: evt.ProductID,
		Name:      evt.Name,
		Price:     evt.Price,
		Party:     evt.Owner,
		At:        evt.OccurredAt,
	})

	logger := logctx.FromOr(ctx, w.log)
	logger.Info("journal_product_listed",
		observability.F("product_id", evt.ProductID),
		observability.F("price", evt.Price),
	)
	return nil
}

func (w *Worker) handleProductSold(ctx context.Context, e domoutbox.Event) error {
	evt, ok := e.(domain.ProductSoldEvent)
	if !ok {
		return nil
	}

	w.append(Entry{
		Kind:      KindSold,
		ProductID: evt.ProductID,
		Name:      evt.Name,
		Price:     evt.Price,
		Party:     evt.NewOwner,
		At:        evt.OccurredAt,
	})

	logger := logctx.FromOr(ctx, w.log)
	logger.Info("journal_product_sold",
		observability.F("product_id", evt.ProductID),
		observability.F("new_owner", evt.NewOwner.String()),
	)
	return nil
}

func (w *Worker) append(e Entry) {
	w.mu.Lock()
	w.entries = append(w.entries, e)
	w.mu.Unlock()
}
