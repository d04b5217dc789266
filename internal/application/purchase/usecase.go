package purchase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/alinasirlou2020/mobile-shop/internal/domain/identity"
	domoutbox "github.com/alinasirlou2020/mobile-shop/internal/domain/outbox"
	dompayment "github.com/alinasirlou2020/mobile-shop/internal/domain/payment"
	domain "github.com/alinasirlou2020/mobile-shop/internal/domain/product"
	"github.com/alinasirlou2020/mobile-shop/internal/observability"
	"github.com/alinasirlou2020/mobile-shop/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	purchaseService = "purchase-engine"
	useCaseBuy      = "product.buy"
	spanPrefix      = "UC."
	publishPeer     = "eventlog"
	publishAddr     = "product.sold"
	publishTimeout  = 300 * time.Millisecond

	peerGateway    = "gateway"
	endpointRefund = "transfer.refund"
	endpointSeller = "transfer.seller"
)

var (
	ErrValidation          = errors.New("purchase: validation")
	ErrInvalidID           = errors.New("purchase: invalid product id")
	ErrAlreadySold         = errors.New("purchase: product already sold")
	ErrInsufficientPayment = errors.New("purchase: amount is below the asking price")
	ErrSelfPurchase        = errors.New("purchase: buyer already owns the product")
	ErrReentrancy          = errors.New("purchase: another transaction is in progress")
	ErrRefundTransfer      = errors.New("purchase: refund transfer failed")
	ErrSellerTransfer      = errors.New("purchase: seller transfer failed")
)

type BuyProductInput struct {
	ProductID uint64
	Buyer     identity.ID
	Amount    int64
}

// PurchaseReceipt reports the committed sale back to the caller.
type PurchaseReceipt struct {
	ProductID uint64
	Name      string
	Price     int64
	NewOwner  identity.ID
	Sold      bool
}

// BuyProductUseCase executes the purchase transaction: checks, then
// effects, then interactions, as a single all-or-nothing unit. The gateway
// calls hand control to external code, so the engine mutates the record
// before any value moves and serializes all purchases behind one guard.
type BuyProductUseCase struct {
	// mu is the transaction-in-progress guard shared by all purchases,
	// regardless of product id. It is acquired with TryLock: a nested call
	// arriving through a gateway callback, or any concurrent buy, is
	// rejected outright rather than queued.
	mu sync.Mutex

	registry  domain.Mutator
	gateway   dompayment.Gateway
	publisher domoutbox.Publisher
	tel       observability.Observability

	log          observability.Logger
	reqCounter   observability.Counter
	durHistogram observability.Histogram
	extCounter   observability.Counter
	extHistogram observability.Histogram
	rollbacks    observability.Counter
	pubFailures  observability.Counter
}

func NewBuyProductUseCase(
	registry domain.Mutator,
	gateway dompayment.Gateway,
	publisher domoutbox.Publisher,
	tel observability.Observability,
) *BuyProductUseCase {
	baseLog := observability.NopLogger()
	metricsProvider := observability.NopMetrics()
	if tel != nil {
		baseLog = tel.Logger()
		metricsProvider = tel.Metrics()
	}
	baseLog = baseLog.With(
		observability.F("service", purchaseService),
	)

	return &BuyProductUseCase{
		registry:     registry,
		gateway:      gateway,
		publisher:    publisher,
		tel:          tel,
		log:          baseLog,
		reqCounter:   metricsProvider.Counter(observability.MUsecaseRequests),
		durHistogram: metricsProvider.Histogram(observability.MUsecaseDuration),
		extCounter:   metricsProvider.Counter(observability.MExternalRequests),
		extHistogram: metricsProvider.Histogram(observability.MExternalRequestDuration),
		rollbacks:    metricsProvider.Counter(observability.MPurchaseRollbacks),
		pubFailures:  metricsProvider.Counter(observability.MEventPublishFailed),
	}
}

// Execute performs the buy transaction.
func (uc *BuyProductUseCase) Execute(ctx context.Context, cmd BuyProductInput) (_ *PurchaseReceipt, err error) {
	logger := logctx.FromOr(ctx, uc.log).With(
		observability.F("use_case", useCaseBuy),
		observability.F("product_id", cmd.ProductID),
	)

	tracer := observability.NopTracer()
	if uc.tel != nil {
		tracer = uc.tel.Tracer()
	}

	ctx, span := tracer.Start(ctx, spanPrefix+"BuyProduct",
		attribute.String("use_case", useCaseBuy),
		attribute.Int64("product.id", int64(cmd.ProductID)),
		attribute.Int64("purchase.amount", cmd.Amount),
	)
	start := time.Now()
	outcome, statusText := "success", "OK"
	var publishErr error
	var rollbackReason string

	defer func() {
		lat := time.Since(start).Seconds()

		if span != nil {
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, statusText)
			} else {
				span.SetStatus(codes.Ok, statusText)
			}
			span.End()
		}

		if uc.reqCounter != nil {
			uc.reqCounter.Add(1,
				observability.L("use_case", useCaseBuy),
				observability.L("outcome", outcome),
			)
		}
		if uc.durHistogram != nil {
			uc.durHistogram.Observe(lat,
				observability.L("use_case", useCaseBuy),
			)
		}
		if rollbackReason != "" && uc.rollbacks != nil {
			uc.rollbacks.Add(1,
				observability.L("reason", rollbackReason),
			)
		}

		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("status", statusText),
			observability.F("latency_seconds", lat),
			observability.F("amount", cmd.Amount),
		}
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			fields = append(fields,
				observability.F("trace_id", sc.TraceID().String()),
				observability.F("span_id", sc.SpanID().String()),
			)
		}
		if rollbackReason != "" {
			fields = append(fields, observability.F("rollback_reason", rollbackReason))
		}
		if publishErr != nil {
			fields = append(fields, observability.F("event_publish_error", publishErr.Error()))
		}
		if err != nil {
			fields = append(fields, observability.F("error", err.Error()))
		}

		logger.Info("use_case_done", fields...)
	}()

	// A transfer may call back into Execute on the same goroutine; a plain
	// Lock would deadlock there, while TryLock rejects the nested call.
	if !uc.mu.TryLock() {
		outcome, statusText = "error", "REENTRANCY_REJECTED"
		return nil, ErrReentrancy
	}
	defer uc.mu.Unlock()

	if cmd.Buyer.IsZero() {
		outcome, statusText = "error", "BUYER_REQUIRED"
		return nil, newValidation("buyer identity is required")
	}

	prior, lookupErr := uc.registry.Get(ctx, cmd.ProductID)
	switch {
	case lookupErr == nil:
	case errors.Is(lookupErr, domain.ErrNotFound):
		outcome, statusText = "error", "PRODUCT_ID_INVALID"
		return nil, ErrInvalidID
	default:
		outcome, statusText = "error", "PRODUCT_LOOKUP_FAILED"
		return nil, fmt.Errorf("purchase: lookup: %w", lookupErr)
	}

	if prior.Sold {
		outcome, statusText = "error", "ALREADY_SOLD"
		return nil, ErrAlreadySold
	}
	if cmd.Amount < prior.Price {
		outcome, statusText = "error", "INSUFFICIENT_PAYMENT"
		return nil, ErrInsufficientPayment
	}
	if cmd.Buyer == prior.Owner {
		outcome, statusText = "error", "SELF_PURCHASE"
		return nil, ErrSelfPurchase
	}

	// Effects precede interactions: the stored record must already read as
	// sold before any value moves, so a nested read mid-transfer sees
	// Sold == true and fails the checks above.
	sold := prior.Clone()
	sold.MarkSold(cmd.Buyer)
	if updateErr := uc.registry.Update(ctx, sold); updateErr != nil {
		outcome, statusText = "error", "OWNERSHIP_COMMIT_FAILED"
		return nil, fmt.Errorf("purchase: commit ownership: %w", updateErr)
	}

	span.AddEvent("ownership.recorded",
		trace.WithAttributes(attribute.String("product.new_owner", cmd.Buyer.String())),
	)

	if overpaid := cmd.Amount - prior.Price; overpaid > 0 {
		if transferErr := uc.transfer(ctx, endpointRefund, cmd.Buyer, overpaid); transferErr != nil {
			uc.rollback(ctx, logger, prior)
			rollbackReason = "refund_failed"
			outcome, statusText = "error", "REFUND_TRANSFER_FAILED"
			return nil, ErrRefundTransfer
		}
	}

	// Pay the seller recorded before the mutation.
	if transferErr := uc.transfer(ctx, endpointSeller, prior.Owner, prior.Price); transferErr != nil {
		uc.rollback(ctx, logger, prior)
		rollbackReason = "seller_payout_failed"
		outcome, statusText = "error", "SELLER_TRANSFER_FAILED"
		return nil, ErrSellerTransfer
	}

	if uc.publisher != nil {
		pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
		publishErr = uc.publisher.Publish(pubCtx, domain.NewProductSoldEvent(sold))
		cancel()
		if publishErr != nil {
			// Delivery is best-effort; the sale stays committed.
			statusText = "EVENT_PUBLISH_FAILED"
			if uc.pubFailures != nil {
				uc.pubFailures.Add(1, observability.L("event", publishAddr))
			}
		}
	}

	span.SetAttributes(attribute.String("product.new_owner", cmd.Buyer.String()))
	span.AddEvent("product.sold",
		trace.WithAttributes(
			attribute.Int64("product.id", int64(sold.ID)),
			attribute.Int64("product.price", sold.Price),
		),
	)

	return &PurchaseReceipt{
		ProductID: sold.ID,
		Name:      sold.Name,
		Price:     sold.Price,
		NewOwner:  sold.Owner,
		Sold:      sold.Sold,
	}, nil
}

// transfer moves value through the gateway and records the external call.
// A StatusFailed result and an abnormal error are both transfer failures to
// the transaction.
func (uc *BuyProductUseCase) transfer(ctx context.Context, endpoint string, to identity.ID, amount int64) error {
	start := time.Now()
	status, err := uc.gateway.Transfer(ctx, to, amount)

	callOutcome := "success"
	if err != nil || status != dompayment.StatusSuccess {
		callOutcome = "error"
	}

	if uc.extCounter != nil {
		uc.extCounter.Add(1,
			observability.L("peer", peerGateway),
			observability.L("endpoint", endpoint),
			observability.L("outcome", callOutcome),
		)
	}
	if uc.extHistogram != nil {
		uc.extHistogram.Observe(time.Since(start).Seconds(),
			observability.L("peer", peerGateway),
			observability.L("endpoint", endpoint),
		)
	}

	if err != nil {
		return fmt.Errorf("purchase: gateway transfer: %w", err)
	}
	if status != dompayment.StatusSuccess {
		return fmt.Errorf("purchase: gateway declined transfer of %d", amount)
	}
	return nil
}

// rollback restores the pre-transaction record. Update is keyed by id, so
// writing the prior snapshot undoes both the owner and the sold flag.
func (uc *BuyProductUseCase) rollback(ctx context.Context, logger observability.Logger, prior *domain.Product) {
	if restoreErr := uc.registry.Update(ctx, prior); restoreErr != nil {
		logger.Error("purchase_rollback_failed",
			observability.F("product_id", prior.ID),
			observability.F("error", restoreErr.Error()),
		)
	}
}

func newValidation(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}
