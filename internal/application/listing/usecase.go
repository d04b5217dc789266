package listing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alinasirlou2020/mobile-shop/internal/domain/identity"
	domoutbox "github.com/alinasirlou2020/mobile-shop/internal/domain/outbox"
	domain "github.com/alinasirlou2020/mobile-shop/internal/domain/product"
	"github.com/alinasirlou2020/mobile-shop/internal/observability"
	"github.com/alinasirlou2020/mobile-shop/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	listingService = "listing-service"
	useCaseAdd     = "product.add"
	spanPrefix     = "UC."
	publishPeer    = "eventlog"
	publishAddr    = "product.created"
	publishTimeout = 300 * time.Millisecond
)

var (
	ErrValidation = errors.New("listing: validation")
	ErrEmptyName  = domain.ErrEmptyName
	ErrZeroPrice  = domain.ErrZeroPrice
)

// AddProductUseCase stores a new listing and announces it on the event log.
type AddProductUseCase struct {
	registry  domain.Registry
	publisher domoutbox.Publisher
	tel       observability.Observability

	log          observability.Logger
	reqCounter   observability.Counter
	durHistogram observability.Histogram
	extCounter   observability.Counter
	extHistogram observability.Histogram
	pubFailures  observability.Counter
}

func NewAddProductUseCase(
	registry domain.Registry,
	publisher domoutbox.Publisher,
	tel observability.Observability,
) *AddProductUseCase {
	baseLog := observability.NopLogger()
	metricsProvider := observability.NopMetrics()
	if tel != nil {
		baseLog = tel.Logger()
		metricsProvider = tel.Metrics()
	}
	baseLog = baseLog.With(
		observability.F("service", listingService),
	)

	return &AddProductUseCase{
		registry:     registry,
		publisher:    publisher,
		tel:          tel,
		log:          baseLog,
		reqCounter:   metricsProvider.Counter(observability.MUsecaseRequests),
		durHistogram: metricsProvider.Histogram(observability.MUsecaseDuration),
		extCounter:   metricsProvider.Counter(observability.MExternalRequests),
		extHistogram: metricsProvider.Histogram(observability.MExternalRequestDuration),
		pubFailures:  metricsProvider.Counter(observability.MEventPublishFailed),
	}
}

type AddProductInput struct {
	Name  string
	Price int64
	Owner identity.ID
}

// Execute validates the listing, allocates the next id through the
// registry, and emits product.created.
func (uc *AddProductUseCase) Execute(ctx context.Context, cmd AddProductInput) (_ *domain.Product, err error) {
	logger := logctx.FromOr(ctx, uc.log).With(observability.F("use_case", useCaseAdd))

	tracer := observability.NopTracer()
	if uc.tel != nil {
		tracer = uc.tel.Tracer()
	}

	ctx, span := tracer.Start(ctx, spanPrefix+"AddProduct",
		attribute.String("use_case", useCaseAdd),
		attribute.String("product.name", cmd.Name),
		attribute.Int64("product.price", cmd.Price),
	)
	start := time.Now()
	outcome, statusText := "success", "OK"
	var productID uint64
	var publishErr error

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
				observability.L("use_case", useCaseAdd),
				observability.L("outcome", outcome),
			)
		}
		if uc.durHistogram != nil {
			uc.durHistogram.Observe(lat,
				observability.L("use_case", useCaseAdd),
			)
		}

		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("status", statusText),
			observability.F("latency_seconds", lat),
		}
		if productID != 0 {
			fields = append(fields, observability.F("product_id", productID))
		}
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			fields = append(fields,
				observability.F("trace_id", sc.TraceID().String()),
				observability.F("span_id", sc.SpanID().String()),
			)
		}
		if publishErr != nil {
			fields = append(fields, observability.F("event_publish_error", publishErr.Error()))
		}
		if err != nil {
			fields = append(fields, observability.F("error", err.Error()))
		}

		logger.Info("use_case_done", fields...)
	}()

	if cmd.Owner.IsZero() {
		outcome, statusText = "error", "OWNER_REQUIRED"
		return nil, newValidation("owner identity is required")
	}
	if err := ctx.Err(); err != nil {
		outcome, statusText = "error", "CONTEXT_CANCELED"
		return nil, err
	}

	entity, createErr := uc.registry.Create(ctx, cmd.Name, cmd.Price, cmd.Owner)
	if createErr != nil {
		switch {
		case errors.Is(createErr, domain.ErrEmptyName):
			outcome, statusText = "error", "NAME_EMPTY"
		case errors.Is(createErr, domain.ErrZeroPrice):
			outcome, statusText = "error", "PRICE_INVALID"
		default:
			outcome, statusText = "error", "REGISTRY_CREATE_FAILED"
			return nil, fmt.Errorf("listing: create: %w", createErr)
		}
		return nil, createErr
	}
	productID = entity.ID

	if uc.publisher != nil {
		pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
		pubStart := time.Now()
		pubOutcome := "success"

		publishErr = uc.publisher.Publish(pubCtx, domain.NewProductCreatedEvent(entity))
		if publishErr != nil {
			pubOutcome = "error"
			statusText = "EVENT_PUBLISH_FAILED"
			if uc.pubFailures != nil {
				uc.pubFailures.Add(1, observability.L("event", publishAddr))
			}
		}
		cancel()

		if uc.extCounter != nil {
			uc.extCounter.Add(1,
				observability.L("peer", publishPeer),
				observability.L("endpoint", publishAddr),
				observability.L("outcome", pubOutcome),
			)
		}
		if uc.extHistogram != nil {
			uc.extHistogram.Observe(time.Since(pubStart).Seconds(),
				observability.L("peer", publishPeer),
				observability.L("endpoint", publishAddr),
			)
		}
	}

	span.SetAttributes(attribute.Int64("product.id", int64(entity.ID)))
	span.AddEvent("product.created",
		trace.WithAttributes(
			attribute.Int64("product.id", int64(entity.ID)),
		),
	)

	return entity, nil
}

func newValidation(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}
