package listener

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/apperror"
	"github.com/fekuna/omnipos-inventory-service/internal/inventory"
	"github.com/fekuna/omnipos-inventory-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-inventory-service/pkg/logger"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	EventProductCreated = "ProductCreated"
	EventProductUpdated = "ProductUpdated"
	EventProductDeleted = "ProductDeleted"

	readRetryDelay = time.Second

	defaultRetryBase = 200 * time.Millisecond
	defaultRetryMax  = 30 * time.Second
)

var (
	ErrAlreadyStarted = errors.New("listener already started")

	errMalformedEvent = errors.New("malformed catalog event")
)

// Consumer is satisfied by *broker.KafkaConsumer. Offsets are committed only after a message
// has been applied or rejected as permanently bad.
type Consumer interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Topics maps catalog lifecycle topics to events.
type Topics struct {
	Created string
	Updated string
	Deleted string
}

type ProductEvent struct {
	EventID   string         `json:"event_id"`
	EventType string         `json:"event_type"`
	Payload   ProductPayload `json:"payload"`
	Timestamp time.Time      `json:"timestamp"`
}

type ProductPayload struct {
	ProductID   string  `json:"productId"`
	ProductCode *string `json:"productCode,omitempty"`
	ProductName *string `json:"productName,omitempty"`
	OpeningQty  *int64  `json:"openingQty,omitempty"`
}

// CatalogListener keeps inventory records in step with the catalog. It is started once at
// service startup and stopped at shutdown.
type CatalogListener struct {
	consumer Consumer
	uc       inventory.UseCase
	topics   Topics
	logger   logger.ZapLogger
	tracer   trace.Tracer

	retryBase time.Duration
	retryMax  time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewCatalogListener(consumer Consumer, uc inventory.UseCase, topics Topics, log logger.ZapLogger) *CatalogListener {
	return &CatalogListener{
		consumer:  consumer,
		uc:        uc,
		topics:    topics,
		logger:    log,
		tracer:    otel.Tracer("inventory.listener"),
		retryBase: defaultRetryBase,
		retryMax:  defaultRetryMax,
	}
}

// Start subscribes and consumes in the background until Stop or ctx cancellation.
func (l *CatalogListener) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.done != nil {
		return ErrAlreadyStarted
	}

	ctx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.done = make(chan struct{})

	go func() {
		defer close(l.done)
		l.run(ctx)
	}()
	return nil
}

// Stop cancels consumption, waits for the in-flight message and closes the consumer.
func (l *CatalogListener) Stop() error {
	l.mu.Lock()
	cancel, done := l.cancel, l.done
	l.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	return l.consumer.Close()
}

func (l *CatalogListener) run(ctx context.Context) {
	l.logger.Info("Starting catalog event listener")
	for {
		msg, err := l.consumer.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				l.logger.Info("Stopping catalog event listener")
				return
			}
			l.logger.Error("Failed to read kafka message", zap.Error(err))
			if !sleepCtx(ctx, readRetryDelay) {
				return
			}
			continue
		}

		if !l.handle(ctx, msg) {
			// Stopped mid-retry: leave the offset uncommitted so the event is redelivered.
			l.logger.Info("Stopping catalog event listener", zap.Int64("uncommitted_offset", msg.Offset))
			return
		}
		if err := l.consumer.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return
			}
			l.logger.Error("Failed to commit kafka offset",
				zap.String("topic", msg.Topic),
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
		}
	}
}

// handle applies msg, retrying transient failures with capped exponential backoff. It returns
// false only when ctx ends before the message was settled.
func (l *CatalogListener) handle(ctx context.Context, msg kafka.Message) bool {
	delay := l.retryBase
	for attempt := 1; ; attempt++ {
		err := l.processMessage(ctx, msg)
		if err == nil {
			return true
		}
		fields := []zap.Field{
			zap.String("topic", msg.Topic),
			zap.Int64("offset", msg.Offset),
			zap.Int("attempt", attempt),
			zap.Error(err),
		}
		if isPermanent(err) {
			l.logger.Error("Skipping unprocessable catalog event", fields...)
			return true
		}
		if ctx.Err() != nil {
			return false
		}
		l.logger.Warn("Failed to process catalog event, retrying", append(fields, zap.Duration("backoff", delay))...)
		if !sleepCtx(ctx, delay) {
			return false
		}
		if delay *= 2; delay > l.retryMax {
			delay = l.retryMax
		}
	}
}

// isPermanent reports errors that will fail the same way on redelivery.
func isPermanent(err error) bool {
	if errors.Is(err, errMalformedEvent) {
		return true
	}
	switch apperror.KindOf(err) {
	case apperror.KindValidation, apperror.KindNotFound:
		return true
	}
	return false
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (l *CatalogListener) processMessage(ctx context.Context, msg kafka.Message) error {
	carrier := propagation.MapCarrier{}
	for _, h := range msg.Headers {
		carrier[h.Key] = string(h.Value)
	}
	ctx = otel.GetTextMapPropagator().Extract(ctx, carrier)

	var event ProductEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("%w: %v", errMalformedEvent, err)
	}

	kind := l.eventKind(msg.Topic, event.EventType)
	if kind == "" {
		l.logger.Debug("Ignoring event", zap.String("topic", msg.Topic), zap.String("event_type", event.EventType))
		return nil
	}
	if event.Payload.ProductID == "" {
		return fmt.Errorf("%w: missing productId", errMalformedEvent)
	}

	ctx, span := l.tracer.Start(ctx, "catalog."+kind, trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.destination.name", msg.Topic),
			attribute.String("product.id", event.Payload.ProductID),
		))
	defer span.End()

	l.logger.Info("Processing catalog event",
		zap.String("event_type", kind),
		zap.String("event_id", event.EventID),
		zap.String("product_id", event.Payload.ProductID),
	)

	var err error
	switch kind {
	case EventProductCreated, EventProductUpdated:
		_, err = l.uc.UpsertFromCatalog(ctx, &dto.CatalogProductInput{
			ProductID:   event.Payload.ProductID,
			ProductCode: event.Payload.ProductCode,
			ProductName: event.Payload.ProductName,
			OpeningQty:  event.Payload.OpeningQty,
		})
	case EventProductDeleted:
		err = l.uc.RemoveFromCatalog(ctx, event.Payload.ProductID)
	}
	if err != nil {
		span.RecordError(err)
	}
	return err
}

// eventKind prefers the topic and falls back to the envelope's event_type.
func (l *CatalogListener) eventKind(topic, eventType string) string {
	if topic != "" {
		switch topic {
		case l.topics.Created:
			return EventProductCreated
		case l.topics.Updated:
			return EventProductUpdated
		case l.topics.Deleted:
			return EventProductDeleted
		}
	}
	switch eventType {
	case EventProductCreated, EventProductUpdated, EventProductDeleted:
		return eventType
	}
	return ""
}
