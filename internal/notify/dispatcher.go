package notify

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// ===========================================================================
// Dispatchers
// Schedule hands the job off and returns immediately. The caller never learns
// whether the notification was delivered; failures are only logged.
// ===========================================================================

// Dispatcher schedules notification jobs.
type Dispatcher interface {
	Schedule(ctx context.Context, kind Kind, restaurantID uuid.UUID, payload any)
}

// handoffTimeout bounds the background work of one Schedule call.
const handoffTimeout = 30 * time.Second

// Publisher is the subset of *amqp.Channel used for publishing.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// RabbitDispatcher publishes persistent jobs to a durable queue.
type RabbitDispatcher struct {
	publisher Publisher
	queue     string
	logger    *zap.Logger

	// mu serializes publishes on the shared channel
	mu sync.Mutex
	wg sync.WaitGroup
}

// NewRabbitDispatcher creates a dispatcher publishing to queue through the
// default exchange.
func NewRabbitDispatcher(publisher Publisher, queue string, logger *zap.Logger) *RabbitDispatcher {
	return &RabbitDispatcher{
		publisher: publisher,
		queue:     queue,
		logger:    logger.Named("notify"),
	}
}

// Schedule publishes from a goroutine.
func (d *RabbitDispatcher) Schedule(ctx context.Context, kind Kind, restaurantID uuid.UUID, payload any) {
	job, err := NewJob(kind, restaurantID, payload)
	if err != nil {
		d.logger.Error("build notification job", zap.String("kind", string(kind)), zap.Error(err))
		return
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), handoffTimeout)
		defer cancel()

		if err := d.publish(pubCtx, job); err != nil {
			d.logger.Error("publish notification job",
				zap.String("job_id", job.ID.String()),
				zap.String("kind", string(job.Kind)),
				zap.Error(err),
			)
			return
		}
		d.logger.Debug("notification job published",
			zap.String("job_id", job.ID.String()),
			zap.String("kind", string(job.Kind)),
		)
	}()
}

func (d *RabbitDispatcher) publish(ctx context.Context, job Job) error {
	body, err := json.Marshal(job)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	return d.publisher.PublishWithContext(ctx,
		"",      // default exchange
		d.queue, // routing key = queue name
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			MessageId:    job.ID.String(),
			Type:         string(job.Kind),
			Timestamp:    job.CreatedAt,
			Body:         body,
		})
}

// Wait blocks until every in-flight publish has finished.
func (d *RabbitDispatcher) Wait() {
	d.wg.Wait()
}

// AsyncDispatcher runs the processor in-process. Used when no broker is
// configured, typically in development.
type AsyncDispatcher struct {
	processor *Processor
	logger    *zap.Logger
	wg        sync.WaitGroup
}

// NewAsyncDispatcher creates an in-process dispatcher.
func NewAsyncDispatcher(processor *Processor, logger *zap.Logger) *AsyncDispatcher {
	return &AsyncDispatcher{processor: processor, logger: logger.Named("notify")}
}

// Schedule processes the job in a goroutine.
func (d *AsyncDispatcher) Schedule(ctx context.Context, kind Kind, restaurantID uuid.UUID, payload any) {
	job, err := NewJob(kind, restaurantID, payload)
	if err != nil {
		d.logger.Error("build notification job", zap.String("kind", string(kind)), zap.Error(err))
		return
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), handoffTimeout)
		defer cancel()

		if err := d.processor.Process(runCtx, job); err != nil {
			d.logger.Warn("notification job failed",
				zap.String("job_id", job.ID.String()),
				zap.String("kind", string(job.Kind)),
				zap.Error(err),
			)
		}
	}()
}

// Wait blocks until every scheduled job has finished.
func (d *AsyncDispatcher) Wait() {
	d.wg.Wait()
}
