package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Consumer reads jobs from the queue and runs the Processor. A delivery is
// acknowledged only after processing; failed jobs are rejected without
// requeue, so nothing is retried automatically.
type Consumer struct {
	broker    *Broker
	queue     string
	name      string
	processor *Processor
	logger    *zap.Logger

	wg sync.WaitGroup
}

// NewConsumer creates a Consumer.
func NewConsumer(broker *Broker, queue, name string, processor *Processor, logger *zap.Logger) *Consumer {
	return &Consumer{
		broker:    broker,
		queue:     queue,
		name:      name,
		processor: processor,
		logger:    logger.Named("consumer"),
	}
}

// Run consumes until ctx is cancelled or the delivery channel closes, then
// waits for in-flight jobs.
func (c *Consumer) Run(ctx context.Context) error {
	deliveries, err := c.broker.Channel().ConsumeWithContext(ctx,
		c.queue,
		c.name,
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("consume %s: %w", c.queue, err)
	}

	c.logger.Info("consuming notification jobs", zap.String("queue", c.queue))
	defer c.wg.Wait()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("stopping consumer")
			return nil
		case d, ok := <-deliveries:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("delivery channel for %s closed", c.queue)
			}
			c.wg.Add(1)
			go func(d amqp.Delivery) {
				defer c.wg.Done()
				c.Handle(ctx, d)
			}(d)
		}
	}
}

// Handle processes one delivery and settles it.
func (c *Consumer) Handle(ctx context.Context, d amqp.Delivery) {
	var job Job
	if err := json.Unmarshal(d.Body, &job); err != nil {
		c.logger.Error("discarding malformed job", zap.Error(err))
		c.settle(d, false)
		return
	}

	log := c.logger.With(zap.String("job_id", job.ID.String()), zap.String("kind", string(job.Kind)))

	if err := c.processor.Process(context.WithoutCancel(ctx), job); err != nil {
		log.Error("notification job failed", zap.Error(err))
		c.settle(d, false)
		return
	}
	c.settle(d, true)
}

func (c *Consumer) settle(d amqp.Delivery, ok bool) {
	var err error
	if ok {
		err = d.Ack(false)
	} else {
		err = d.Nack(false, false)
	}
	if err != nil {
		c.logger.Error("settle delivery", zap.Bool("ack", ok), zap.Error(err))
	}
}
