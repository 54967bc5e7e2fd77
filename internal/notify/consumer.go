package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/dukerupert/tuckborough/internal/event"
	"github.com/dukerupert/tuckborough/internal/model"
	"github.com/dukerupert/tuckborough/internal/store"

	"github.com/sethvargo/go-retry"
)

// Dispatcher delivers one generated message to one device.
type Dispatcher interface {
	Send(token model.PushToken, payload Payload) error
}

const maxSendRetries = 3

// Consumer bridges domain events to push delivery: it turns change
// events into generator calls and hands every resulting message to the
// dispatcher. Delivery is best-effort; transient failures are retried
// with exponential backoff, expired tokens are pruned.
type Consumer struct {
	mu         sync.RWMutex
	gen        *Generator
	dispatcher Dispatcher
	tokens     *store.PushTokenStore
	bus        *event.Bus
	logger     *slog.Logger
	cancel     context.CancelFunc
	done       chan struct{}
}

func NewConsumer(gen *Generator, dispatcher Dispatcher, tokenStore *store.PushTokenStore, bus *event.Bus, logger *slog.Logger) *Consumer {
	return &Consumer{
		gen:        gen,
		dispatcher: dispatcher,
		tokens:     tokenStore,
		bus:        bus,
		logger:     logger,
	}
}

// Start begins consuming change events. It returns immediately.
func (c *Consumer) Start(ctx context.Context) {
	c.mu.Lock()
	ctx, c.cancel = context.WithCancel(ctx)
	c.done = make(chan struct{})
	c.mu.Unlock()

	tasksChanged := c.bus.Subscribe(event.KindTasksChanged)
	added := c.bus.Subscribe(event.KindAssignmentsAdded)
	updated := c.bus.Subscribe(event.KindAssignmentsUpdated)

	go func() {
		defer close(c.done)
		for {
			select {
			case <-ctx.Done():
				return
			case e := <-tasksChanged:
				c.handleTasks(ctx, e.TaskIDs)
			case e := <-added:
				c.handleAssignments(ctx, e.AssignmentIDs)
			case e := <-updated:
				c.handleAssignments(ctx, e.AssignmentIDs)
			}
		}
	}()
}

// Stop gracefully stops the consumer.
func (c *Consumer) Stop() {
	c.mu.RLock()
	cancel := c.cancel
	done := c.done
	c.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (c *Consumer) handleTasks(ctx context.Context, taskIDs []int64) {
	messages, err := c.gen.ForTasks(taskIDs, time.Now().UTC())
	if err != nil {
		c.logger.Error("generate task payloads", "error", err)
		return
	}
	c.dispatch(ctx, messages)
}

func (c *Consumer) handleAssignments(ctx context.Context, assignmentIDs []int64) {
	messages, err := c.gen.ForAssignments(assignmentIDs, time.Now().UTC())
	if err != nil {
		c.logger.Error("generate assignment payloads", "error", err)
		return
	}
	c.dispatch(ctx, messages)
}

func (c *Consumer) dispatch(ctx context.Context, messages []Message) {
	for _, msg := range messages {
		backoff := retry.WithMaxRetries(maxSendRetries, retry.NewExponential(500*time.Millisecond))
		err := retry.Do(ctx, backoff, func(ctx context.Context) error {
			err := c.dispatcher.Send(msg.Token, msg.Payload)
			if errors.Is(err, ErrExpired) {
				return err
			}
			if err != nil {
				return retry.RetryableError(err)
			}
			return nil
		})

		if errors.Is(err, ErrExpired) {
			if err := c.tokens.DeleteByEndpoint(msg.Token.Endpoint); err != nil {
				c.logger.Error("prune expired token", "error", err)
			}
			continue
		}
		if err != nil {
			c.logger.Error("send push", "member_id", msg.Token.MemberID, "device_id", msg.Token.DeviceID, "error", err)
		}
	}
}
