package audit

import (
	"context"
	"sync"
	"time"

	Logger "github.com/Luismorlan/feedsim/utils/log"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const (
	gracefulRetryDelay = 3 * time.Second
)

// Module is a long running consumer of the audit bus.
type Module interface {
	// RunModule contains the customized logic of the module. It takes in a
	// context object by which its lifecycle is managed. Return error if
	// encountered any error during execution.
	RunModule(ctx context.Context) error

	// Return name of the Module. Uniquely identifies the module instance.
	Name() string
}

// Engine runs each Module in its own goroutine over a shared event bus and
// restarts modules that fail.
type Engine struct {
	Modules []Module

	// The EventBus this engine managed. For now we use a golang channel
	// implementation, it could later be swapped for a Kafka-based one.
	EventBus *gochannel.GoChannel

	retryDelay time.Duration
}

func NewEngine(ms []Module, e *gochannel.GoChannel) *Engine {
	return &Engine{
		Modules:    ms,
		EventBus:   e,
		retryDelay: gracefulRetryDelay,
	}
}

// Run executes all modules and blocks until every one of them returned,
// which happens once ctx is cancelled.
func (e *Engine) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, m := range e.Modules {
		wg.Add(1)
		go func(m Module) {
			defer wg.Done()
			Logger.Log.Infof("start audit module %s", m.Name())
			e.runWithGracefulRestart(ctx, m)
			Logger.Log.Infof("audit module %s finished execution", m.Name())
		}(m)
	}
	// Block until all goroutine finished execution.
	wg.Wait()
}

// Shutdown closes the event bus, which ends every subscription.
func (e *Engine) Shutdown() error {
	Logger.Log.Infoln("shutting down audit engine")
	return e.EventBus.Close()
}

func (e *Engine) runWithGracefulRestart(ctx context.Context, m Module) {
	for {
		err := m.RunModule(ctx)
		if err == nil || ctx.Err() != nil {
			return
		}
		Logger.Log.WithError(err).Errorf("module %s exited, retry in %s", m.Name(), e.retryDelay)

		select {
		case <-ctx.Done():
			return
		case <-time.After(e.retryDelay):
		}
	}
}
