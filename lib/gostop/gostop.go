package gostop

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// Worker is a long running routine that stops when the context is cancelled
// and marks the wait group as done before returning
type Worker func(ctx context.Context, wait *sync.WaitGroup)

type routine struct {
	cancel context.CancelFunc
	wait   *sync.WaitGroup
}

// GoStop keeps track of named workers so they can be stopped in a given order
type GoStop struct {
	routines map[string]*routine
	lock     sync.Mutex
}

var instance *GoStop
var once sync.Once

// GetInstance returns the process wide registry
func GetInstance() *GoStop {
	once.Do(func() {
		instance = New()
	})
	return instance
}

// New creates an empty registry
func New() *GoStop {
	return &GoStop{routines: map[string]*routine{}}
}

// Go starts the worker in a new goroutine
func (g *GoStop) Go(name string, worker Worker, logged bool) *GoStop {
	ctx, wait := g.register(name, logged)
	go worker(ctx, wait)
	return g
}

// Exec runs the worker in the current goroutine
func (g *GoStop) Exec(name string, worker Worker, logged bool) *GoStop {
	ctx, wait := g.register(name, logged)
	worker(ctx, wait)
	return g
}

func (g *GoStop) register(name string, logged bool) (context.Context, *sync.WaitGroup) {
	ctx, cancel := context.WithCancel(context.Background())
	wait := &sync.WaitGroup{}
	wait.Add(1)

	g.lock.Lock()
	if old, ok := g.routines[name]; ok {
		old.cancel()
	}
	g.routines[name] = &routine{cancel: cancel, wait: wait}
	g.lock.Unlock()

	if logged {
		log.Debug().Str("section", "gostop").Str("worker", name).Msg("Worker registered")
	}
	return ctx, wait
}

// CancelAndWait stops the named worker and blocks until it returned. Unknown names are ignored.
func (g *GoStop) CancelAndWait(name string) *GoStop {
	g.lock.Lock()
	r, ok := g.routines[name]
	delete(g.routines, name)
	g.lock.Unlock()
	if !ok {
		return g
	}
	r.cancel()
	r.wait.Wait()
	log.Debug().Str("section", "gostop").Str("worker", name).Msg("Worker stopped")
	return g
}
