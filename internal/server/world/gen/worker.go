package gen

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/OCharnyshevich/voxel-server/internal/server/world/block"
	"github.com/OCharnyshevich/voxel-server/internal/server/world/chunk"
)

const requestBuffer = 256

// Request asks for the chunk at Pos to be generated by the named generator.
// The answer is sent on Reply.
type Request struct {
	Pos       chunk.Pos
	Generator string
	Reply     chan<- Result
}

// Result carries a generated chunk, already seeded with initial sky light,
// or the reason generation failed.
type Result struct {
	Pos   chunk.Pos
	Chunk *chunk.Chunk
	Err   error
}

// Worker runs generation requests on a fixed pool of goroutines.
type Worker struct {
	gens     map[string]Generator
	reg      *block.Registry
	workers  int
	requests chan Request
	log      *slog.Logger
	closed   chan struct{}
}

// NewWorker builds every registered generator with the given seed.
func NewWorker(reg *block.Registry, seed int64, workers int, log *slog.Logger) (*Worker, error) {
	if workers < 1 {
		workers = 1
	}
	gens := make(map[string]Generator, len(factories))
	for _, name := range Names() {
		g, err := New(name, reg, seed)
		if err != nil {
			return nil, err
		}
		gens[name] = g
	}
	return &Worker{
		gens:     gens,
		reg:      reg,
		workers:  workers,
		requests: make(chan Request, requestBuffer),
		log:      log.With("component", "generator"),
		closed:   make(chan struct{}),
	}, nil
}

// Run processes requests until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < w.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.loop(ctx)
		}()
	}
	w.log.Info("generator started", "workers", w.workers)
	wg.Wait()
	close(w.closed)
}

// Submit queues req without blocking the caller. Requests submitted after
// the worker stopped are dropped.
func (w *Worker) Submit(req Request) {
	select {
	case w.requests <- req:
		return
	default:
	}
	go func() {
		select {
		case w.requests <- req:
		case <-w.closed:
		}
	}()
}

func (w *Worker) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-w.requests:
			res := w.generate(req)
			select {
			case req.Reply <- res:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (w *Worker) generate(req Request) Result {
	g, ok := w.gens[req.Generator]
	if !ok {
		return Result{Pos: req.Pos, Err: fmt.Errorf("%w: %q", ErrUnknownGenerator, req.Generator)}
	}
	c := chunk.New(req.Pos)
	g.Generate(c)
	c.ComputeInitialLighting(w.reg)
	return Result{Pos: req.Pos, Chunk: c}
}
