// Package world owns the resident chunks of one world. A World is an actor:
// a single goroutine (Run) handles every request in arrival order, so the
// chunk map, lighting queue and provider are never touched concurrently.
package world

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/OCharnyshevich/voxel-server/internal/server/metrics"
	"github.com/OCharnyshevich/voxel-server/internal/server/world/block"
	"github.com/OCharnyshevich/voxel-server/internal/server/world/chunk"
	"github.com/OCharnyshevich/voxel-server/internal/server/world/gen"
	"github.com/OCharnyshevich/voxel-server/internal/server/world/light"
	"github.com/OCharnyshevich/voxel-server/internal/server/world/nw1"
)

const (
	inboxSize         = 256
	defaultTick       = 50 * time.Millisecond
	defaultGenerator  = gen.FlatgrassName
	generatedChanSize = 64
)

// ErrStopped is returned for requests made after the world stopped.
var ErrStopped = errors.New("world: stopped")

// BlockPos is a block position in world coordinates.
type BlockPos struct {
	X, Y, Z int
}

// Generator accepts chunk generation requests. gen.Worker implements it.
type Generator interface {
	Submit(req gen.Request)
}

// Options configures a World. Zero values select defaults.
type Options struct {
	Name      string
	Generator string
	// LightingBudget caps the light updates processed per drain.
	LightingBudget int
	// TickInterval is how often queued light updates are drained.
	TickInterval time.Duration
	// AutosaveInterval enables periodic saves of dirty chunks.
	AutosaveInterval time.Duration
	// Broadcast receives a Block Change packet for every accepted set-block.
	Broadcast Broker
	Registry  *block.Registry
	Metrics   *metrics.World
}

// StopAck is the reply to Stop.
type StopAck struct {
	WorldID uuid.UUID
	Err     error
}

type chunkDataRequest struct {
	pos chunk.Pos
	to  Broker
}

type setBlockRequest struct {
	pos BlockPos
	id  uint16
}

type getBlockRequest struct {
	pos   BlockPos
	reply chan uint16
}

type saveRequest struct {
	reply chan error
}

type stopRequest struct {
	reply chan StopAck
}

// World is the owner of a world's chunks.
type World struct {
	id       uuid.UUID
	opts     Options
	log      *slog.Logger
	provider Provider
	gen      Generator
	metrics  *metrics.World

	chunks    map[chunk.Pos]*chunk.Chunk
	pending   map[chunk.Pos][]Broker
	lights    light.Queue
	inbox     chan any
	generated chan gen.Result
	done      chan struct{}
}

// New creates a world backed by provider that asks g for missing chunks.
// Call Run to start it.
func New(provider Provider, g Generator, opts Options, log *slog.Logger) *World {
	if opts.Generator == "" {
		opts.Generator = defaultGenerator
	}
	if opts.LightingBudget <= 0 {
		opts.LightingBudget = light.DefaultBudget
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = defaultTick
	}
	if opts.Registry == nil {
		opts.Registry = block.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewWorld(nil, opts.Name)
	}

	id := uuid.New()
	return &World{
		id:        id,
		opts:      opts,
		log:       log.With("world", opts.Name, "id", id),
		provider:  provider,
		gen:       g,
		metrics:   opts.Metrics,
		chunks:    make(map[chunk.Pos]*chunk.Chunk),
		pending:   make(map[chunk.Pos][]Broker),
		inbox:     make(chan any, inboxSize),
		generated: make(chan gen.Result, generatedChanSize),
		done:      make(chan struct{}),
	}
}

// ID identifies this world instance.
func (w *World) ID() uuid.UUID { return w.id }

func (w *World) Name() string { return w.opts.Name }

// send queues msg for the actor. It reports false once the world stopped.
func (w *World) send(msg any) bool {
	select {
	case <-w.done:
		return false
	default:
	}
	select {
	case w.inbox <- msg:
		return true
	case <-w.done:
		return false
	}
}

// RequestChunkData asks for the chunk at pos to be sent to to. The chunk is
// loaded or generated first if it is not resident.
func (w *World) RequestChunkData(pos chunk.Pos, to Broker) {
	w.send(chunkDataRequest{pos: pos, to: to})
}

// SetBlock changes the block at pos. Positions in chunks that are not
// resident are ignored.
func (w *World) SetBlock(pos BlockPos, id uint16) {
	w.send(setBlockRequest{pos: pos, id: id})
}

// GetBlock replies with the block id at pos, 0 if its chunk is not resident.
func (w *World) GetBlock(pos BlockPos) <-chan uint16 {
	reply := make(chan uint16, 1)
	if !w.send(getBlockRequest{pos: pos, reply: reply}) {
		close(reply)
	}
	return reply
}

// Save writes every dirty chunk to the provider.
func (w *World) Save() <-chan error {
	reply := make(chan error, 1)
	if !w.send(saveRequest{reply: reply}) {
		reply <- ErrStopped
	}
	return reply
}

// Stop saves the world and ends Run. The acknowledgement carries the world id.
func (w *World) Stop() <-chan StopAck {
	reply := make(chan StopAck, 1)
	if !w.send(stopRequest{reply: reply}) {
		reply <- StopAck{WorldID: w.id, Err: ErrStopped}
	}
	return reply
}

// Run handles requests until Stop is called or ctx is cancelled. Dirty
// chunks are saved before it returns.
func (w *World) Run(ctx context.Context) error {
	defer close(w.done)

	tick := time.NewTicker(w.opts.TickInterval)
	defer tick.Stop()

	var autosave <-chan time.Time
	if w.opts.AutosaveInterval > 0 {
		t := time.NewTicker(w.opts.AutosaveInterval)
		defer t.Stop()
		autosave = t.C
	}

	w.log.Info("world started", "generator", w.opts.Generator)
	for {
		select {
		case <-ctx.Done():
			err := w.save()
			w.log.Info("world stopped")
			return err

		case msg := <-w.inbox:
			if stop, ok := msg.(stopRequest); ok {
				err := w.save()
				stop.reply <- StopAck{WorldID: w.id, Err: err}
				w.log.Info("world stopped")
				return err
			}
			w.handle(msg)

		case res := <-w.generated:
			w.handleGenerated(res)

		case <-tick.C:
			w.drainLighting()

		case <-autosave:
			if err := w.save(); err != nil {
				w.log.Error("autosave", "error", err)
			}
		}
	}
}

func (w *World) handle(msg any) {
	switch m := msg.(type) {
	case chunkDataRequest:
		w.handleChunkData(m.pos, m.to)
	case setBlockRequest:
		w.handleSetBlock(m.pos, m.id)
	case getBlockRequest:
		m.reply <- w.blockAt(m.pos)
	case saveRequest:
		m.reply <- w.save()
	default:
		w.log.Warn("unknown message", "type", fmt.Sprintf("%T", msg))
	}
}

func (w *World) handleChunkData(pos chunk.Pos, to Broker) {
	if c, ok := w.chunks[pos]; ok {
		w.sendChunk(c, to)
		return
	}
	if waiters, ok := w.pending[pos]; ok {
		w.pending[pos] = append(waiters, to)
		return
	}

	if w.provider.CanLoadChunk(pos) {
		c, err := w.provider.LoadChunk(pos)
		switch {
		case err == nil:
			c.ComputeInitialLighting(w.opts.Registry)
			c.MarkClean()
			w.insert(c)
			w.metrics.Loads.WithLabelValues(metrics.LoadOK).Inc()
			w.sendChunk(c, to)
			return
		case errors.Is(err, nw1.ErrChunkNotFound):
			w.metrics.Loads.WithLabelValues(metrics.LoadMiss).Inc()
		case errors.Is(err, nw1.ErrCorrupt):
			// leave the stored data alone rather than replace it with a fresh chunk
			w.metrics.Loads.WithLabelValues(metrics.LoadCorrupt).Inc()
			w.log.Error("corrupt chunk in store", "chunk", pos, "error", err)
			return
		default:
			w.metrics.Loads.WithLabelValues(metrics.LoadError).Inc()
			w.log.Error("load chunk", "chunk", pos, "error", err)
			return
		}
	} else {
		w.metrics.Loads.WithLabelValues(metrics.LoadMiss).Inc()
	}

	w.pending[pos] = []Broker{to}
	w.gen.Submit(gen.Request{Pos: pos, Generator: w.opts.Generator, Reply: w.generated})
}

func (w *World) handleGenerated(res gen.Result) {
	waiters := w.pending[res.Pos]
	delete(w.pending, res.Pos)

	if res.Err != nil {
		w.metrics.Generations.WithLabelValues("error").Inc()
		w.log.Error("generate chunk", "chunk", res.Pos, "error", res.Err, "waiters", len(waiters))
		return
	}
	w.metrics.Generations.WithLabelValues("ok").Inc()

	c := res.Chunk
	if existing, ok := w.chunks[res.Pos]; ok {
		c = existing
	} else {
		w.insert(c)
	}
	for _, to := range waiters {
		w.sendChunk(c, to)
	}
}

func (w *World) insert(c *chunk.Chunk) {
	w.chunks[c.Pos()] = c
	w.metrics.ResidentChunks.Set(float64(len(w.chunks)))
}

func (w *World) sendChunk(c *chunk.Chunk, to Broker) {
	if to == nil {
		return
	}
	data := chunk.EncodeChunkData(c)
	w.metrics.ChunkPacketBytes.Observe(float64(len(data)))
	to.SendPacket(data)
}

func (w *World) blockAt(pos BlockPos) uint16 {
	c, ok := w.chunks[chunk.PosOf(pos.X, pos.Z)]
	if !ok {
		return 0
	}
	return c.Block(pos.X&0xF, pos.Y, pos.Z&0xF)
}

func (w *World) handleSetBlock(pos BlockPos, id uint16) {
	c, ok := w.chunks[chunk.PosOf(pos.X, pos.Z)]
	if !ok || pos.Y < 0 || pos.Y >= chunk.Height {
		w.log.Debug("set block dropped", "pos", pos, "loaded", ok)
		return
	}

	c.SetBlock(pos.X&0xF, pos.Y, pos.Z&0xF, id)
	c.MarkDirty()
	w.metrics.BlockChanges.Inc()

	if w.opts.Broadcast != nil {
		w.opts.Broadcast.SendPacket(encodeBlockChange(pos, id))
	}

	// the changed cell is popped first, then the one it may have shaded
	w.lights.Push(light.Pos{X: pos.X, Y: pos.Y - 1, Z: pos.Z})
	w.lights.Push(light.Pos{X: pos.X, Y: pos.Y, Z: pos.Z})
	w.drainLighting()
}

func (w *World) drainLighting() {
	if w.lights.Len() == 0 {
		return
	}
	n := light.Propagate(lightAccess{chunks: w.chunks}, w.opts.Registry, &w.lights, w.opts.LightingBudget)
	w.metrics.LightingUpdates.Add(float64(n))
	w.metrics.LightingQueue.Set(float64(w.lights.Len()))
}

// save writes dirty chunks. Chunks that fail stay dirty and are retried by
// the next save.
func (w *World) save() error {
	start := time.Now()
	var errs []error
	saved := 0
	for pos, c := range w.chunks {
		if !c.Dirty() {
			continue
		}
		if err := w.provider.SaveChunk(c); err != nil {
			w.metrics.SaveErrors.Inc()
			w.log.Error("save chunk", "chunk", pos, "error", err)
			errs = append(errs, err)
			continue
		}
		c.MarkClean()
		saved++
	}
	if saved > 0 {
		if err := w.provider.Sync(); err != nil {
			errs = append(errs, fmt.Errorf("sync world: %w", err))
		}
	}
	w.metrics.ChunksSaved.Add(float64(saved))
	w.log.Info("saved world", "chunks", saved, "failed", len(errs), "took", time.Since(start))
	return errors.Join(errs...)
}
