// Package metrics exposes world engine counters to Prometheus.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "voxel"

// Load outcomes.
const (
	LoadOK      = "ok"
	LoadMiss    = "miss"
	LoadCorrupt = "corrupt"
	LoadError   = "error"
)

// World holds the collectors of one world actor.
type World struct {
	ResidentChunks   prometheus.Gauge
	Loads            *prometheus.CounterVec
	Generations      *prometheus.CounterVec
	ChunksSaved      prometheus.Counter
	SaveErrors       prometheus.Counter
	BlockChanges     prometheus.Counter
	LightingUpdates  prometheus.Counter
	LightingQueue    prometheus.Gauge
	ChunkPacketBytes prometheus.Histogram
}

// NewWorld creates the collectors for the named world and registers them
// with reg. A nil reg leaves them unregistered.
func NewWorld(reg prometheus.Registerer, world string) *World {
	labels := prometheus.Labels{"world": world}
	m := &World{
		ResidentChunks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Subsystem:   "world",
			Name:        "resident_chunks",
			Help:        "Chunks held in memory.",
			ConstLabels: labels,
		}),
		Loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "world",
			Name:        "chunk_loads_total",
			Help:        "Chunk reads from the store by outcome.",
			ConstLabels: labels,
		}, []string{"result"}),
		Generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "world",
			Name:        "chunk_generations_total",
			Help:        "Chunks requested from the generator by outcome.",
			ConstLabels: labels,
		}, []string{"result"}),
		ChunksSaved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "world",
			Name:        "chunks_saved_total",
			Help:        "Dirty chunks written to the store.",
			ConstLabels: labels,
		}),
		SaveErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "world",
			Name:        "save_errors_total",
			Help:        "Chunks that failed to save.",
			ConstLabels: labels,
		}),
		BlockChanges: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "world",
			Name:        "block_changes_total",
			Help:        "Accepted set-block requests.",
			ConstLabels: labels,
		}),
		LightingUpdates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "lighting",
			Name:        "updates_total",
			Help:        "Sky light updates processed.",
			ConstLabels: labels,
		}),
		LightingQueue: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Subsystem:   "lighting",
			Name:        "queue_length",
			Help:        "Sky light updates waiting to be processed.",
			ConstLabels: labels,
		}),
		ChunkPacketBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   namespace,
			Subsystem:   "world",
			Name:        "chunk_packet_bytes",
			Help:        "Size of encoded chunk data packets.",
			ConstLabels: labels,
			Buckets:     prometheus.ExponentialBuckets(1024, 2, 8),
		}),
	}
	if reg != nil {
		reg.MustRegister(
			m.ResidentChunks, m.Loads, m.Generations, m.ChunksSaved, m.SaveErrors,
			m.BlockChanges, m.LightingUpdates, m.LightingQueue, m.ChunkPacketBytes,
		)
	}
	return m
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, g prometheus.Gatherer, log *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(g))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Info("metrics listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
