package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/OCharnyshevich/voxel-server/internal/server/config"
	"github.com/OCharnyshevich/voxel-server/internal/server/conn"
	"github.com/OCharnyshevich/voxel-server/internal/server/metrics"
	"github.com/OCharnyshevich/voxel-server/internal/server/storage"
	"github.com/OCharnyshevich/voxel-server/internal/server/world"
	"github.com/OCharnyshevich/voxel-server/internal/server/world/block"
	"github.com/OCharnyshevich/voxel-server/internal/server/world/chunk"
	"github.com/OCharnyshevich/voxel-server/internal/server/world/gen"
)

// Server hosts one world and streams it to TCP clients.
type Server struct {
	cfg      *config.Config
	log      *slog.Logger
	registry *block.Registry
	provider world.Provider
	worker   *gen.Worker
	world    *world.World
	hub      *conn.Hub
	gatherer *prometheus.Registry

	listening chan struct{}
	addr      net.Addr
}

// New opens the world store under the storage root and builds everything
// the world needs. Nothing runs until Start.
func New(cfg *config.Config, st *storage.Storage, log *slog.Logger) (*Server, error) {
	reg := block.Default()
	if cfg.RegistryPath != "" {
		var err error
		if reg, err = block.Load(cfg.RegistryPath); err != nil {
			return nil, err
		}
		log.Info("loaded block registry", "path", cfg.RegistryPath, "blocks", len(reg.All()))
	}

	worker, err := gen.NewWorker(reg, cfg.Seed, cfg.Workers, log)
	if err != nil {
		return nil, fmt.Errorf("create generator: %w", err)
	}
	if _, err := gen.New(cfg.Generator, reg, cfg.Seed); err != nil {
		return nil, err
	}

	path := st.WorldPath(cfg.WorldName, world.ProviderExt(cfg.Provider))
	provider, err := world.OpenProvider(cfg.Provider, path, cfg.PageSize)
	if err != nil {
		return nil, fmt.Errorf("open world %s: %w", path, err)
	}

	gatherer := prometheus.NewRegistry()
	gatherer.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	hub := conn.NewHub()
	w := world.New(provider, worker, world.Options{
		Name:             cfg.WorldName,
		Generator:        cfg.Generator,
		LightingBudget:   cfg.LightingBudget,
		TickInterval:     cfg.TickInterval,
		AutosaveInterval: cfg.AutosaveInterval,
		Broadcast:        hub,
		Registry:         reg,
		Metrics:          metrics.NewWorld(gatherer, cfg.WorldName),
	}, log)

	log.Info("opened world", "path", path, "provider", cfg.Provider, "id", w.ID())
	return &Server{
		cfg:       cfg,
		log:       log,
		registry:  reg,
		provider:  provider,
		worker:    worker,
		world:     w,
		hub:       hub,
		gatherer:  gatherer,
		listening: make(chan struct{}),
	}, nil
}

func (s *Server) World() *world.World { return s.world }

// Addr blocks until Start is listening and returns the bound address.
func (s *Server) Addr() net.Addr {
	<-s.listening
	return s.addr
}

// Start runs the world and accepts connections until ctx is cancelled, then
// stops the world (saving it) and closes the store.
func (s *Server) Start(ctx context.Context) (err error) {
	defer func() {
		if cerr := s.provider.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close world: %w", cerr))
		}
	}()

	addr := fmt.Sprintf(":%d", s.cfg.Port)
	lc := net.ListenConfig{}
	listener, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	defer listener.Close()
	s.addr = listener.Addr()
	close(s.listening)

	genCtx, stopGen := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.worker.Run(genCtx)
	}()

	worldDone := make(chan error, 1)
	go func() { worldDone <- s.world.Run(context.Background()) }()

	if s.cfg.MetricsAddr != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := metrics.Serve(ctx, s.cfg.MetricsAddr, s.gatherer, s.log); err != nil {
				s.log.Error("metrics server", "error", err)
			}
		}()
	}

	s.log.Info("server started",
		"addr", s.addr.String(),
		"world", s.cfg.WorldName,
		"generator", s.cfg.Generator,
		"seed", s.cfg.Seed,
	)

	// Close listener when context is cancelled.
	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	for {
		c, aerr := listener.Accept()
		if aerr != nil {
			if ctx.Err() != nil {
				break
			}
			s.log.Error("accept connection", "error", aerr)
			continue
		}

		session := conn.NewSession(ctx, c, s.log)
		s.hub.Add(session)
		go session.Handle()
		go session.Stream(s.world, chunk.Pos{}, int32(s.cfg.ViewDistance))
	}

	s.log.Info("server shutting down")
	ack := <-s.world.Stop()
	if ack.Err != nil && !errors.Is(ack.Err, world.ErrStopped) {
		err = fmt.Errorf("stop world %s: %w", ack.WorldID, ack.Err)
	}
	<-worldDone
	stopGen()
	wg.Wait()
	return err
}
