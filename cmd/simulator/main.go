package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/udisondev/rtsnav/internal/config"
	"github.com/udisondev/rtsnav/internal/geom"
	"github.com/udisondev/rtsnav/internal/movement"
	"github.com/udisondev/rtsnav/internal/nav"
	"github.com/udisondev/rtsnav/internal/sim"
)

const ConfigPath = "config/simulator.yaml"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfgPath := ConfigPath
	if p := os.Getenv("RTSNAV_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.LoadSimulation(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	})))

	slog.Info("simulator starting",
		"log_level", cfg.LogLevel,
		"tick_rate", cfg.TickRate)

	world, err := sim.NewWorld(cfg)
	if err != nil {
		return fmt.Errorf("creating world: %w", err)
	}
	defer world.Teardown()

	followers := buildScenario(world, cfg)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := world.Run(gctx); err != nil {
			return fmt.Errorf("world loop: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return reportProgress(gctx, world, followers)
	})

	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("simulator finished", "ticks", world.Tick())
	return nil
}

// buildScenario walls off the middle of the map except for a gap, then
// spawns a squad in the south-west corner and sends it to the north-east
// corner in ring formation.
func buildScenario(world *sim.World, cfg config.Simulation) []*movement.Follower {
	midX := (cfg.Grid.MinX + cfg.Grid.MaxX) / 2
	gapY := (cfg.Grid.MinY + cfg.Grid.MaxY) / 2

	// Two wall segments leaving a gap in the middle.
	world.AddObstacle(nav.ObstacleWall, nav.StaticBounds{
		Bounds: geom.NewAABB(
			geom.Vec2{X: midX - 1, Y: cfg.Grid.MinY},
			geom.Vec2{X: midX + 1, Y: gapY - 6},
		),
	}, nav.ImpassableCost, 0)
	world.AddObstacle(nav.ObstacleWall, nav.StaticBounds{
		Bounds: geom.NewAABB(
			geom.Vec2{X: midX - 1, Y: gapY + 6},
			geom.Vec2{X: midX + 1, Y: cfg.Grid.MaxY},
		),
	}, nav.ImpassableCost, 0)

	const squadSize = 24
	spawnAt := geom.Vec2{X: cfg.Grid.MinX + 10, Y: cfg.Grid.MinY + 10}
	dest := geom.Vec2{X: cfg.Grid.MaxX - 10, Y: cfg.Grid.MaxY - 10}
	offsets := movement.RingOffsets(squadSize, cfg.Avoidance.SeparationRadius*2)

	followers := make([]*movement.Follower, 0, squadSize)
	for i := 0; i < squadSize; i++ {
		jitter := geom.Vec2{X: float64(i%6) * 1.5, Y: float64(i/6) * 1.5}
		f := world.SpawnFollower(spawnAt.Add(jitter))
		f.SetFormationOffset(offsets[i])
		f.SetDestination(dest)
		followers = append(followers, f)
	}

	slog.Info("scenario built",
		"squad", squadSize,
		"spawn", spawnAt,
		"dest", dest)
	return followers
}

// reportProgress logs arrivals once per second and ends the run when the
// whole squad has reached the destination.
func reportProgress(ctx context.Context, world *sim.World, followers []*movement.Follower) error {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			arrived := 0
			for _, f := range followers {
				if f.Reached() {
					arrived++
				}
			}
			slog.Info("progress", "arrived", arrived, "total", len(followers), "tick", world.Tick())
			if arrived == len(followers) {
				world.Stop()
				return nil
			}
		}
	}
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
