package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/paulmach/orb"
	"gorm.io/gorm"

	"roadmap-planner/config"
	"roadmap-planner/handlers"
	"roadmap-planner/planner"
	"roadmap-planner/scene"
	"roadmap-planner/sim"
	"roadmap-planner/store"
)

// mergeTolerance is how far apart two box sides may be and still count as
// shared when simplifying obstacles
const mergeTolerance = 1e-6

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	envFile := flag.String("env", ".env", "path to the .env file")
	flag.Parse()

	log.Println("========================================")
	log.Println("🚀 Roadmap Planner Server (PRM-based)")
	log.Println("========================================")

	cfg, err := config.Load(*configPath, *envFile)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}

	obstacles := loadObstacles(cfg)
	cfg.Planner.Workspace = workspace(cfg, obstacles)
	log.Printf("   Workspace: (%.1f, %.1f) to (%.1f, %.1f)\n",
		cfg.Planner.Workspace.Min.X(), cfg.Planner.Workspace.Min.Y(),
		cfg.Planner.Workspace.Max.X(), cfg.Planner.Workspace.Max.Y())

	pc, err := planner.NewContext(cfg.Planner, obstacles)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	p := planner.NewPlanner(pc)

	db, queries := openStore(cfg.Store)

	var server *handlers.Server
	world := sim.NewWorld(p, cfg.Sim.Agents, sim.Options{
		TickRate: cfg.Sim.TickRate,
		Seed:     cfg.Sim.Seed,
	}, func(msg sim.Message) {
		server.Hub().BroadcastMessage(msg)
	})
	server = handlers.New(handlers.Options{
		Planner: p,
		World:   world,
		Queries: queries,
		DB:      db,
	})
	if queries != nil {
		world.SetQueryHook(server.RecordQuery)
	}
	go server.Hub().Start()

	stats, err := world.Reset()
	if err != nil {
		log.Fatalf("❌ Initial roadmap build failed: %v", err)
	}
	server.RecordBuild(stats)

	if cfg.DumpFile != "" {
		if rm, err := p.Snapshot(); err == nil {
			if err := planner.SaveDump(rm, cfg.DumpFile); err != nil {
				log.Printf("⚠️  Failed to save roadmap dump: %v\n", err)
			}
		}
	}

	if cfg.WatchObstacles {
		watchObstacles(cfg, p, world, server)
	}
	if cfg.Sim.Autostart {
		world.Start()
	}

	app := fiber.New()
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.AllowOrigins,
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET, POST, OPTIONS",
	}))
	server.Register(app)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit

		log.Println("🛑 Shutting down...")
		world.Stop()
		if queries != nil {
			queries.Stop()
		}
		_ = app.Shutdown()
		server.Hub().Stop()
	}()

	log.Printf("Server starting on %s\n", cfg.Server.Addr)
	log.Println("")
	log.Println("Endpoints:")
	log.Println("  GET  /api/health            - Check server status")
	log.Println("  POST /api/roadmap/build     - Build probabilistic roadmap (PRM)")
	log.Println("  GET  /api/roadmap/lines     - Get roadmap edges for visualization")
	log.Println("  GET  /api/roadmap/dump      - Get the plain-text roadmap dump")
	log.Println("  POST /api/route             - Compute route with start and end points")
	log.Println("  POST /api/sim/start|stop    - Run or pause the agent simulation")
	log.Println("  POST /api/sim/reset         - Rebuild the roadmap and respawn agents")
	log.Println("  POST /api/sim/goal          - Move the goal")
	log.Println("  GET  /api/sim/status        - Current world state")
	log.Println("  GET  /api/queries/recent    - Recent path queries")
	log.Println("  WS   /websocket/sim         - Live world stream")
	log.Println("========================================")
	log.Println("")

	if err := app.Listen(cfg.Server.Addr); err != nil {
		log.Fatal(err)
	}
}

func loadObstacles(cfg config.Config) []planner.Obstacle {
	if cfg.ObstacleFile == "" {
		return nil
	}
	obstacles, err := scene.Load(cfg.ObstacleFile)
	if err != nil {
		log.Printf("⚠️  No obstacles loaded: %v\n", err)
		return nil
	}
	if cfg.SimplifyObstacles {
		obstacles = scene.Simplify(obstacles, mergeTolerance)
	}
	return obstacles
}

// workspace is the configured workspace, or the default one grown to cover
// every obstacle
func workspace(cfg config.Config, obstacles []planner.Obstacle) orb.Bound {
	ws := cfg.Planner.Workspace
	if cfg.Workspace != nil {
		return ws
	}
	if extent, ok := scene.Extent(obstacles, 2*cfg.Planner.RobotRadius); ok {
		ws = ws.Union(extent)
	}
	return ws
}

func openStore(sc config.StoreConfig) (*gorm.DB, *store.QueryLog) {
	if sc.Driver == "" {
		log.Println("ℹ️  No database configured, queries are kept in memory")
		return nil, store.NewQueryLog(sc.FlushSize, sc.FlushInterval, nil)
	}

	db, err := store.Open(sc.Driver, sc.DSN)
	if err != nil {
		log.Printf("⚠️  Database unavailable, queries are kept in memory: %v\n", err)
		return nil, store.NewQueryLog(sc.FlushSize, sc.FlushInterval, nil)
	}
	return db, store.NewQueryLog(sc.FlushSize, sc.FlushInterval, store.GormSink(db))
}

// watchObstacles rebuilds the world whenever the obstacle file changes. A
// failed reload keeps the running roadmap.
func watchObstacles(cfg config.Config, p *planner.Planner, world *sim.World, server *handlers.Server) {
	info, err := os.Stat(cfg.ObstacleFile)
	if err != nil {
		log.Printf("⚠️  Not watching obstacles: %v\n", err)
		return
	}
	w, err := scene.NewWatcher(cfg.ObstacleFile, info.IsDir())
	if err != nil {
		log.Printf("⚠️  Not watching obstacles: %v\n", err)
		return
	}
	log.Printf("👀 Watching %s for changes\n", cfg.ObstacleFile)

	go func() {
		for {
			select {
			case name, ok := <-w.Events:
				if !ok {
					return
				}
				log.Printf("📂 %s changed, reloading obstacles\n", filepath.Base(name))

				obstacles := loadObstacles(cfg)
				pcfg := p.Context().Config()
				pcfg.Workspace = workspace(cfg, obstacles)
				pc, err := planner.NewContext(pcfg, obstacles)
				if err != nil {
					log.Printf("❌ %v\n", err)
					continue
				}
				stats, err := world.Rebuild(pc)
				if err != nil {
					log.Printf("❌ Rebuild failed, keeping previous roadmap: %v\n", err)
					continue
				}
				server.RecordBuild(stats)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Printf("⚠️  Watcher error: %v\n", err)
			}
		}
	}()
}
