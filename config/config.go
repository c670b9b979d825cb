package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/paulmach/orb"
	"gopkg.in/yaml.v3"

	"roadmap-planner/planner"
	"roadmap-planner/sim"
)

// WorkspaceSpec is the sampling area as written in the config file
type WorkspaceSpec struct {
	Min [2]float64 `yaml:"min"`
	Max [2]float64 `yaml:"max"`
}

// Bound converts the spec
func (w WorkspaceSpec) Bound() orb.Bound {
	return orb.Bound{Min: orb.Point{w.Min[0], w.Min[1]}, Max: orb.Point{w.Max[0], w.Max[1]}}
}

type ServerConfig struct {
	Addr         string `yaml:"addr"`
	AllowOrigins string `yaml:"allow_origins"`
}

type SimConfig struct {
	TickRate  time.Duration   `yaml:"tick_rate"`
	Seed      int64           `yaml:"seed"`
	Autostart bool            `yaml:"autostart"`
	Agents    []sim.AgentSpec `yaml:"agents"`
}

type StoreConfig struct {
	Driver        string        `yaml:"driver"` // "sqlite", "mysql" or "" for no persistence
	DSN           string        `yaml:"dsn"`
	FlushSize     int           `yaml:"flush_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
}

// Config is the full service configuration
type Config struct {
	Planner           planner.Config `yaml:"planner"`
	Workspace         *WorkspaceSpec `yaml:"workspace"`
	ObstacleFile      string         `yaml:"obstacle_file"`
	WatchObstacles    bool           `yaml:"watch_obstacles"`
	SimplifyObstacles bool           `yaml:"simplify_obstacles"`
	DumpFile          string         `yaml:"dump_file"`
	Server            ServerConfig   `yaml:"server"`
	Sim               SimConfig      `yaml:"sim"`
	Store             StoreConfig    `yaml:"store"`
}

// Default returns the configuration used when nothing is overridden
func Default() Config {
	return Config{
		Planner:      planner.DefaultConfig(),
		ObstacleFile: "obstacles.csv",
		Server: ServerConfig{
			Addr:         ":3000",
			AllowOrigins: "http://localhost:5173, http://localhost:3000",
		},
		Sim: SimConfig{
			TickRate: time.Second / 30,
			Agents:   sim.DefaultAgents(),
		},
		Store: StoreConfig{
			FlushSize:     50,
			FlushInterval: 10 * time.Second,
		},
	}
}

// Load builds the configuration from defaults, then the YAML file at path
// (if it exists), then the environment. Variables already set in the process
// environment win over those in the .env files; with no envFiles ".env" is
// read.
func Load(path string, envFiles ...string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			log.Printf("⚠️  Config file %s not found, using defaults\n", path)
		case err != nil:
			return cfg, fmt.Errorf("config: load %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("config: unmarshal %s: %w", path, err)
			}
		}
	}

	dotenv, err := godotenv.Read(envFiles...)
	if err != nil {
		log.Println("⚠️  .env file not found")
		dotenv = map[string]string{}
	}
	lookup := func(key string) string {
		if v, ok := os.LookupEnv(key); ok {
			return v
		}
		return dotenv[key]
	}
	if err := applyEnv(&cfg, lookup); err != nil {
		return cfg, err
	}

	if cfg.Workspace != nil {
		cfg.Planner.Workspace = cfg.Workspace.Bound()
	}
	if err := cfg.Planner.Validate(); err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// applyEnv overrides settings from environment variables
func applyEnv(cfg *Config, lookup func(string) string) error {
	ints := map[string]*int{
		"PRM_SAMPLES": &cfg.Planner.SampleCount,
		"PRM_K":       &cfg.Planner.ConnectionK,
	}
	for key, dst := range ints {
		if v := lookup(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("config: %s: %w", key, err)
			}
			*dst = n
		}
	}

	floats := map[string]*float64{
		"PRM_RADIUS":           &cfg.Planner.ConnectionRadius,
		"PRM_CLUSTER_DISTANCE": &cfg.Planner.MinClusterDistance,
		"PRM_ROBOT_RADIUS":     &cfg.Planner.RobotRadius,
	}
	for key, dst := range floats {
		if v := lookup(key); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("config: %s: %w", key, err)
			}
			*dst = f
		}
	}

	if v := lookup("PRM_POLICY"); v != "" {
		cfg.Planner.Policy = planner.ConnectionPolicy(v)
	}
	if v := lookup("PRM_SEED"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("config: PRM_SEED: %w", err)
		}
		cfg.Sim.Seed = seed
	}
	if v := lookup("SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := lookup("OBSTACLE_FILE"); v != "" {
		cfg.ObstacleFile = v
	}
	if v := lookup("DB_DRIVER"); v != "" {
		cfg.Store.Driver = v
	}
	if v := lookup("DB_DSN"); v != "" {
		cfg.Store.DSN = v
	}
	if cfg.Store.Driver == "mysql" && cfg.Store.DSN == "" {
		dsn, err := mysqlDSN(lookup)
		if err != nil {
			return err
		}
		cfg.Store.DSN = dsn
	}
	return nil
}

// mysqlDSN assembles a DSN from the MYSQL_* variables
func mysqlDSN(lookup func(string) string) (string, error) {
	host := lookup("MYSQL_HOST")
	user := lookup("MYSQL_USER")
	password := lookup("MYSQL_PASSWORD")
	dbname := lookup("MYSQL_DATABASE")

	if host == "" || user == "" || password == "" || dbname == "" {
		return "", fmt.Errorf("config: MySQL requires MYSQL_HOST, MYSQL_USER, MYSQL_PASSWORD and MYSQL_DATABASE")
	}

	port, err := strconv.Atoi(lookup("MYSQL_PORT"))
	if err != nil || port == 0 {
		port = 3306
	}

	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		user, password, host, port, dbname), nil
}
