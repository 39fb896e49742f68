package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/AmonBrollo/FlashLingo/internal/config"
	"github.com/AmonBrollo/FlashLingo/internal/logger"
)

func main() {
	app := &cli.App{
		Name:  "flashlingo-cache",
		Usage: "Offline asset cache front for the FlashLingo web build",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Value:   "info",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "YAML config file",
				EnvVars: []string{"FLASHLINGO_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "store",
				Value:   config.DefaultStore,
				Usage:   "Cache store (memory, sqlite, postgres)",
				EnvVars: []string{"CACHE_STORE"},
			},
			&cli.StringFlag{
				Name:    "database-url",
				Aliases: []string{"d"},
				Value:   config.DefaultDatabaseURL,
				Usage:   "PostgreSQL database URL for the postgres store",
				EnvVars: []string{"DATABASE_URL"},
			},
			&cli.StringFlag{
				Name:    "sqlite-path",
				Value:   config.DefaultSQLitePath,
				Usage:   "Database file for the sqlite store",
				EnvVars: []string{"SQLITE_PATH"},
			},
		},
		Before: func(c *cli.Context) error {
			logger.Setup(logger.ParseLevel(c.String("log-level")))
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Start the cache front",
				Flags:  append(buildFlags(), serveFlags()...),
				Action: runServe,
			},
			{
				Name:   "upgrade",
				Usage:  "Install and activate the build's manifest against the store",
				Flags:  buildFlags(),
				Action: runUpgrade,
			},
			{
				Name:   "prefetch",
				Usage:  "Download every manifest resource missing from the store",
				Flags:  buildFlags(),
				Action: runPrefetch,
			},
			{
				Name:   "status",
				Usage:  "Print the worker caches and their sizes",
				Action: runStatus,
			},
			{
				Name:   "purge",
				Usage:  "Delete every worker cache",
				Action: runPurge,
			},
		},
		Action: runServe,
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

// buildFlags locate the web build and its upstream.
func buildFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "origin",
			Usage:   "Public origin clients load the app from",
			EnvVars: []string{"ORIGIN"},
		},
		&cli.StringFlag{
			Name:    "upstream",
			Usage:   "Static host serving the web build",
			EnvVars: []string{"UPSTREAM_URL"},
		},
		&cli.StringFlag{
			Name:    "manifest",
			Aliases: []string{"m"},
			Usage:   "Manifest JSON or generated worker script",
			EnvVars: []string{"MANIFEST_PATH"},
		},
		&cli.StringSliceFlag{
			Name:    "core-shell",
			Usage:   "Core shell entries, overriding the build's list",
			EnvVars: []string{"CORE_SHELL"},
		},
		&cli.IntFlag{
			Name:    "prefetch-concurrency",
			Usage:   "Parallel fetches during offline download",
			EnvVars: []string{"PREFETCH_CONCURRENCY"},
		},
		&cli.DurationFlag{
			Name:    "upstream-timeout",
			Value:   config.DefaultUpstreamTimeout,
			Usage:   "Timeout of a single upstream request",
			EnvVars: []string{"UPSTREAM_TIMEOUT"},
		},
	}
}

func serveFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "port",
			Aliases: []string{"p"},
			Value:   config.DefaultPort,
			Usage:   "HTTP server port",
			EnvVars: []string{"PORT"},
		},
		&cli.StringFlag{
			Name:    "control-token",
			Usage:   "Bearer token for control messages; empty disables them",
			EnvVars: []string{"CONTROL_TOKEN"},
		},
		&cli.BoolFlag{
			Name:    "hold-activation",
			Usage:   "Keep a reloaded build waiting until a skipWaiting message",
			EnvVars: []string{"HOLD_ACTIVATION"},
		},
	}
}

var storeFlagNames = []string{"store", "database-url", "sqlite-path"}

var buildFlagNames = []string{"origin", "upstream", "manifest", "prefetch-concurrency", "upstream-timeout", "port", "control-token", "hold-activation"}

// overrides collects the flags set on the command line or environment,
// keyed by config name, so they win over the config file.
func overrides(c *cli.Context, names ...string) map[string]any {
	out := make(map[string]any)
	for _, name := range names {
		if !c.IsSet(name) {
			continue
		}
		key := strings.ReplaceAll(name, "-", "_")
		switch name {
		case "prefetch-concurrency":
			out[key] = c.Int(name)
		case "upstream-timeout":
			out[key] = c.Duration(name)
		case "hold-activation":
			out[key] = c.Bool(name)
		default:
			out[key] = c.String(name)
		}
	}
	if c.IsSet("core-shell") {
		out["core_shell"] = c.StringSlice("core-shell")
	}
	return out
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	names := append(append([]string(nil), storeFlagNames...), buildFlagNames...)
	return config.Load(c.String("config"), overrides(c, names...))
}

func loadStoreConfig(c *cli.Context) (*config.StoreConfig, error) {
	return config.LoadStore(c.String("config"), overrides(c, storeFlagNames...))
}
