package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/johnqh/heavymath/config"
	"github.com/johnqh/heavymath/internal/adapters/notify"
	"github.com/johnqh/heavymath/internal/adapters/oracle"
	"github.com/johnqh/heavymath/internal/adapters/storage"
	"github.com/johnqh/heavymath/internal/domain"
	"github.com/johnqh/heavymath/internal/engine"
	"github.com/johnqh/heavymath/internal/ports"
	"github.com/olekukonko/tablewriter"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	demo := flag.Bool("demo", false, "run a scripted market end to end and exit")
	list := flag.Bool("list", false, "print stored pools and exit")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	slog.Info("poold starting",
		"config", *configPath,
		"system_account", cfg.Engine.SystemAccount,
		"abandon_grace", cfg.AbandonGrace(),
		"demo", *demo,
	)

	store, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
	if err != nil {
		slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer store.Close()

	ctx := context.Background()

	if *list {
		printPools(ctx, store)
		return
	}

	if *demo {
		runDemo(ctx, cfg, store)
		return
	}

	// Sin -demo ni -list no hay loop que correr: el engine es una
	// librería embebible, no un servidor.
	fmt.Fprintln(os.Stderr, "nothing to do: pass -demo or -list")
	os.Exit(2)
}

// feedFor elige el oráculo según la configuración: HTTP si hay base URL,
// en memoria para demo/tests.
func feedFor(cfg *config.Config) ports.Oracle {
	if cfg.Oracle.BaseURL != "" {
		return oracle.NewHTTPFeed(cfg.Oracle.BaseURL)
	}
	return oracle.NewMemory()
}

// printPools lista los pools de los últimos 30 días.
func printPools(ctx context.Context, store *storage.SQLiteStorage) {
	to := time.Now().UTC()
	from := to.Add(-30 * 24 * time.Hour)

	pools, err := store.ListPools(ctx, from, to)
	if err != nil {
		slog.Error("list pools failed", "err", err)
		os.Exit(1)
	}
	if len(pools) == 0 {
		fmt.Println("no pools in the last 30 days")
		return
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Pool", "Category", "Status", "Deadline", "Fee bps", "Total", "Eq", "Res")
	for _, p := range pools {
		eq, res := "-", "-"
		if p.Status == domain.StatusResolved {
			eq = fmt.Sprintf("%d", p.Equilibrium)
			res = fmt.Sprintf("%d", p.Resolution)
		}
		table.Append(
			p.ID[:8],
			p.Category+"/"+p.SubCategory,
			string(p.Status),
			p.Deadline.Format("2006-01-02 15:04"),
			fmt.Sprintf("%d", p.FeeBps),
			p.Total.String(),
			eq,
			res,
		)
	}
	table.Render()
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// newEngine cablea el engine con los adaptadores estándar del binario.
func newEngine(cfg *config.Config, store *storage.SQLiteStorage, perm ports.Permission, tokens ports.TokenLedger, orc ports.Oracle, now func() time.Time) *engine.Engine {
	engCfg := engine.Config{
		SystemAccount: cfg.Engine.SystemAccount,
		AbandonGrace:  cfg.AbandonGrace(),
		Now:           now,
	}
	return engine.New(engCfg, perm, orc, tokens, store, notify.NewConsole())
}
