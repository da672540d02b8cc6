package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/tradedesk/tradedesk/internal/domain"
	"github.com/tradedesk/tradedesk/internal/engine"
	"github.com/tradedesk/tradedesk/internal/events"
	"github.com/tradedesk/tradedesk/internal/gateway/binance"
	"github.com/tradedesk/tradedesk/internal/gateway/paper"
	"github.com/tradedesk/tradedesk/internal/tui"
	"github.com/tradedesk/tradedesk/internal/web"
	"github.com/tradedesk/tradedesk/pkg/config"
	"github.com/tradedesk/tradedesk/pkg/logger"
	"github.com/tradedesk/tradedesk/pkg/secretstore"
	"github.com/tradedesk/tradedesk/pkg/settings"
	"github.com/tradedesk/tradedesk/pkg/shutdown"
)

func main() {
	configPath := flag.String("config", "tradedesk.yaml", "path to the YAML config file")
	headless := flag.Bool("headless", false, "run without the terminal UI")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := logger.Init(logger.Config{
		Level:      cfg.LogLevel,
		OutputFile: cfg.LogFile,
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     7,
		Compress:   true,
	}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := run(cfg, *headless); err != nil {
		logger.Errorf("tradedesk: %v", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, headless bool) error {
	bus := events.New(time.Second)
	bus.Start()

	var secrets *secretstore.Store
	if key, err := secretstore.ParseKey(os.Getenv("TRADEDESK_SECRET_KEY")); err != nil {
		logger.Warnf("secret key ignored: %v", err)
	} else {
		store, err := secretstore.Open(secretstore.OpenOptions{
			Path:          cfg.SecretsDir,
			EncryptionKey: key,
		})
		if err != nil {
			logger.Warnf("secret store unavailable: %v", err)
		} else {
			secrets = store
		}
	}

	svc := settings.NewJSONFileService(cfg.DataDir)
	e := engine.New(bus, svc, secrets)

	teardown := shutdown.NewManager()
	teardown.OnShutdown(func(context.Context) { e.Close() })
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		teardown.Shutdown(ctx)
	}()

	e.AddGateway(paper.New(bus))
	e.AddGateway(binance.New(bus))

	// Mirror warnings and errors from the application log into the log
	// monitor so they show up on screen.
	logger.AddHook(engine.NewLogHook(bus))

	if cfg.Paper.Enabled {
		form := map[string]string{
			"Symbols": joinSymbols(cfg.Paper.Symbols),
			"Balance": fmt.Sprintf("%g", cfg.Paper.Balance),
		}
		if err := e.Connect("PAPER", form); err != nil {
			logger.Warnf("paper gateway: %v", err)
		} else {
			for _, symbol := range cfg.Paper.Symbols {
				req := domain.SubscribeRequest{Symbol: symbol, Exchange: domain.ExchangePaper}
				if err := e.Subscribe(req, "PAPER"); err != nil {
					logger.Warnf("paper subscribe %s: %v", symbol, err)
				}
			}
		}
	}
	if cfg.Binance.Enabled {
		form := e.LoadConnectForm("BINANCE")
		if form == nil {
			form = map[string]string{}
		}
		if cfg.Binance.Proxy != "" {
			form["Proxy"] = cfg.Binance.Proxy
		}
		if err := e.Connect("BINANCE", form); err != nil {
			logger.Warnf("binance gateway: %v", err)
		}
	}

	if cfg.Web.Enabled {
		webServer := web.New(e, cfg.Web.Addr)
		webServer.Start()
		teardown.OnShutdown(func(context.Context) { webServer.Stop() })
	}

	if headless || !term.IsTerminal(int(os.Stdout.Fd())) {
		logger.Info("running headless, ctrl+c to stop")
		waitForSignal()
		return nil
	}

	app := tui.NewApp(e, svc, filepath.Join(cfg.DataDir, "export"))
	return app.Run()
}

func waitForSignal() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	<-ch
}

func joinSymbols(symbols []string) string {
	out := ""
	for i, s := range symbols {
		if i > 0 {
			out += ","
		}
		out += s
	}
	return out
}
