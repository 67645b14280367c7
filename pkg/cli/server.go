package cli

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"github.com/mchmarny/scoring/pkg/api"
	"github.com/mchmarny/scoring/pkg/flash"
	"github.com/mchmarny/scoring/pkg/logging"
	"github.com/mchmarny/scoring/pkg/metrics"
	snet "github.com/mchmarny/scoring/pkg/net"
	urfave "github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

const (
	serverShutdownWaitSeconds = 5
	serverTimeoutSeconds      = 60
	serverMaxHeaderBytes      = 20
)

var (
	//go:embed assets/* templates/*
	embedFS embed.FS

	portFlag = &urfave.IntFlag{
		Name:    "port",
		Usage:   "Port on which the server will listen (default: 8080)",
		Sources: urfave.EnvVars(envPrefix + "PORT"),
	}

	addressFlag = &urfave.StringFlag{
		Name:    "address",
		Usage:   "Address on which the server will listen (default: 127.0.0.1)",
		Sources: urfave.EnvVars(envPrefix + "ADDRESS"),
	}

	noBrowserFlag = &urfave.BoolFlag{
		Name:    "no-browser",
		Aliases: []string{"nb"},
		Usage:   "Do not open browser automatically",
	}

	serverCmd = &urfave.Command{
		Name:    "server",
		Aliases: []string{"serve"},
		Usage:   "Start the web front end",
		Action:  cmdStartServer,
		Flags: []urfave.Flag{
			portFlag,
			addressFlag,
			noBrowserFlag,
		},
	}
)

func cmdStartServer(ctx context.Context, cmd *urfave.Command) error {
	cfg := getConfig(cmd)
	if cmd.IsSet(portFlag.Name) {
		cfg.Server.Port = cmd.Int(portFlag.Name)
	}
	if cmd.IsSet(addressFlag.Name) {
		cfg.Server.Address = cmd.String(addressFlag.Name)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	client, err := api.NewClient(cfg.API.URL,
		api.WithHTTPClient(snet.GetHTTPClient(cfg.API.Timeout, appName+"/"+version)))
	if err != nil {
		return fmt.Errorf("creating scoring service client: %w", err)
	}

	results := flash.New[*api.Prediction](cfg.Server.PageInputTTL)
	metrics.TrackPendingInputs(results.Len)

	v, err := newViews(client, cfg.Fields, results, cfg.API.ReportTimeout)
	if err != nil {
		return fmt.Errorf("creating views: %w", err)
	}

	address := net.JoinHostPort(cfg.Server.Address, strconv.Itoa(cfg.Server.Port))
	s := &http.Server{
		Addr:           address,
		Handler:        logging.Middleware(makeRouter(v)),
		ReadTimeout:    serverTimeoutSeconds * time.Second,
		WriteTimeout:   serverTimeoutSeconds * time.Second,
		MaxHeaderBytes: 1 << serverMaxHeaderBytes,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("starting server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), serverShutdownWaitSeconds*time.Second)
		defer cancel()
		if err := s.Shutdown(sctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("shutting down server: %w", err)
		}
		slog.Info("server stopped")
		return nil
	})

	url := fmt.Sprintf("http://%s", address)
	slog.Info("server started", "address", url, "api", client.BaseURL())

	if !cmd.Bool(noBrowserFlag.Name) {
		openBrowser(url)
	}

	return g.Wait()
}

func makeRouter(v *views) *http.ServeMux {
	mux := http.NewServeMux()

	// Static files
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(embedFS)))
	mux.HandleFunc("GET /favicon.ico", faviconHandler)

	// Views
	mux.HandleFunc("GET /{$}", v.homeViewHandler)
	mux.HandleFunc("GET /consent", v.consentViewHandler)
	mux.HandleFunc("POST /consent", v.consentSubmitHandler)
	mux.HandleFunc("GET /application", v.applicationViewHandler)
	mux.HandleFunc("POST /application", v.applicationSubmitHandler)
	mux.HandleFunc("GET /results", v.resultsViewHandler)
	mux.HandleFunc("GET /report", v.reportViewHandler)
	mux.HandleFunc("GET /feedback", v.feedbackViewHandler)
	mux.HandleFunc("POST /feedback", v.feedbackSubmitHandler)

	// Ops
	mux.HandleFunc("GET /healthz", healthHandler)
	mux.Handle("GET /metrics", metrics.Handler())

	return mux
}

func openBrowser(url string) {
	var cmd string
	args := make([]string, 0, 1)

	switch runtime.GOOS {
	case "darwin":
		cmd = "open"
	case "linux":
		cmd = "xdg-open"
	default: // windows
		cmd = "rundll32"
		args = []string{"url.dll,FileProtocolHandler"}
	}

	args = append(args, url)
	if err := exec.Command(cmd, args...).Start(); err != nil {
		slog.Error("failed to open browser", "error", err)
	}
}
