package main

import (
	"bufio"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hunterwarburton/walletproxy/internal/config"
	"github.com/hunterwarburton/walletproxy/internal/directory"
	"github.com/hunterwarburton/walletproxy/internal/intercept"
	"github.com/hunterwarburton/walletproxy/internal/logger"
	"github.com/hunterwarburton/walletproxy/internal/portfolio"
	"github.com/hunterwarburton/walletproxy/internal/proxy"
	"github.com/hunterwarburton/walletproxy/internal/routing"
	"github.com/hunterwarburton/walletproxy/internal/rpcproxy"
	"github.com/hunterwarburton/walletproxy/internal/solana"
	"github.com/hunterwarburton/walletproxy/internal/tokenlist"
	"github.com/urfave/cli/v2"
)

const shutdownTimeout = 10 * time.Second

var serveFlags = []cli.Flag{
	&cli.StringFlag{Name: "listen", Aliases: []string{"l"}, Usage: "Proxy listen address (default " + config.DefaultListenAddr + ")"},
	&cli.StringFlag{Name: "rpc", Aliases: []string{"r"}, Usage: "Upstream Solana RPC URL"},
	&cli.StringFlag{Name: "token-list", Aliases: []string{"t"}, Usage: "Token metadata directory JSON file"},
	&cli.StringFlag{Name: "private-key", Aliases: []string{"k"}, Usage: "CA private key (PEM)"},
	&cli.StringFlag{Name: "cert", Aliases: []string{"c"}, Usage: "CA certificate (PEM)"},
	&cli.StringFlag{Name: "routes", Usage: "Routes YAML file"},
	&cli.BoolFlag{Name: "debug", Aliases: []string{"D"}, Usage: "Enable debug logging"},
	&cli.BoolFlag{Name: "verbose", Usage: "Log every proxied request"},
}

func main() {
	app := &cli.App{
		Name:  "walletproxy",
		Usage: "Intercepting proxy that serves wallet data from your own Solana RPC node",
		Flags: serveFlags,
		Action: func(c *cli.Context) error {
			return serve(c)
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the proxy",
				Flags:  serveFlags,
				Action: serve,
			},
			{
				Name:  "directory",
				Usage: "Manage the token metadata directory",
				Subcommands: []*cli.Command{
					{
						Name:  "build",
						Usage: "Build a directory file from on-chain Metaplex metadata",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "rpc", Aliases: []string{"r"}, Usage: "Solana RPC URL", EnvVars: []string{"WALLETPROXY_RPC_URL"}},
							&cli.StringSliceFlag{Name: "mint", Aliases: []string{"m"}, Usage: "Mint address (repeatable)"},
							&cli.StringFlag{Name: "mints-file", Usage: "File with one mint address per line"},
							&cli.StringFlag{Name: "from", Usage: "Existing directory file whose mints are refreshed"},
							&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Output file (default stdout)"},
							&cli.IntFlag{Name: "concurrency", Value: 4, Usage: "Concurrent metadata lookups"},
							&cli.BoolFlag{Name: "debug", Aliases: []string{"D"}, Usage: "Enable debug logging"},
						},
						Action: buildDirectory,
					},
				},
			},
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal(err)
	}
}

func loadServeConfig(c *cli.Context) (*config.Config, error) {
	// Load configuration from environment variables
	cfg := config.LoadConfig()

	// Override with flags if set
	if c.IsSet("listen") {
		cfg.ListenAddr = c.String("listen")
	}
	if c.IsSet("rpc") {
		cfg.RPCURL = c.String("rpc")
	}
	if c.IsSet("token-list") {
		cfg.TokenListPath = c.String("token-list")
	}
	if c.IsSet("private-key") {
		cfg.PrivateKeyPath = c.String("private-key")
	}
	if c.IsSet("cert") {
		cfg.CACertPath = c.String("cert")
	}
	if c.IsSet("routes") {
		cfg.RoutesPath = c.String("routes")
	}
	if c.IsSet("debug") {
		cfg.Debug = c.Bool("debug")
	}
	if c.IsSet("verbose") {
		cfg.Verbose = c.Bool("verbose")
	}

	if err := cfg.LoadRoutes(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func serve(c *cli.Context) error {
	cfg, err := loadServeConfig(c)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Debug); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	if logger.IsDebugEnabled() {
		logger.Debug("Configuration loaded: Listen=%s, RPCURL=%s, TokenList=%s, Routes=%s, CA=%v",
			cfg.ListenAddr, cfg.RPCURL, cfg.TokenListPath, cfg.RoutesPath, cfg.HasCA())
	}

	dir, err := directory.Load(cfg.TokenListPath)
	if err != nil {
		return fmt.Errorf("failed to load token list: %w", err)
	}

	var ca *tls.Certificate
	if cfg.HasCA() {
		ca, err = proxy.LoadCA(cfg.PrivateKeyPath, cfg.CACertPath)
		if err != nil {
			return err
		}
	}

	forwarder, err := rpcproxy.New(cfg.RPCURL)
	if err != nil {
		return err
	}
	logger.Info("Forwarding RPC traffic to %s", forwarder.Endpoint())
	logger.Info("Routes: %s", routeSummary(cfg.Routes))

	// Initialize services
	logger.Info("Initializing services...")
	handler := intercept.NewHandler(intercept.Deps{
		Classifier:  routing.NewClassifier(cfg.Routes),
		Forwarder:   forwarder,
		Synthesizer: portfolio.NewSynthesizer(solana.NewClient(cfg.RPCURL), dir),
		Resolver:    tokenlist.NewResolver(dir),
	})
	server := proxy.NewServer(cfg.ListenAddr, ca, handler, cfg.Verbose)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	// Set up graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("Received %s", sig)
	}

	// Create a context with timeout for shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

func buildDirectory(c *cli.Context) error {
	if err := logger.Init(c.Bool("debug")); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	mints := c.StringSlice("mint")
	if path := c.String("mints-file"); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open mints file: %w", err)
		}
		fromFile, err := readMints(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("failed to read mints file: %w", err)
		}
		mints = append(mints, fromFile...)
	}
	if path := c.String("from"); path != "" {
		existing, err := directory.Load(path)
		if err != nil {
			return err
		}
		mints = append(mints, existing.Mints()...)
	}
	if len(mints) == 0 {
		return fmt.Errorf("no mints given, use --mint, --mints-file or --from")
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := solana.NewClient(c.String("rpc"))
	entries, errs := client.BuildDirectory(ctx, mints, c.Int("concurrency"))
	for _, err := range errs {
		logger.Warn("%v", err)
	}
	logger.Info("Resolved metadata for %d of %d mints", len(entries), len(mints))

	var out io.Writer = os.Stdout
	if path := c.String("out"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}
	return directory.Write(out, entries)
}

// routeSummary lists the patterns owned by each handler, in match order.
func routeSummary(t routing.Table) string {
	rpc := make([]string, 0, len(t.RPC))
	for _, p := range t.RPC {
		rpc = append(rpc, p.String())
	}
	return fmt.Sprintf("rpc=[%s] portfolio=%s token-list=%s",
		strings.Join(rpc, " "), t.Portfolio.String(), t.TokenList.String())
}

// readMints reads one mint address per line. Blank lines and lines starting
// with # are ignored.
func readMints(r io.Reader) ([]string, error) {
	var mints []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		mints = append(mints, line)
	}
	return mints, scanner.Err()
}
