package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ctiport/bcauth/internal/audit"
	"github.com/ctiport/bcauth/internal/authen"
	"github.com/ctiport/bcauth/internal/config"
	"github.com/ctiport/bcauth/internal/fabric"
	"github.com/ctiport/bcauth/internal/server"
)

var serveListen string

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "Listen address (overrides config)")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the authorization gateway",
	Long:  "Runs the HTTP surface of the grant flow. Every ledger call goes through\nthe serialized peer CLI bridge; credential file changes hot-reload.",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if serveListen != "" {
		cfg.Listen = serveListen
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	var auditLog *audit.Log
	if cfg.AuditLog != "" {
		auditLog, err = audit.Open(cfg.AuditLog)
		if err != nil {
			return fmt.Errorf("failed to open audit log: %w", err)
		}
		defer auditLog.Close()
	}

	creds, err := authen.NewStore(cfg.CredentialFile, logger)
	if err != nil {
		return fmt.Errorf("failed to load credential store: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	watcher, err := authen.NewWatcher(creds, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: credential hot-reload disabled: %v\n", err)
	} else {
		go watcher.Run(ctx)
	}

	bridge := fabric.NewBridge(cfg.Bridge.Cooldown(), cfg.Bridge.Timeout())
	ledger := fabric.NewLedger(cfg.Fabric, bridge, logger, auditLog)
	srv := server.New(ledger, creds, cfg.UMA, logger)

	httpSrv := &http.Server{
		Addr:    cfg.Listen,
		Handler: srv.Router(),
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nShutting down gateway...")
		cancel()
		shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
		defer done()
		httpSrv.Shutdown(shutdownCtx)
	}()

	logger.Info("gateway listening", "addr", cfg.Listen, "channel", cfg.Fabric.Channel)
	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
