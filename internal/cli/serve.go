package cli

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tollgate-network/tollgate/internal/api"
	"github.com/tollgate-network/tollgate/internal/app/distributor"
	"github.com/tollgate-network/tollgate/internal/app/executor"
	"github.com/tollgate-network/tollgate/internal/app/gateway"
	"github.com/tollgate-network/tollgate/internal/app/verifier"
	"github.com/tollgate-network/tollgate/internal/daemon"
	"github.com/tollgate-network/tollgate/internal/domain"
	"github.com/tollgate-network/tollgate/internal/infra/bounty"
	"github.com/tollgate-network/tollgate/internal/infra/chain"
	"github.com/tollgate-network/tollgate/internal/infra/sqlite"
	"github.com/tollgate-network/tollgate/internal/infra/yield"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the tollgate daemon",
	Long:  `Start the gateway: load the config, open the settlement ledger, register the priced resources and serve the HTTP API until interrupted.`,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Operator.Address == "" {
		return fmt.Errorf("operator address is not configured; set [operator].address in %s", daemon.ConfigPath())
	}

	store, err := sqlite.Open(cfg.Ledger.Dir)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer store.Close()

	node := chain.NewClient(cfg.Chain.NodeURL, cfg.Chain.SenderKey,
		time.Duration(cfg.Chain.TimeoutSeconds)*time.Second)
	acct := yield.New(cfg.Yield.InitialBalance)

	exec := executor.New(executor.DefaultConfig())
	gw := gateway.New(gateway.Config{
		OperatorAddress:    cfg.Operator.Address,
		OperatorFeePercent: cfg.Operator.FeePercent,
	}, verifier.New(node, node, acct), distributor.New(node, store), store, exec)

	for _, res := range cfg.Resources {
		options := make([]domain.PriceOption, 0, len(res.Options))
		for _, opt := range res.Options {
			options = append(options, domain.PriceOption{AssetID: opt.AssetID, Amount: opt.Amount})
		}
		if err := gw.Register(gateway.Resource{
			Name:        res.Name,
			Description: res.Description,
			Options:     options,
			Recipients:  res.Recipients,
		}); err != nil {
			return fmt.Errorf("register resource %s: %w", res.Name, err)
		}
		exec.Register(res.Name, backendFor(res))
		log.Printf("resource %s registered (%d price options, %d recipients)",
			res.Name, len(res.Options), len(res.Recipients))
	}

	server := api.NewServer(gw, store, acct, bounty.NewBoard(), node)
	if cfg.API.MetricsEnabled {
		server.EnableMetrics()
	}

	httpServer := &http.Server{
		Addr:    cfg.ListenAddr(),
		Handler: server.Handler(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Printf("tollgate listening on http://%s", cfg.ListenAddr())
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	log.Println("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// backendFor picks the execution backend for a configured resource. An
// upstream URL forwards the input; otherwise the built-in echo backend
// serves demos and tests.
func backendFor(res daemon.ResourceConfig) executor.Backend {
	if res.Upstream != "" {
		return &executor.HTTPBackend{UpstreamURL: res.Upstream}
	}
	return executor.EchoBackend{}
}

func loadConfig(cmd *cobra.Command) (daemon.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = daemon.ConfigPath()
	}
	return daemon.Load(path)
}
