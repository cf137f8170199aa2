package command

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"dcf/endpoint"
	"dcf/middleware"
	"dcf/registry"
	"dcf/server"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	shutdownTimeout = 5 * time.Second
	leaseTTL        = 10 // seconds, renewed by etcd keepalive
)

var advertiseAddr string

// serveCmd answers SendMessage requests with the echo responder
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Answer messages from peers",
	Long: `Bind the configured address and answer every inbound message with
"Echo: <payload>" until interrupted. With etcd_endpoints and --advertise the
server registers itself so that clients can discover it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if bind, _ := cmd.Flags().GetString("bind"); bind != "" {
			cfg.Bind = bind
		}

		svr := server.NewServer(endpoint.Echo{}, server.WithLogger(logger))
		svr.Use(middleware.LoggingMiddleware(logger))

		if advertiseAddr != "" && len(cfg.EtcdEndpoints) > 0 {
			reg, err := registry.NewEtcdRegistry(cfg.EtcdEndpoints)
			if err != nil {
				return err
			}
			defer reg.Close()
			svr.Advertise(reg, cfg.Service, registry.Instance{
				Addr:   advertiseAddr,
				NodeID: cfg.NodeID,
				Role:   cfg.Mode,
				Weight: 1,
			}, leaseTTL)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		go func() {
			<-ctx.Done()
			if err := svr.Shutdown(shutdownTimeout); err != nil {
				logger.Warn("shutdown", zap.Error(err))
			}
		}()

		logger.Info("starting server",
			zap.String("bind", cfg.Bind),
			zap.String("node_id", cfg.NodeID),
			zap.String("mode", cfg.Mode),
		)
		return svr.ListenAndServe(cfg.Bind)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("bind", "", "listen address (default from config)")
	serveCmd.Flags().StringVar(&advertiseAddr, "advertise", "", "routable host:port to register in etcd")
}
