package command

import (
	"fmt"

	"github.com/spf13/cobra"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// healthCmd probes the peer's standard gRPC health service
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check whether the peer is serving",
	RunE: func(cmd *cobra.Command, args []string) error {
		service, _ := cmd.Flags().GetString("service")
		if host, _ := cmd.Flags().GetString("host"); host != "" {
			cfg.Host = host
		}
		if cmd.Flags().Changed("port") {
			cfg.Port, _ = cmd.Flags().GetInt("port")
		}

		host, port, err := resolvePeer(cfg)
		if err != nil {
			return err
		}

		conn, err := newConnector(cfg).Dial(cmd.Context(), host, port)
		if err != nil {
			return err
		}
		defer conn.Close()

		status, err := conn.Health(cmd.Context(), service)
		if err != nil {
			return fmt.Errorf("health check %s: %w", conn.Target(), err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", conn.Target(), status)
		if status != healthpb.HealthCheckResponse_SERVING {
			return fmt.Errorf("peer is %s", status)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
	healthCmd.Flags().String("service", "", "service name to check (empty = whole server)")
	healthCmd.Flags().String("host", "", "peer host (default from config)")
	healthCmd.Flags().Int("port", 50051, "peer port")
}
