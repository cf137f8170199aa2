package command

import (
	"fmt"
	"time"

	"dcf/endpoint"
	"dcf/message"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// sendCmd sends one or more messages to the peer and prints the replies
var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send messages to the peer",
	Long: `Connect to the peer once and send --count messages carrying --data,
optionally paced to --rate messages per second. Each reply payload is printed
on its own line.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, _ := cmd.Flags().GetString("data")
		count, _ := cmd.Flags().GetInt("count")
		perSecond, _ := cmd.Flags().GetFloat64("rate")
		recipient, _ := cmd.Flags().GetString("recipient")
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

		ctx := cmd.Context()
		e := endpoint.New(ctx, newConnector(cfg), host, port, endpoint.Role(cfg.Mode))
		defer e.Close()
		if !e.Connected() {
			logger.Warn("peer unreachable", zap.String("host", host), zap.Uint16("port", port), zap.Error(e.ConnectErr()))
		}

		limit := rate.Inf
		if perSecond > 0 {
			limit = rate.Limit(perSecond)
		}
		limiter := rate.NewLimiter(limit, 1)

		for i := 0; i < count; i++ {
			if err := limiter.Wait(ctx); err != nil {
				return err
			}
			msg := &message.Message{
				Data:      data,
				Sender:    cfg.NodeID,
				Recipient: recipient,
				Timestamp: time.Now().UnixMilli(),
				Sequence:  uint32(i + 1),
			}
			reply, err := e.Send(ctx, msg)
			if err != nil {
				return fmt.Errorf("message %d: %w", i+1, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), reply.Data)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().String("data", "", "message payload")
	sendCmd.Flags().Int("count", 1, "number of messages to send")
	sendCmd.Flags().Float64("rate", 0, "messages per second (0 = unlimited)")
	sendCmd.Flags().String("recipient", "", "recipient node id")
	sendCmd.Flags().String("host", "", "peer host (default from config)")
	sendCmd.Flags().Int("port", 50051, "peer port")
	sendCmd.MarkFlagRequired("data")
}
