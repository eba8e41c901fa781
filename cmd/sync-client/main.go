// Command sync-client tails the catalog change stream from the TCP sync
// server and prints each event.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"storefront/pkg/logger"
)

type AnyEvent map[string]any

func main() {
	var (
		addr   string
		pretty bool
		only   string
	)

	cmd := &cobra.Command{
		Use:          "sync-client",
		Short:        "Print catalog change events from the TCP sync server",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log := logger.Must(logger.Config{Level: "info", OutputPaths: []string{"stderr"}})
			defer func() { _ = log.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			for {
				err := tail(ctx, addr, cmd.OutOrStdout(), pretty, only, log)
				if ctx.Err() != nil {
					return nil
				}
				log.Warn("disconnected", zap.String("addr", addr), zap.Error(err))

				// auto reconnect
				select {
				case <-ctx.Done():
					return nil
				case <-time.After(time.Second):
				}
			}
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:7070", "TCP sync server address")
	cmd.Flags().BoolVar(&pretty, "pretty", true, "pretty print JSON events")
	cmd.Flags().StringVar(&only, "type", "", "only print events of this type, e.g. catalog.item_updated")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func tail(ctx context.Context, addr string, out io.Writer, pretty bool, only string, log *zap.Logger) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	log.Info("connected", zap.String("addr", addr))

	sc := bufio.NewScanner(conn)
	for sc.Scan() {
		if err := printLine(out, sc.Bytes(), pretty, only); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}
	return io.EOF
}

func printLine(out io.Writer, line []byte, pretty bool, only string) error {
	var obj AnyEvent
	if err := json.Unmarshal(line, &obj); err != nil {
		// not JSON? print raw
		_, err := fmt.Fprintln(out, string(line))
		return err
	}
	if only != "" && obj["type"] != only {
		return nil
	}
	if !pretty {
		_, err := fmt.Fprintln(out, string(line))
		return err
	}
	b, _ := json.MarshalIndent(obj, "", "  ")
	_, err := fmt.Fprintln(out, string(b))
	return err
}
