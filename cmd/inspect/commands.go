package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"
	"time"

	"dispatch/internal/application/factories/infrastructure"
	"dispatch/internal/config"
	"dispatch/internal/domain/shipment"
	"dispatch/internal/infrastructure/postgres"
	redisInfra "dispatch/internal/infrastructure/redis"

	"github.com/spf13/cobra"
)

type recordReader interface {
	FindByID(ctx context.Context, shipmentID string) (*shipment.Record, error)
	ListRecent(ctx context.Context, limit int) ([]*shipment.Record, error)
}

type snapshotReader interface {
	Get(ctx context.Context, shipmentID string) (string, bool, error)
}

type backends struct {
	records   recordReader
	snapshots snapshotReader
	close     func()
}

type opener func(ctx context.Context) (*backends, error)

func openBackends(ctx context.Context) (*backends, error) {
	cfg, err := config.New()
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	factory := infrastructure.NewFactory(cfg, logger)
	pool, err := factory.Postgres(ctx)
	if err != nil {
		factory.Close()
		return nil, err
	}
	redisClient, err := factory.Redis(ctx)
	if err != nil {
		factory.Close()
		return nil, err
	}

	return &backends{
		records:   postgres.NewShipmentRepository(pool),
		snapshots: redisInfra.NewSnapshotStore(redisClient, cfg.Snapshot.KeyPrefix, logger),
		close:     factory.Close,
	}, nil
}

func newRootCmd(open opener) *cobra.Command {
	var (
		output  string
		timeout time.Duration
	)

	root := &cobra.Command{
		Use:           "inspect",
		Short:         "Inspect reconciled shipments and cached request snapshots",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&output, "output", "o", "table", "Output format: table, json")
	root.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Backend timeout")

	withBackends := func(cmd *cobra.Command, fn func(ctx context.Context, b *backends) error) error {
		if output != "table" && output != "json" {
			return fmt.Errorf("unknown output format %q", output)
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		b, err := open(ctx)
		if err != nil {
			return fmt.Errorf("connect: %w", err)
		}
		if b.close != nil {
			defer b.close()
		}
		return fn(ctx, b)
	}

	getCmd := &cobra.Command{
		Use:   "get <shipmentId>",
		Short: "Show the reconciled record for a shipment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackends(cmd, func(ctx context.Context, b *backends) error {
				rec, err := b.records.FindByID(ctx, args[0])
				if err != nil {
					return err
				}
				if rec == nil {
					return fmt.Errorf("shipment %s not found", args[0])
				}
				return printRecords(cmd.OutOrStdout(), output, []*shipment.Record{rec})
			})
		},
	}

	var limit int
	recentCmd := &cobra.Command{
		Use:   "recent",
		Short: "List the most recently received records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit < 1 {
				return fmt.Errorf("limit must be positive")
			}
			return withBackends(cmd, func(ctx context.Context, b *backends) error {
				recs, err := b.records.ListRecent(ctx, limit)
				if err != nil {
					return err
				}
				return printRecords(cmd.OutOrStdout(), output, recs)
			})
		},
	}
	recentCmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of records")

	snapshotCmd := &cobra.Command{
		Use:   "snapshot <shipmentId>",
		Short: "Show the cached request snapshot for a shipment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackends(cmd, func(ctx context.Context, b *backends) error {
				snap, ok, err := b.snapshots.Get(ctx, args[0])
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("no snapshot cached for %s", args[0])
				}
				fmt.Fprintln(cmd.OutOrStdout(), snap)
				return nil
			})
		},
	}

	root.AddCommand(getCmd, recentCmd, snapshotCmd)
	return root
}

func printRecords(w io.Writer, output string, recs []*shipment.Record) error {
	if output == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(recs)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SHIPMENT\tSTATUS\tCITY\tRECEIVED\tPROCESSED")
	for _, r := range recs {
		processed := "-"
		if r.ProcessedAt != nil {
			processed = r.ProcessedAt.Format(time.RFC3339)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			r.ShipmentID, r.Status, r.City, r.ReceivedAt.Format(time.RFC3339), processed)
	}
	return tw.Flush()
}
