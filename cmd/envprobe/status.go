package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/hollis-dev/envprobe/internal/storage"
)

type statusStore interface {
	AllLatest(ctx context.Context) ([]storage.Probe, error)
}

func executeStatus(cmd *cobra.Command, db statusStore) error {
	out := cmd.OutOrStdout()
	probes, err := db.AllLatest(context.Background())
	if err != nil {
		return fmt.Errorf("querying status: %w", err)
	}

	if len(probes) == 0 {
		fmt.Fprintln(out, "No probe history. Run 'envprobe serve' first.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DEPENDENCY\tSTATUS\tLATENCY\tLAST PROBED\tERROR")
	for _, p := range probes {
		latency := "—"
		if p.LatencyMs > 0 {
			latency = time.Duration(p.LatencyMs * int64(time.Millisecond)).Round(time.Millisecond).String()
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			p.Dependency,
			p.Status,
			latency,
			p.ProbedAt.Local().Format("2006-01-02 15:04:05"),
			p.Error,
		)
	}
	w.Flush()
	return nil
}
