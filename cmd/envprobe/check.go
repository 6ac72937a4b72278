package main

import (
	"context"
	"fmt"
	"io"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/hollis-dev/envprobe/internal/config"
	"github.com/hollis-dev/envprobe/internal/probe"
)

func executeCheck(cmd *cobra.Command, cfg *config.Config) error {
	return runChecks(cmd.OutOrStdout(), cfg)
}

func runChecks(out io.Writer, cfg *config.Config) error {
	type outcome struct {
		dep    config.Dependency
		result probe.Result
	}

	outcomes := make([]outcome, len(cfg.Dependencies))
	var wg sync.WaitGroup

	for i, dep := range cfg.Dependencies {
		wg.Add(1)
		go func(i int, dep config.Dependency) {
			defer wg.Done()
			p, err := probe.New(dep)
			if err != nil {
				outcomes[i] = outcome{
					dep: dep,
					result: probe.Result{
						Dependency: dep.Name,
						Status:     probe.StatusMissing,
						Error:      fmt.Sprintf("creating prober: %v", err),
						ProbedAt:   time.Now(),
					},
				}
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), dep.Timeout.Duration)
			defer cancel()
			outcomes[i] = outcome{dep: dep, result: p.Probe(ctx)}
		}(i, dep)
	}
	wg.Wait()

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DEPENDENCY\tKIND\tSTATUS\tLATENCY\tERROR")
	allInstalled := true
	for _, o := range outcomes {
		latency := "—"
		if o.result.Latency > 0 {
			latency = o.result.Latency.Round(time.Millisecond).String()
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			o.dep.Name,
			o.dep.Kind,
			o.result.Status,
			latency,
			o.result.Error,
		)
		if o.result.Status != probe.StatusInstalled {
			allInstalled = false
		}
	}
	w.Flush()

	if !allInstalled {
		return fmt.Errorf("one or more dependencies are missing")
	}
	return nil
}
