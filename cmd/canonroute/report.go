package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/canonroute/canonroute/internal/report"
	"github.com/spf13/cobra"
)

var renderers = map[string]func(report.Summary) ([]byte, error){
	"text": func(s report.Summary) ([]byte, error) { return []byte(report.RenderText(s)), nil },
	"md":   func(s report.Summary) ([]byte, error) { return []byte(report.RenderMarkdown(s)), nil },
	"json": func(s report.Summary) ([]byte, error) {
		data, err := report.RenderJSON(s)
		return append(data, '\n'), err
	},
}

func newReportCmd() *cobra.Command {
	var inputPath string
	var since time.Duration
	var format string
	var outPath string
	var top int

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize redirect decision logs",
		Long: `Summarize a decision log written by "canonroute run".

The report counts redirected, passed, not found and blacklisted requests,
lists the most redirected paths, redirects per step (trailing_slash,
lowercase) and the blacklist rules that exempted the most requests, and
gives p50/p95/p99 request latency.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if inputPath == "" {
				return errors.New("input path is required")
			}
			render, ok := renderers[format]
			if !ok {
				return fmt.Errorf("unknown format %q", format)
			}

			reader := report.Reader{}
			if since > 0 {
				reader.Since = time.Now().Add(-since)
			}
			decisions, err := reader.Read(inputPath)
			if err != nil {
				return err
			}

			content, err := render(report.SummarizeTop(decisions, top))
			if err != nil {
				return err
			}
			return report.WriteOutput(cmd.OutOrStdout(), outPath, content)
		},
	}

	cmd.Flags().StringVar(&inputPath, "in", "", "Path to decision log JSONL")
	cmd.Flags().DurationVar(&since, "since", 0, "Only include entries newer than this duration (e.g. 10m)")
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text|md|json")
	cmd.Flags().StringVar(&outPath, "out", "", "Output file path (default stdout)")
	cmd.Flags().IntVar(&top, "top", report.DefaultTop, "Entries per top list (paths, steps, blacklist rules)")

	return cmd
}
