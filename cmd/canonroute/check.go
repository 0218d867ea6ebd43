package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/canonroute/canonroute/internal/policy"
	"github.com/spf13/cobra"
)

func newCheckCmd() *cobra.Command {
	var flags configFlags
	var link bool

	cmd := &cobra.Command{
		Use:   "check [uri...]",
		Short: "Show how URIs would be canonicalized",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			p, err := policy.FromConfig(cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			var errs []error
			for _, raw := range args {
				u, err := policy.ParseURI(raw)
				if err != nil {
					errs = append(errs, err)
					continue
				}
				if link {
					if _, err := fmt.Fprintln(out, p.ResolveLink(u).String()); err != nil {
						return err
					}
					continue
				}
				if err := writeDecision(out, p.Decide(u)); err != nil {
					return err
				}
			}
			return errors.Join(errs...)
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&link, "link", false, "Print only the canonical link for each URI")

	return cmd
}

func writeDecision(w io.Writer, d policy.Decision) error {
	steps := make([]string, len(d.Steps))
	for i, step := range d.Steps {
		steps[i] = string(step)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", d.Original.String())
	fmt.Fprintf(&b, "  action: %s\n", d.Action())
	if len(steps) > 0 {
		fmt.Fprintf(&b, "  steps: %s\n", strings.Join(steps, ","))
	}
	if d.BlacklistRule != "" {
		fmt.Fprintf(&b, "  blacklisted: %s\n", d.BlacklistRule)
	}
	if d.Redirect != nil {
		fmt.Fprintf(&b, "  location: %s (%d)\n", d.Redirect.Location, d.Redirect.StatusCode)
	}

	_, err := io.WriteString(w, b.String())
	return err
}
