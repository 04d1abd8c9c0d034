// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pdiddy/answer-engine/internal/capability"
	"github.com/pdiddy/answer-engine/pkg/types"
)

var capabilitiesCmd = &cobra.Command{
	Use:   "capabilities",
	Short: "List the built-in capability set",
	Long: `Capabilities prints every built-in capability with its priority tier and
clarification descriptor. Higher tiers win ties; the web fallback sits at
tier 0 so it never beats a confident match.`,
	RunE: runCapabilities,
}

func runCapabilities(cmd *cobra.Command, args []string) error {
	// Descriptors are static, so stub handlers are enough to assemble
	// the full set.
	stub := func(context.Context, types.Request) (types.Result, error) {
		return types.Result{}, nil
	}
	reg, err := capability.DefaultRegistry(capability.Providers{
		Weather:   stub,
		Calendar:  stub,
		Holiday:   stub,
		Bills:     stub,
		Music:     stub,
		News:      stub,
		Knowledge: stub,
		Web:       stub,
	})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tPRIORITY\tLABEL\tEXAMPLE")
	for _, c := range reg.All() {
		d, _ := reg.Describe(c.Name())
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", c.Name(), c.Priority(), d.Label, d.Example)
	}
	return w.Flush()
}

func init() {
	rootCmd.AddCommand(capabilitiesCmd)
}
