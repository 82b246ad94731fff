package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/aotc-build/aotc/internal/toolchain"
)

var toolchainsCmd = &cobra.Command{
	Use:   "toolchains",
	Short: "List registered cross-compilation toolchains",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		registry := toolchain.DefaultRegistry()

		w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tTRIPLE\tSTATUS")
		for _, tc := range registry.All() {
			host := toolchain.HostEnvironment{Platform: tc.HostPlatform(), Arch: tc.HostArch()}
			tgt := toolchain.Target{Platform: tc.TargetPlatform(), Arch: tc.TargetArch()}

			status := color.HiGreenString("ready")
			if !tc.Initialize() {
				status = color.YellowString("unavailable")
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", tc.Name(), toolchain.Triple(host, tgt), status)
		}
		w.Flush()
	},
}
