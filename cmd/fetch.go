package cmd

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/aotc-build/aotc/internal/dist"
	"github.com/aotc-build/aotc/internal/msg"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <source> [target path]",
	Short: "Fetch a converter distribution",
	Long: `Fetch the managed-to-native converter distribution into the project's
build directory. The source may be a git URL (git:https://...), a forge
shortcut (gh:org/repo, optionally with @branch and #revision), an archive URL
(.tar.gz, .tgz, .tar.xz) or a local directory.`,
	Args: cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		basedir := "."
		if len(args) > 1 {
			basedir = args[1]
		}
		basedir, err := filepath.Abs(basedir)
		if err != nil {
			msg.Fatal("%v", err)
		}

		installDir := dist.InstallDir(filepath.Join(basedir, "build"))
		if err := dist.Fetch(args[0], installDir); err != nil {
			msg.Fatal("failed to fetch converter distribution: %v", err)
		}
		msg.Info("converter installed to %s", installDir)
	},
}
