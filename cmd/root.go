// aotc [path], aotc build [path]
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/aotc-build/aotc/internal/config"
	"github.com/aotc-build/aotc/internal/diag"
	"github.com/aotc-build/aotc/internal/dist"
	"github.com/aotc-build/aotc/internal/msg"
	"github.com/aotc-build/aotc/internal/pipeline"
	"github.com/aotc-build/aotc/internal/toolchain"
)

var (
	flagTarget  EnumValue
	flagTemp    string
	flagCache   string
	flagStaging string
)

func init() {
	allowed := make(map[string]string)
	for _, name := range toolchain.BuildTargetNames() {
		allowed[name] = ""
	}
	flagTarget = NewEnumValue("linux64", allowed)

	addBuildFlags(rootCmd)

	rootCmd.AddCommand(buildCmd)
	addBuildFlags(buildCmd)

	rootCmd.AddCommand(toolchainsCmd)
	rootCmd.AddCommand(fetchCmd)
}

func addBuildFlags(cmd *cobra.Command) {
	cmd.Flags().VarP(&flagTarget, "target", "t", "Build target, one of "+flagTarget.HelpString())
	cmd.Flags().StringVar(&flagTemp, "temp", "", "Scratch directory (default <path>/build/tmp)")
	cmd.Flags().StringVar(&flagCache, "cache", "", "Persistent build cache directory (default <path>/build/cache/<triple>)")
	cmd.Flags().StringVar(&flagStaging, "staging", "", "Staging area consumed by the packager (default <path>/build/staging/<triple>)")
	cmd.RegisterFlagCompletionFunc("target", flagTarget.CompletionFunc())
}

func doBuild(cmd *cobra.Command, cliArgs []string) {
	basedir := "."
	if len(cliArgs) > 0 {
		basedir = cliArgs[0]
	}
	basedir, err := filepath.Abs(basedir)
	if err != nil {
		msg.Fatal("%v", err)
	}

	tgt, ok := toolchain.TargetForPlatform(flagTarget.Value())
	if !ok {
		msg.Fatal("unsupported build target %q", flagTarget.Value())
	}

	env := config.NewEnv(basedir, tgt.Platform, tgt.Arch)
	cfg, err := config.ParseFile(filepath.Join(basedir, "aotc.toml"), env)
	if err != nil {
		msg.Fatal("%v", err)
	}

	registry := toolchain.DefaultRegistry()
	tc, found := registry.Find(tgt.Platform, tgt.Arch)
	if !found {
		msg.Fatal("no usable toolchain for target %s/%s on this host", tgt.Platform, tgt.Arch)
	}
	triple, err := registry.HostTargetTriple(tgt)
	if err != nil {
		msg.Fatal("%v", err)
	}

	buildDir := filepath.Join(basedir, "build")
	paths := pipeline.BuildPaths{
		TempFolder:      flagTemp,
		BuildCacheDir:   flagCache,
		StagingAreaData: flagStaging,
	}
	if paths.TempFolder == "" {
		paths.TempFolder = filepath.Join(buildDir, "tmp")
	}
	if paths.BuildCacheDir == "" {
		paths.BuildCacheDir = filepath.Join(buildDir, "cache", triple)
	}
	if paths.StagingAreaData == "" {
		paths.StagingAreaData = filepath.Join(buildDir, "staging", triple)
	}

	converter, err := dist.Converter(buildDir)
	if err != nil {
		msg.Fatal("%v", err)
	}

	var stripper pipeline.Stripper = pipeline.NopStripper{}
	if cfg.Build.LinkerTool != "" {
		stripper = pipeline.CommandStripper{Tool: cfg.Build.LinkerTool, Launcher: pipeline.ExecLauncher{}}
	}

	inv := &pipeline.Invocation{
		Paths:     paths,
		Settings:  cfg.Build,
		Target:    tgt,
		Toolchain: tc,
		Converter: converter,
		Stripper:  stripper,
		Sink:      diag.ConsoleSink{},
		PostGenerate: func(cppOutputDir string) error {
			return cfg.RunPostGenerateHook(env.Rebase(cppOutputDir))
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := inv.Run(ctx); err != nil {
		if errors.Is(err, pipeline.ErrCancelled) {
			msg.Warn("%v", err)
			os.Exit(130)
		}
		msg.Fatal("%v", err)
	}
	msg.Step("Finished", "%s (%s)", cfg.App.Name, triple)
}

var rootCmd = &cobra.Command{
	Use:   "aotc [target path]",
	Short: "AOT native-code build driver",
	Long:  `Drives managed-to-native conversion and native compilation, staging output for packaging`,
	Args:  cobra.MaximumNArgs(1),
	Run:   doBuild,
}

var buildCmd = &cobra.Command{
	Use:   "build [target path]",
	Short: "Convert and compile the project",
	Long:  `Convert and compile the project. If no target path is given, uses "."`,
	Args:  cobra.MaximumNArgs(1),
	Run:   doBuild,
}

func Execute() {
	// .env files carry machine-local overrides like AOTC_IL2CPP_PATH
	godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
