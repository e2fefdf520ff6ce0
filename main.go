package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"avatard/bundler"
	"avatard/project"
	"avatard/resolve"
	"avatard/server"
)

type flags struct {
	port        int
	logLevel    string
	dev         bool
	sassBin     string
	tailwindBin string
}

func (f *flags) register(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&f.port, "port", "p", 8080, "http server port")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "info", "log level")
	cmd.Flags().BoolVarP(&f.dev, "dev", "d", false, "run in development mode (debug logging)")
	cmd.Flags().StringVar(&f.sassBin, "sass", "", "path to the Dart Sass executable (default: sass on PATH, else libsass)")
	cmd.Flags().StringVar(&f.tailwindBin, "tailwind", "", "path to the Tailwind CSS executable (default: tailwindcss on PATH)")
}

// load resolves the project root and layers explicitly set flags over the
// loaded config.
func (f *flags) load(cmd *cobra.Command, args []string) (string, server.Config, error) {
	root := "."
	if len(args) > 0 {
		root = args[0]
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return "", server.Config{}, err
	}
	cfg, err := server.LoadConfig(root)
	if err != nil {
		return "", cfg, err
	}

	changed := cmd.Flags().Changed
	if changed("port") {
		cfg.Port = f.port
	}
	if changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if changed("dev") {
		cfg.Dev = f.dev
	}
	if changed("sass") {
		cfg.SassBin = f.sassBin
	}
	if changed("tailwind") {
		cfg.TailwindBin = f.tailwindBin
	}
	return root, cfg, nil
}

func newRootCmd() *cobra.Command {
	var f flags
	serve := func(cmd *cobra.Command, args []string) error {
		root, cfg, err := f.load(cmd, args)
		if err != nil {
			return err
		}
		return server.Serve(cfg, root)
	}

	rootCmd := &cobra.Command{
		Use:          "avatard [root]",
		Short:        "Dev server and build tool for the avatar component library",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE:         serve,
	}
	f.register(rootCmd)

	serveCmd := &cobra.Command{
		Use:   "serve [root]",
		Short: "Serve the demo app with on-the-fly bundling and stylesheet compilation",
		Args:  cobra.MaximumNArgs(1),
		RunE:  serve,
	}
	f.register(serveCmd)

	buildCmd := &cobra.Command{
		Use:   "build [root]",
		Short: "Build the library into dist/ (CommonJS, ESM and type definitions)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, cfg, err := f.load(cmd, args)
			if err != nil {
				return err
			}
			flush, err := server.SetupLogger(cfg)
			if err != nil {
				return err
			}
			defer flush()
			layout := project.New(root, cfg.PackageName)
			return bundler.BuildLibrary(cmd.Context(), layout, server.Logger())
		},
	}
	f.register(buildCmd)

	buildDemoCmd := &cobra.Command{
		Use:   "build-demo [root]",
		Short: "Build the demo app into demo/dist/",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, cfg, err := f.load(cmd, args)
			if err != nil {
				return err
			}
			flush, err := server.SetupLogger(cfg)
			if err != nil {
				return err
			}
			defer flush()
			layout := project.New(root, cfg.PackageName)
			compiler, err := server.NewStyleCompiler(cfg, layout)
			if err != nil {
				return err
			}
			return bundler.BuildDemo(bundler.DemoOptions{
				Layout:        layout,
				Resolver:      resolve.New(layout),
				Styles:        compiler,
				HotReloadFile: cfg.HotReloadTarget(),
				Logger:        server.Logger(),
			})
		},
	}
	f.register(buildDemoCmd)

	rootCmd.AddCommand(serveCmd, buildCmd, buildDemoCmd)
	return rootCmd
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
