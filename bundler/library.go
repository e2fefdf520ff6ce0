package bundler

import (
	"context"
	"os"
	"path/filepath"

	"github.com/evanw/esbuild/pkg/api"
	logx "github.com/ije/gox/log"
	"github.com/tidwall/gjson"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"

	"avatard/project"
)

// ErrInvalidPackageJSON is returned when package.json cannot be parsed.
var ErrInvalidPackageJSON = zerr.New("invalid package.json")

// Externals lists the dependencies and peer dependencies declared in a
// package.json; the library build leaves them to the consumer.
func Externals(packageJSON []byte) ([]string, error) {
	if !gjson.ValidBytes(packageJSON) {
		return nil, ErrInvalidPackageJSON
	}
	var names []string
	for _, key := range []string{"dependencies", "peerDependencies"} {
		gjson.GetBytes(packageJSON, key).ForEach(func(name, _ gjson.Result) bool {
			names = append(names, name.String())
			return true
		})
	}
	return names, nil
}

type libraryTarget struct {
	format  api.Format
	outfile string
}

// BuildLibrary writes the minified CommonJS and ESM bundles of the library
// to dist/, together with its type definitions.
func BuildLibrary(ctx context.Context, layout project.Layout, log *logx.Logger) error {
	data, err := os.ReadFile(layout.PackageJSON())
	if err != nil {
		return zerr.Wrap(err, "read package.json")
	}
	externals, err := Externals(data)
	if err != nil {
		return zerr.With(err, "file", layout.PackageJSON())
	}

	dist := layout.DistRoot()
	log.Infof("Building library %s -> %s", layout.LibraryEntry(), dist)
	if err := os.RemoveAll(dist); err != nil {
		return zerr.Wrap(err, "clean dist")
	}

	targets := []libraryTarget{
		{format: api.FormatCommonJS, outfile: filepath.Join(dist, "index.js")},
		{format: api.FormatESModule, outfile: filepath.Join(dist, "index.esm.js")},
	}
	g, ctx := errgroup.WithContext(ctx)
	for _, t := range targets {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			result := api.Build(api.BuildOptions{
				EntryPoints:       []string{layout.LibraryEntry()},
				Outfile:           t.outfile,
				Write:             true,
				Bundle:            true,
				Format:            t.format,
				Platform:          api.PlatformBrowser,
				Sourcemap:         api.SourceMapExternal,
				MinifySyntax:      true,
				MinifyWhitespace:  true,
				MinifyIdentifiers: true,
				External:          externals,
				LogLevel:          api.LogLevelSilent,
			})
			if err := buildError(result); err != nil {
				return zerr.With(zerr.Wrap(err, "library build failed"), "outfile", t.outfile)
			}
			log.Infof("Wrote %s", t.outfile)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if !project.FileExists(layout.TypesFile()) {
		log.Warnf("%s not found, skipping type definitions", layout.TypesFile())
		return nil
	}
	types, err := os.ReadFile(layout.TypesFile())
	if err != nil {
		return zerr.Wrap(err, "read types")
	}
	if err := os.WriteFile(filepath.Join(dist, "index.d.ts"), types, 0644); err != nil {
		return zerr.Wrap(err, "write types")
	}
	log.Infof("Wrote %s", filepath.Join(dist, "index.d.ts"))
	return nil
}
