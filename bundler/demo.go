package bundler

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	logx "github.com/ije/gox/log"
	"go.trai.ch/zerr"

	"avatard/project"
	"avatard/resolve"
	"avatard/styles"
)

// tailwindEntry pulls in every Tailwind layer for the production page.
const tailwindEntry = "@tailwind base; @tailwind components; @tailwind utilities;"

// DemoOptions configures BuildDemo.
type DemoOptions struct {
	Layout        project.Layout
	Resolver      *resolve.Resolver
	Styles        *styles.Compiler
	HotReloadFile string
	Logger        *logx.Logger
}

// BuildDemo writes a production build of the demo app to demo/dist: a
// minified bundle with React left external, the compiled stylesheets
// inlined into index.html, and a copy of demo/static.
func BuildDemo(opts DemoOptions) error {
	layout, log := opts.Layout, opts.Logger
	dist := layout.DemoDist()
	log.Infof("Building demo %s -> %s", layout.DemoEntry(), dist)
	if err := os.RemoveAll(dist); err != nil {
		return zerr.Wrap(err, "clean demo dist")
	}

	result := api.Build(api.BuildOptions{
		EntryPoints:       []string{layout.DemoEntry()},
		AbsWorkingDir:     layout.DemoRoot(),
		Outdir:            dist,
		Write:             false,
		Bundle:            true,
		Format:            api.FormatESModule,
		Platform:          api.PlatformBrowser,
		MinifySyntax:      true,
		MinifyWhitespace:  true,
		MinifyIdentifiers: true,
		External:          []string{"react", "react-dom"},
		LogLevel:          api.LogLevelSilent,
		Plugins:           Plugins(opts.Resolver, opts.HotReloadFile),
	})
	if err := buildError(result); err != nil {
		return zerr.Wrap(err, "demo build failed")
	}
	script, err := writeOutputs(dist, result.OutputFiles)
	if err != nil {
		return err
	}

	var css string
	if scss := filepath.Join(layout.DemoSrc(), "index.scss"); project.FileExists(scss) {
		log.Infof("Compiling %s", layout.Rel(scss))
		css, err = opts.Styles.CompileFile(scss)
		if err != nil {
			return zerr.Wrap(err, "scss compilation failed")
		}
	}
	log.Infof("Compiling Tailwind CSS")
	base, err := opts.Styles.PostProcess(filepath.Join(layout.DemoSrc(), "tailwind.css"), tailwindEntry)
	if err != nil {
		return zerr.Wrap(err, "tailwind compilation failed")
	}

	tmpl, err := os.ReadFile(layout.Template())
	if err != nil {
		return zerr.Wrap(err, "read template")
	}
	page := project.InjectBefore(string(tmpl), project.HeadClose,
		fmt.Sprintf("\n    <style>%s</style>\n    <style>%s</style>\n    ", base, css))
	page = project.InjectBefore(page, project.BodyClose,
		fmt.Sprintf("\n    <script type=\"module\" src=\"/%s\"></script>\n    ", script))
	if err := os.WriteFile(filepath.Join(dist, "index.html"), []byte(page), 0644); err != nil {
		return zerr.Wrap(err, "write index.html")
	}

	if static := filepath.Join(layout.DemoRoot(), "static"); project.DirExists(static) {
		log.Infof("Copying %s", static)
		if err := os.CopyFS(filepath.Join(dist, "static"), os.DirFS(static)); err != nil {
			return zerr.Wrap(err, "copy static files")
		}
	}
	log.Infof("Demo build complete: %s", dist)
	return nil
}

// writeOutputs writes the build outputs and returns the slash separated path
// of the main script relative to dist.
func writeOutputs(dist string, files []api.OutputFile) (string, error) {
	var script string
	for _, f := range files {
		if err := os.MkdirAll(filepath.Dir(f.Path), 0755); err != nil {
			return "", zerr.Wrap(err, "create output dir")
		}
		if err := os.WriteFile(f.Path, f.Contents, 0644); err != nil {
			return "", zerr.With(zerr.Wrap(err, "write output"), "path", f.Path)
		}
		rel, err := filepath.Rel(dist, f.Path)
		if err != nil {
			return "", err
		}
		if script == "" && strings.HasSuffix(rel, ".js") {
			script = filepath.ToSlash(rel)
		}
	}
	if script == "" {
		return "", ErrEmptyOutput
	}
	return script, nil
}
