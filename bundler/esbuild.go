package bundler

import (
	"fmt"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	logx "github.com/ije/gox/log"
	"go.trai.ch/zerr"
)

// A Builder bundles the module graph starting at entry into one script.
type Builder interface {
	Build(entry string) (string, error)
}

// Esbuild is the development Builder: browser ESM with inline source maps
// and nothing external.
type Esbuild struct {
	// WorkDir is where output and source map paths are relative to. The dev
	// server serves sources below it, so source maps resolve in the browser.
	WorkDir string
	Plugins []api.Plugin
	Logger  *logx.Logger
}

func (b *Esbuild) options(entry string) api.BuildOptions {
	return api.BuildOptions{
		EntryPoints:   []string{entry},
		AbsWorkingDir: b.WorkDir,
		Outdir:        b.WorkDir,
		Write:         false,
		Bundle:        true,
		Format:        api.FormatESModule,
		Platform:      api.PlatformBrowser,
		Sourcemap:     api.SourceMapInline,
		Define: map[string]string{
			"process.env.NODE_ENV": `"development"`,
		},
		LogLevel: api.LogLevelSilent,
		Plugins:  b.Plugins,
	}
}

func (b *Esbuild) Build(entry string) (string, error) {
	result := api.Build(b.options(entry))
	if err := buildError(result); err != nil {
		return "", zerr.WithStack(zerr.With(err, "entry", entry))
	}
	if b.Logger != nil {
		for _, w := range result.Warnings {
			b.Logger.Warnf("Build warning: %s", formatMessage(w))
		}
	}

	var code strings.Builder
	for _, out := range result.OutputFiles {
		code.Write(out.Contents)
	}
	return code.String(), nil
}

func buildError(result api.BuildResult) error {
	if l := len(result.Errors); l > 0 {
		texts := make([]string, l)
		for i, e := range result.Errors {
			texts[i] = formatMessage(e)
		}
		return zerr.New(strings.Join(texts, "\n"))
	}
	return nil
}

func formatMessage(m api.Message) string {
	if m.Location == nil {
		return m.Text
	}
	return fmt.Sprintf("%s:%d:%d: %s", m.Location.File, m.Location.Line, m.Location.Column, m.Text)
}
