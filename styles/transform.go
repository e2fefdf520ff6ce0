package styles

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"go.trai.ch/zerr"
)

// A Transformer is one step of the CSS post-processing chain. The filename
// is only used for diagnostics.
type Transformer interface {
	Name() string
	Transform(filename string, css string) (string, error)
}

// Tailwind expands utility directives by running the Tailwind standalone
// CLI against the project's config file.
type Tailwind struct {
	Bin    string
	Config string
}

func (*Tailwind) Name() string { return "tailwind" }

// Transform feeds css to the CLI through a temporary file placed next to
// filename, so relative imports resolve as they would from the source.
// Messages naming the temporary file are rewritten to name filename.
func (t *Tailwind) Transform(filename string, css string) (string, error) {
	input, err := writeSibling(filename, css)
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, "tailwind input"), "file", filename)
	}
	defer os.Remove(input)

	args := []string{"--input", input}
	if t.Config != "" {
		args = append(args, "--config", filepath.Base(t.Config))
	}
	cmd := exec.Command(t.Bin, args...)
	if t.Config != "" {
		cmd.Dir = filepath.Dir(t.Config)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.ReplaceAll(strings.TrimSpace(stderr.String()), input, filename)
		return "", zerr.With(zerr.Wrap(err, "tailwind: "+msg), "file", filename)
	}
	return strings.ReplaceAll(stdout.String(), input, filename), nil
}

// writeSibling writes content to a hidden temporary file in the directory of
// filename and returns its absolute path. It falls back to the system temp
// dir when that directory is not writable.
func writeSibling(filename string, content string) (string, error) {
	dir, err := filepath.Abs(filepath.Dir(filename))
	if err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp(dir, ".avatard-*.css")
	if err != nil {
		if tmp, err = os.CreateTemp("", "avatard-*.css"); err != nil {
			return "", err
		}
	}
	_, err = tmp.WriteString(content)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return filepath.Abs(tmp.Name())
}

// defaultEngines are the browsers the demo supports; esbuild adds the
// vendor prefixes they need.
var defaultEngines = []api.Engine{
	{Name: api.EngineChrome, Version: "64"},
	{Name: api.EngineEdge, Version: "79"},
	{Name: api.EngineFirefox, Version: "67"},
	{Name: api.EngineSafari, Version: "11"},
	{Name: api.EngineIOS, Version: "11"},
}

// Prefixer adds vendor prefixes with esbuild's CSS transform.
type Prefixer struct {
	Engines []api.Engine
}

func (*Prefixer) Name() string { return "prefixer" }

func (p *Prefixer) Transform(filename string, css string) (string, error) {
	engines := p.Engines
	if len(engines) == 0 {
		engines = defaultEngines
	}
	result := api.Transform(css, api.TransformOptions{
		Loader:     api.LoaderCSS,
		Sourcefile: filename,
		Engines:    engines,
		LogLevel:   api.LogLevelSilent,
	})
	if l := len(result.Errors); l > 0 {
		texts := make([]string, l)
		for i, e := range result.Errors {
			texts[i] = e.Text
		}
		return "", zerr.With(zerr.New(strings.Join(texts, "\n")), "file", filename)
	}
	return string(result.Code), nil
}
