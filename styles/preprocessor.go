package styles

import (
	"bytes"
	"os/exec"
	"path/filepath"
	"strings"

	libsass "github.com/wellington/go-libsass"
	"go.trai.ch/zerr"
)

// A Preprocessor expands a Sass source into plain CSS. The filename is the
// source's location on disk; its directory is searched before the include
// paths so relative imports keep working after the source was rewritten.
type Preprocessor interface {
	Name() string
	Compile(filename string, source string, includePaths []string) (string, error)
}

// DetectPreprocessor picks the Sass implementation once at start-up. An
// explicitly configured binary or a `sass` executable on PATH selects the
// Dart Sass CLI; otherwise the in-process libsass compiler is used.
func DetectPreprocessor(sassBin string) (Preprocessor, error) {
	if sassBin != "" {
		bin, err := exec.LookPath(sassBin)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "sass binary not found"), "bin", sassBin)
		}
		return &DartSass{Bin: bin}, nil
	}
	if bin, err := exec.LookPath("sass"); err == nil {
		return &DartSass{Bin: bin}, nil
	}
	return &Libsass{}, nil
}

func searchPaths(filename string, includePaths []string) []string {
	paths := make([]string, 0, len(includePaths)+1)
	paths = append(paths, filepath.Dir(filename))
	return append(paths, includePaths...)
}

// Libsass compiles in-process through the libsass C library, feeding the
// source from memory.
type Libsass struct{}

func (*Libsass) Name() string { return "libsass" }

func (*Libsass) Compile(filename string, source string, includePaths []string) (string, error) {
	var out bytes.Buffer
	comp, err := libsass.New(&out, strings.NewReader(source),
		libsass.IncludePaths(searchPaths(filename, includePaths)),
		libsass.OutputStyle(libsass.EXPANDED_STYLE),
	)
	if err != nil {
		return "", zerr.Wrap(err, "libsass setup")
	}
	if err := comp.Run(); err != nil {
		return "", err
	}
	return out.String(), nil
}

// DartSass renders through the Dart Sass command line, feeding the source
// on stdin.
type DartSass struct {
	Bin string
}

func (*DartSass) Name() string { return "dart-sass" }

func (d *DartSass) Compile(filename string, source string, includePaths []string) (string, error) {
	args := []string{"--stdin", "--no-source-map", "--style=expanded"}
	for _, dir := range searchPaths(filename, includePaths) {
		args = append(args, "--load-path="+dir)
	}

	cmd := exec.Command(d.Bin, args...)
	cmd.Stdin = strings.NewReader(source)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return "", zerr.Wrap(err, "sass")
		}
		return "", zerr.Wrap(err, msg)
	}
	return stdout.String(), nil
}
