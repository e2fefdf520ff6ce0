// Package styles turns the demo's Sass and CSS sources into the CSS served
// to the browser.
package styles

import (
	"fmt"
	"os"
	"strings"

	logx "github.com/ije/gox/log"
	"go.trai.ch/zerr"
)

// sharedStylePrefix is the webpack-era import alias for the shared scss
// directory, which is already on the include path.
const sharedStylePrefix = "~shared-style/"

// ErrNoPreprocessor is returned by NewCompiler without a preprocessor.
var ErrNoPreprocessor = zerr.New("no sass preprocessor")

// Compiler runs a stylesheet through the preprocessor and the
// post-processing chain. It keeps no state between calls.
type Compiler struct {
	pre          Preprocessor
	chain        []Transformer
	includePaths []string
	log          *logx.Logger
}

// Options configures a Compiler.
type Options struct {
	Preprocessor Preprocessor
	Chain        []Transformer
	IncludePaths []string
	Logger       *logx.Logger
}

// NewCompiler returns a Compiler. The include paths are copied and read-only
// from then on.
func NewCompiler(opts Options) (*Compiler, error) {
	if opts.Preprocessor == nil {
		return nil, ErrNoPreprocessor
	}
	log := opts.Logger
	if log == nil {
		log = &logx.Logger{}
	}
	return &Compiler{
		pre:          opts.Preprocessor,
		chain:        append([]Transformer(nil), opts.Chain...),
		includePaths: append([]string(nil), opts.IncludePaths...),
		log:          log,
	}, nil
}

// Chain builds the post-processing chain: Tailwind when a binary is
// available, then vendor prefixing.
func Chain(tailwindBin string, tailwindConfig string) []Transformer {
	var chain []Transformer
	if tailwindBin != "" {
		chain = append(chain, &Tailwind{Bin: tailwindBin, Config: tailwindConfig})
	}
	return append(chain, &Prefixer{})
}

// Preprocessor returns the Sass implementation in use.
func (c *Compiler) Preprocessor() Preprocessor {
	return c.pre
}

// Compile returns the CSS for filename. Failures come back as a CSS comment
// naming the error.
func (c *Compiler) Compile(filename string) string {
	css, _ := c.CompileFile(filename)
	return css
}

// CompileFile is Compile with the failure reported alongside the comment.
func (c *Compiler) CompileFile(filename string) (string, error) {
	css, err := c.compile(filename)
	if err != nil {
		c.log.Errorf("Error compiling SCSS %s: %v", filename, err)
		return errorComment(err), err
	}
	return css, nil
}

func (c *Compiler) compile(filename string) (string, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return "", err
	}
	source := strings.ReplaceAll(string(data), sharedStylePrefix, "")

	css, err := c.pre.Compile(filename, source, c.includePaths)
	if err != nil {
		return "", err
	}
	return c.PostProcess(filename, css)
}

// PostProcess runs css through the transform chain only.
func (c *Compiler) PostProcess(filename string, css string) (string, error) {
	var err error
	for _, t := range c.chain {
		css, err = t.Transform(filename, css)
		if err != nil {
			return "", zerr.With(err, "step", t.Name())
		}
	}
	return css, nil
}

func errorComment(err error) string {
	msg := strings.ReplaceAll(err.Error(), "*/", "* /")
	return fmt.Sprintf("/* Error compiling SCSS: %s */", msg)
}
