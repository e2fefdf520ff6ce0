package bundler

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	logx "github.com/ije/gox/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"avatard/project"
	"avatard/resolve"
	"avatard/styles"
)

func TestExternals(t *testing.T) {
	names, err := Externals([]byte(`{
		"name": "react-nice-avatar",
		"dependencies": {"chroma-js": "^2.1.0"},
		"devDependencies": {"typescript": "^5.0.0"},
		"peerDependencies": {"react": ">=16", "react-dom": ">=16"}
	}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"chroma-js", "react", "react-dom"}, names)

	names, err = Externals([]byte(`{"name": "x"}`))
	require.NoError(t, err)
	assert.Empty(t, names)

	_, err = Externals([]byte(`{"name": `))
	require.ErrorIs(t, err, ErrInvalidPackageJSON)
}

func TestBuildLibrary(t *testing.T) {
	layout := project.New(t.TempDir(), "")
	writeFiles(t, layout.Root, map[string]string{
		"package.json":  `{"peerDependencies": {"react": ">=16"}}`,
		"src/index.tsx": "import * as React from \"react\";\nexport const version = React.version + \"-avatar\";\n",
		"src/types.ts":  "export interface AvatarConfig { sex?: string }\n",
		"dist/stale.js": "old",
	})

	require.NoError(t, BuildLibrary(context.Background(), layout, &logx.Logger{}))

	cjs, err := os.ReadFile(filepath.Join(layout.DistRoot(), "index.js"))
	require.NoError(t, err)
	assert.Contains(t, string(cjs), `require("react")`)
	assert.Contains(t, string(cjs), "-avatar")

	esm, err := os.ReadFile(filepath.Join(layout.DistRoot(), "index.esm.js"))
	require.NoError(t, err)
	assert.Contains(t, string(esm), `from"react"`)

	assert.FileExists(t, filepath.Join(layout.DistRoot(), "index.js.map"))
	assert.FileExists(t, filepath.Join(layout.DistRoot(), "index.d.ts"))
	assert.NoFileExists(t, filepath.Join(layout.DistRoot(), "stale.js"))
}

func TestBuildLibraryWithoutPackageJSON(t *testing.T) {
	layout := project.New(t.TempDir(), "")
	err := BuildLibrary(context.Background(), layout, &logx.Logger{})
	require.Error(t, err)
	assert.ErrorContains(t, err, "read package.json")
}

// passthrough is a Sass stand-in that returns its input.
type passthrough struct{}

func (passthrough) Name() string { return "passthrough" }

func (passthrough) Compile(_ string, source string, _ []string) (string, error) {
	return source, nil
}

func TestBuildDemo(t *testing.T) {
	layout := project.New(t.TempDir(), "")
	writeFiles(t, layout.Root, map[string]string{
		"src/index.tsx":          "export const name = \"avatar-lib\";\n",
		"demo/app.template.html": "<html><head><title>demo</title></head><body><div id=\"app\"></div></body></html>",
		"demo/src/index.tsx":     "import \"./index.scss\";\nimport { name } from \"react-nice-avatar\";\nconsole.log(name);\n",
		"demo/src/index.scss":    "@import '~shared-style/base';\n.demo { color: blue; }\n",
		"demo/static/logo.svg":   "<svg/>",
	})
	compiler, err := styles.NewCompiler(styles.Options{Preprocessor: passthrough{}})
	require.NoError(t, err)

	err = BuildDemo(DemoOptions{
		Layout:        layout,
		Resolver:      resolve.New(layout),
		Styles:        compiler,
		HotReloadFile: "App/index.tsx",
		Logger:        &logx.Logger{},
	})
	require.NoError(t, err)

	page, err := os.ReadFile(filepath.Join(layout.DemoDist(), "index.html"))
	require.NoError(t, err)
	html := string(page)
	assert.Contains(t, html, "<style>@tailwind base; @tailwind components; @tailwind utilities;</style>")
	assert.Contains(t, html, "@import 'base';")
	assert.Contains(t, html, `<script type="module" src="/index.js"></script>`)
	assert.Less(t, strings.Index(html, "<style>"), strings.Index(html, "</head>"))
	assert.Less(t, strings.Index(html, "<script"), strings.Index(html, "</body>"))

	bundle, err := os.ReadFile(filepath.Join(layout.DemoDist(), "index.js"))
	require.NoError(t, err)
	assert.Contains(t, string(bundle), "avatar-lib")
	assert.FileExists(t, filepath.Join(layout.DemoDist(), "static", "logo.svg"))
}
