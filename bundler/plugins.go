package bundler

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"avatard/resolve"
)

// Plugins returns the plugin chain shared by the dev bundle and the demo
// build. hotReloadFile is the slash separated path suffix of the module
// wrapped with react-hot-loader; empty disables the stripping.
func Plugins(r *resolve.Resolver, hotReloadFile string) []api.Plugin {
	plugins := []api.Plugin{AliasPlugin(r)}
	if hotReloadFile != "" {
		plugins = append(plugins, HotReloadPlugin(hotReloadFile))
	}
	return append(plugins, IgnoreStylesPlugin())
}

// AliasPlugin resolves imports of the library package to its sources.
// Unresolved imports fall through to esbuild.
func AliasPlugin(r *resolve.Resolver) api.Plugin {
	return api.Plugin{
		Name: "resolve-alias",
		Setup: func(build api.PluginBuild) {
			build.OnResolve(
				api.OnResolveOptions{Filter: "^" + regexp.QuoteMeta(r.Name())},
				func(args api.OnResolveArgs) (api.OnResolveResult, error) {
					if p, ok := r.Resolve(args.Path); ok {
						return api.OnResolveResult{Path: p}, nil
					}
					return api.OnResolveResult{}, nil
				},
			)
		},
	}
}

var (
	hotImportRe    = regexp.MustCompile(`import\s+\{\s*hot\s*\}\s+from\s+["']react-hot-loader["'];?\n?`)
	hotExportRe    = regexp.MustCompile(`export\s+default\s+hot\(module\)\(App\);?`)
	styleRequireRe = regexp.MustCompile(`require\(['"]\./index\.scss['"]\);?\n?`)
)

// StripHotReload removes the react-hot-loader wrapper and the stylesheet
// require from the app module's source.
func StripHotReload(source string) string {
	source = hotImportRe.ReplaceAllString(source, "")
	source = hotExportRe.ReplaceAllString(source, "export default App;")
	return styleRequireRe.ReplaceAllString(source, "")
}

// HotReloadPlugin loads the file whose path contains suffix through
// StripHotReload. Every other file is left to esbuild.
func HotReloadPlugin(suffix string) api.Plugin {
	return api.Plugin{
		Name: "remove-hot-loader",
		Setup: func(build api.PluginBuild) {
			build.OnLoad(
				api.OnLoadOptions{Filter: ".*", Namespace: "file"},
				func(args api.OnLoadArgs) (api.OnLoadResult, error) {
					if !strings.Contains(filepath.ToSlash(args.Path), suffix) {
						return api.OnLoadResult{}, nil
					}
					data, err := os.ReadFile(args.Path)
					if err != nil {
						return api.OnLoadResult{}, err
					}
					contents := StripHotReload(string(data))
					return api.OnLoadResult{
						Contents:   &contents,
						Loader:     api.LoaderTSX,
						ResolveDir: filepath.Dir(args.Path),
					}, nil
				},
			)
		},
	}
}

// IgnoreStylesPlugin turns stylesheet imports into empty modules; the
// server compiles and injects stylesheets itself.
func IgnoreStylesPlugin() api.Plugin {
	return api.Plugin{
		Name: "ignore-styles",
		Setup: func(build api.PluginBuild) {
			build.OnResolve(
				api.OnResolveOptions{Filter: `\.(css|scss)$`},
				func(args api.OnResolveArgs) (api.OnResolveResult, error) {
					return api.OnResolveResult{Path: args.Path, Namespace: "ignore-style"}, nil
				},
			)
			build.OnLoad(
				api.OnLoadOptions{Filter: ".*", Namespace: "ignore-style"},
				func(args api.OnLoadArgs) (api.OnLoadResult, error) {
					contents := ""
					return api.OnLoadResult{Contents: &contents, Loader: api.LoaderJS}, nil
				},
			)
		},
	}
}
