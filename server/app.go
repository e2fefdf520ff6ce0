package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/ije/rex"

	"avatard/project"
	"avatard/resolve"
)

// BundleSource produces the app bundle.
type BundleSource interface {
	Bundle() (string, error)
}

// StyleSource compiles stylesheets. CompileFile returns a CSS comment
// describing the failure together with a non-nil error.
type StyleSource interface {
	CompileFile(filename string) (string, error)
	PostProcess(filename string, css string) (string, error)
}

// App routes dev server requests. It holds no per-request state; the bundle
// source is the only thing shared between requests.
type App struct {
	layout   project.Layout
	resolver *resolve.Resolver
	bundle   BundleSource
	styles   StyleSource
	dev      bool
}

// NewApp returns an App serving the demo of layout.
func NewApp(layout project.Layout, resolver *resolve.Resolver, bundle BundleSource, styles StyleSource, dev bool) *App {
	return &App{
		layout:   layout,
		resolver: resolver,
		bundle:   bundle,
		styles:   styles,
		dev:      dev,
	}
}

type response struct {
	status      int
	contentType string
	header      map[string]string
	body        []byte
	// file is served from disk instead of body when set.
	file string
}

func textResponse(status int, contentType string, body string) *response {
	return &response{status: status, contentType: contentType, body: []byte(body)}
}

func notFoundResponse() *response {
	return textResponse(http.StatusNotFound, "text/plain; charset=utf-8", notFound)
}

// route picks the response for a request path. Branches are tried in order
// and the first match wins.
func (app *App) route(r *http.Request) *response {
	pathname := r.URL.Path

	if pathname == "/" || pathname == "/index.html" {
		return app.page()
	}

	if pathname == bundlePath {
		return app.script(r)
	}

	if strings.HasSuffix(pathname, ".scss") || strings.HasSuffix(pathname, ".css") {
		if resp := app.stylesheet(pathname); resp != nil {
			return resp
		}
	}

	if strings.HasPrefix(pathname, "/static/") || strings.HasPrefix(pathname, "/public/") {
		if filename, ok := project.Within(app.layout.DemoRoot(), pathname[1:]); ok && project.FileExists(filename) {
			return &response{status: http.StatusOK, file: filename}
		}
	}

	if strings.HasSuffix(pathname, ".ts") || strings.HasSuffix(pathname, ".tsx") {
		return app.source(pathname)
	}

	return notFoundResponse()
}

func (app *App) script(r *http.Request) *response {
	log.Debug("Building app bundle...")
	code, err := app.bundle.Bundle()
	if err != nil {
		log.Errorf("Error building app bundle: %v", err)
		msg := err.Error()
		quoted, _ := json.Marshal(msg)
		detail, _ := json.Marshal(fmt.Sprintf("%+v", err))
		body := fmt.Sprintf(errorScript, strings.ReplaceAll(msg, "\n", " "), quoted, detail)
		// 200 so the browser runs the script and the error shows up in its console.
		return textResponse(http.StatusOK, contentTypeJS, body)
	}

	etag := fmt.Sprintf(`"%016x"`, xxhash.Sum64String(code))
	header := map[string]string{"Cache-Control": "no-cache", "ETag": etag}
	if r.Header.Get("If-None-Match") == etag {
		return &response{status: http.StatusNotModified, header: header}
	}
	resp := textResponse(http.StatusOK, contentTypeJS, code)
	resp.header = header
	return resp
}

// stylesheet compiles a .scss or .css file. Paths below /src/ are relative
// to the demo root, everything else to the demo sources. It returns nil when
// the file does not exist so the later branches get a chance.
func (app *App) stylesheet(pathname string) *response {
	var filename string
	var ok bool
	if strings.HasPrefix(pathname, "/src/") {
		filename, ok = project.Within(app.layout.DemoRoot(), pathname[1:])
	} else {
		filename, ok = project.Within(app.layout.DemoSrc(), strings.TrimPrefix(pathname, "/"))
	}
	if !ok || !project.FileExists(filename) {
		return nil
	}

	css, err := app.styles.CompileFile(filename)
	if err != nil {
		return textResponse(http.StatusInternalServerError, contentTypeCSS, css)
	}
	resp := textResponse(http.StatusOK, contentTypeCSS, css)
	resp.header = map[string]string{"Cache-Control": "no-cache"}
	return resp
}

// source serves TypeScript sources as-is so source maps resolve.
func (app *App) source(pathname string) *response {
	var filename string
	var ok bool
	switch {
	case strings.HasPrefix(pathname, "/src/"):
		filename, ok = project.Within(app.layout.DemoRoot(), pathname[1:])
	case strings.Contains(pathname, app.resolver.Name()):
		logical := strings.TrimPrefix(pathname, "/")
		if trimmed, found := strings.CutSuffix(logical, ".tsx"); found {
			logical = trimmed
		} else {
			logical = strings.TrimSuffix(logical, ".ts")
		}
		filename, ok = app.resolver.Resolve(logical)
	default:
		filename, ok = project.Within(app.layout.DemoSrc(), strings.TrimPrefix(pathname, "/"))
	}
	if !ok || !project.FileExists(filename) {
		return notFoundResponse()
	}

	contentType := contentTypeTS
	if strings.HasSuffix(filename, ".tsx") || strings.HasSuffix(filename, ".jsx") {
		contentType = contentTypeJS
	}
	return &response{status: http.StatusOK, contentType: contentType, file: filename}
}

// ServeHTTP implements http.Handler.
func (app *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	resp := app.route(r)
	setHeaders(w.Header(), resp)

	if resp.file != "" {
		f, err := os.Open(resp.file)
		if err != nil {
			http.Error(w, notFound, http.StatusNotFound)
			return
		}
		defer f.Close()
		fi, err := f.Stat()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		http.ServeContent(w, r, fi.Name(), fi.ModTime(), f)
	} else {
		w.WriteHeader(resp.status)
		w.Write(resp.body)
	}
	log.Debugf("%s %s -> %d (%v)", r.Method, r.URL.Path, resp.status, time.Since(start))
}

// Handle returns the rex handle serving the dev server routes. Responses
// are rendered the same way as by ServeHTTP.
func (app *App) Handle() rex.Handle {
	return func(ctx *rex.Context) interface{} {
		// in dev mode, we use `Last-Modified` and `ETag` header to control cache
		if app.dev {
			ctx.SetHeader("Cache-Control", "max-age=0")
		}

		resp := app.route(ctx.R)
		if resp.file != "" {
			f, err := os.Open(resp.file)
			if err != nil {
				resp = notFoundResponse()
			} else if fi, err := f.Stat(); err != nil {
				f.Close()
				resp = textResponse(http.StatusInternalServerError, "text/plain; charset=utf-8", err.Error())
			} else {
				setHeaders(ctx.W.Header(), resp)
				// rex closes f once it is served.
				return rex.Content(fi.Name(), fi.ModTime(), f)
			}
		}
		setHeaders(ctx.W.Header(), resp)
		return rex.Status(resp.status, string(resp.body))
	}
}

func setHeaders(h http.Header, resp *response) {
	for key, value := range resp.header {
		h.Set(key, value)
	}
	if resp.contentType != "" {
		h.Set("Content-Type", resp.contentType)
	}
}
