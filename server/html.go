package server

import (
	"fmt"
	"html"
	"net/http"
	"os"
	"runtime/debug"
	"strings"

	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"

	"avatard/project"
)

// page renders the demo page. Failures, panics included, become a 500 page
// carrying the error and a stack trace.
func (app *App) page() (resp *response) {
	defer func() {
		if v := recover(); v != nil {
			resp = errorPage(fmt.Errorf("%v", v), debug.Stack())
		}
	}()

	log.Debug("Serving HTML...")
	page, err := app.renderPage()
	if err != nil {
		return errorPage(err, debug.Stack())
	}
	return textResponse(http.StatusOK, contentTypeHTML, page)
}

func errorPage(err error, stack []byte) *response {
	log.Errorf("Error generating HTML: %v", err)
	// %+v carries the stack of a panic recovered in another goroutine.
	body := fmt.Sprintf(errorPageHTML, html.EscapeString(fmt.Sprintf("%+v", err)), html.EscapeString(string(stack)))
	return textResponse(http.StatusInternalServerError, contentTypeHTML, body)
}

func (app *App) renderPage() (string, error) {
	tmpl, err := os.ReadFile(app.layout.Template())
	if err != nil {
		return "", zerr.Wrap(err, "read page template")
	}

	demo, err := app.demoCSS()
	if err != nil {
		return "", err
	}
	page := project.InjectBefore(string(tmpl), project.HeadClose,
		fmt.Sprintf(headStyles, app.themeCSS(), demo))
	return project.InjectBefore(page, project.BodyClose, bootScript), nil
}

// themeCSS runs the theme through the post-processing chain. The theme is
// plain CSS with Tailwind directives, so Sass is skipped.
func (app *App) themeCSS() string {
	theme := app.layout.ThemeFile()
	if !project.FileExists(theme) {
		return ""
	}
	data, err := os.ReadFile(theme)
	if err != nil {
		log.Errorf("Failed to read theme %s: %v", theme, err)
		return ""
	}
	css, err := app.styles.PostProcess(theme, string(data))
	if err != nil {
		log.Errorf("Failed to compile theme %s: %v", theme, err)
		return ""
	}
	log.Debugf("Theme compiled (%d bytes)", len(css))
	return css
}

// demoCSS compiles the demo stylesheets concurrently and joins them in
// declaration order, each behind a comment naming its source. Compile
// failures are inlined as comments; only a panic fails the page.
func (app *App) demoCSS() (string, error) {
	files := app.layout.Stylesheets()
	parts := make([]string, len(files))

	var g errgroup.Group
	for i, filename := range files {
		rel := app.layout.Rel(filename)
		if !project.FileExists(filename) {
			log.Warnf("SCSS file not found: %s", rel)
			continue
		}
		g.Go(func() (err error) {
			defer func() {
				if v := recover(); v != nil {
					err = zerr.With(zerr.WithStack(fmt.Errorf("compile %s: %v", rel, v)), "file", filename)
				}
			}()
			// CompileFile logs failures and hands back an error comment.
			css, _ := app.styles.CompileFile(filename)
			parts[i] = fmt.Sprintf("\n/* %s */\n%s\n", rel, css)
			log.Debugf("Compiled: %s (%d bytes)", rel, len(css))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}
	return strings.Join(parts, ""), nil
}
