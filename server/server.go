package server

import (
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path"
	"syscall"

	logx "github.com/ije/gox/log"
	"github.com/ije/rex"
	"go.trai.ch/zerr"

	"avatard/bundler"
	"avatard/project"
	"avatard/resolve"
	"avatard/styles"
)

var log *logx.Logger

// Logger returns the main logger.
func Logger() *logx.Logger {
	return log
}

// SetupLogger applies the configured level and, with a log dir, switches the
// main logger to a buffered file logger. The returned func flushes it.
func SetupLogger(cfg Config) (func(), error) {
	if cfg.LogDir != "" {
		l, err := logx.New(fmt.Sprintf("file:%s?buffer=32k", path.Join(cfg.LogDir, "main.log")))
		if err != nil {
			return nil, zerr.Wrap(err, "initiate main logger")
		}
		log = l
	}
	if cfg.Dev {
		log.SetLevelByName("debug")
	} else {
		log.SetLevelByName(cfg.LogLevel)
	}
	l := log
	return func() { l.FlushBuffer() }, nil
}

// NewStyleCompiler picks the Sass implementation and the post-processing
// chain for the project.
func NewStyleCompiler(cfg Config, layout project.Layout) (*styles.Compiler, error) {
	pre, err := styles.DetectPreprocessor(cfg.SassBin)
	if err != nil {
		return nil, err
	}
	log.Debugf("Using %s for Sass", pre.Name())

	tailwindBin := cfg.TailwindBin
	if tailwindBin == "" {
		if bin, err := exec.LookPath("tailwindcss"); err == nil {
			tailwindBin = bin
		}
	}
	if tailwindBin == "" {
		log.Warn("tailwindcss not found, utility classes will not be generated")
	}

	return styles.NewCompiler(styles.Options{
		Preprocessor: pre,
		Chain:        styles.Chain(tailwindBin, layout.TailwindConfig()),
		IncludePaths: layout.IncludePaths(),
		Logger:       log,
	})
}

// Serve runs the dev server for the project at root until it is signalled.
func Serve(cfg Config, root string) error {
	if !project.DirExists(root) {
		return zerr.With(zerr.New("no such project dir"), "root", root)
	}
	flush, err := SetupLogger(cfg)
	if err != nil {
		return err
	}
	defer flush()

	if cfg.LogDir != "" {
		accessLogger, err := logx.New(fmt.Sprintf("file:%s?buffer=32k&fileDateFormat=20060102", path.Join(cfg.LogDir, "access.log")))
		if err != nil {
			return zerr.Wrap(err, "initiate access logger")
		}
		accessLogger.SetQuite(true)
		rex.Use(rex.AccessLogger(accessLogger))
		defer accessLogger.FlushBuffer()
	}

	layout := project.New(root, cfg.PackageName)
	resolver := resolve.New(layout)
	compiler, err := NewStyleCompiler(cfg, layout)
	if err != nil {
		return err
	}
	cache := bundler.NewCache(layout.DemoEntry(), &bundler.Esbuild{
		WorkDir: layout.DemoRoot(),
		Plugins: bundler.Plugins(resolver, cfg.HotReloadTarget()),
		Logger:  log,
	}, log)

	app := NewApp(layout, resolver, cache, compiler, cfg.Dev)

	rex.Use(
		rex.ErrorLogger(log),
		rex.Header("Server", "avatard"),
		rex.Cors(rex.CORS{
			AllowAllOrigins: true,
			AllowMethods:    []string{"GET"},
			AllowHeaders:    []string{"Origin", "Content-Type", "Content-Length", "Accept-Encoding"},
			MaxAge:          3600,
		}),
		app.Handle(),
	)

	C := rex.Serve(rex.ServerConfig{
		Port: uint16(cfg.Port),
	})

	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGHUP)

	log.Infof("Dev server running at http://localhost:%d", cfg.Port)
	log.Infof("Serving demo from: %s", layout.DemoRoot())

	select {
	case <-c:
		return nil
	case err := <-C:
		return err
	}
}

func init() {
	log = &logx.Logger{}
}
