// Package browser starts the Playwright driver and a Chromium process that
// sessions open their contexts on.
package browser

import (
	"fmt"
	"sync"

	"github.com/gotrs-io/pwharness/config"
	"github.com/gotrs-io/pwharness/internal/logging"
	"github.com/playwright-community/playwright-go"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Browsers installed by Install.
var Browsers = []string{"chromium"}

// Runtime is a running driver plus one launched browser.
type Runtime struct {
	browser playwright.Browser
	stop    func() error
	log     *zap.Logger

	closeOnce sync.Once
	closeErr  error
}

// driver starts Playwright and returns the Chromium launcher with the
// function that stops the driver again.
type driver func() (playwright.BrowserType, func() error, error)

var (
	install = func() error {
		return playwright.Install(&playwright.RunOptions{Browsers: Browsers})
	}
	start driver = func() (playwright.BrowserType, func() error, error) {
		pw, err := playwright.Run()
		if err != nil {
			return nil, nil, err
		}
		return pw.Chromium, pw.Stop, nil
	}
)

// Install downloads the driver and the browsers the harness uses.
func Install() error {
	if err := install(); err != nil {
		return fmt.Errorf("could not install playwright browsers: %w", err)
	}
	return nil
}

// Launch starts the driver and a Chromium process configured by cfg: headless
// unless VIEW_SPEED is set, in which case every action is delayed by that many
// milliseconds.
func Launch(cfg *config.Config, log *zap.Logger) (*Runtime, error) {
	log = logging.OrNop(log).Named("browser")
	if !cfg.PlaywrightPreinstalled {
		if err := Install(); err != nil {
			return nil, err
		}
	}

	chromium, stop, err := start()
	if err != nil {
		// The driver may be missing or stale; install explicitly and retry once.
		log.Warn("could not start playwright, reinstalling", zap.Error(err))
		_ = install()
		if chromium, stop, err = start(); err != nil {
			return nil, fmt.Errorf("could not start playwright after retry (ensure driver version matches): %w", err)
		}
	}

	b, err := chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(cfg.Headless()),
		SlowMo:   playwright.Float(cfg.SlowMo()),
	})
	if err != nil {
		return nil, multierr.Append(fmt.Errorf("could not launch browser: %w", err), stop())
	}
	log.Info("browser launched", zap.Bool("headless", cfg.Headless()), zap.Float64("slow_mo", cfg.SlowMo()), zap.String("version", b.Version()))
	return &Runtime{browser: b, stop: stop, log: log}, nil
}

func (r *Runtime) Browser() playwright.Browser { return r.browser }

// NewContext opens an isolated context on the browser.
func (r *Runtime) NewContext(options ...playwright.BrowserNewContextOptions) (playwright.BrowserContext, error) {
	return r.browser.NewContext(options...)
}

// Close closes the browser, then stops the driver. Later calls return the
// result of the first.
func (r *Runtime) Close() error {
	r.closeOnce.Do(func() {
		if err := r.browser.Close(); err != nil {
			r.closeErr = multierr.Append(r.closeErr, fmt.Errorf("could not close browser: %w", err))
		}
		if err := r.stop(); err != nil {
			r.closeErr = multierr.Append(r.closeErr, fmt.Errorf("could not stop playwright: %w", err))
		}
		r.log.Debug("browser closed", zap.Error(r.closeErr))
	})
	return r.closeErr
}

var shared struct {
	once sync.Once
	rt   *Runtime
	err  error
}

// Shared launches one runtime per process on first use and returns it on
// every call. Close it from TestMain.
func Shared(cfg *config.Config, log *zap.Logger) (*Runtime, error) {
	shared.once.Do(func() {
		shared.rt, shared.err = Launch(cfg, log)
	})
	return shared.rt, shared.err
}
