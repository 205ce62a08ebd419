// Package pageobject is the shared base for page objects: one value per
// screen of the application, wrapping the page and exposing assertions that
// return the concrete page type so they chain.
//
//	type LoginPage struct {
//		*pageobject.Base[*LoginPage]
//		submit playwright.Locator
//	}
//
//	func NewLoginPage(t testing.TB, page playwright.Page) (*LoginPage, error) {
//		p := &LoginPage{submit: page.Locator("button[type=submit]")}
//		base, err := pageobject.New(page, page.Locator("form#login"), p, pageobject.WithT(t))
//		if err != nil {
//			return nil, err
//		}
//		p.Base = base
//		return p, nil
//	}
package pageobject

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gotrs-io/pwharness/config"
	"github.com/gotrs-io/pwharness/internal/logging"
	"github.com/gotrs-io/pwharness/waiting"
	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
)

// TB is the part of testing.TB the fluent assertions need.
type TB interface {
	Helper()
	Fatal(args ...any)
}

// Expect builds locator assertions; the default is
// playwright.NewPlaywrightAssertions().Locator.
type Expect func(playwright.Locator) playwright.LocatorAssertions

// Base carries the page and the concrete page object it belongs to.
type Base[T any] struct {
	page    playwright.Page
	self    T
	name    string
	t       TB
	auditor Auditor
	expect  Expect
	polling []waiting.Option
	ctx     context.Context
	log     *zap.Logger
}

type settings struct {
	readyTimeout time.Duration
	t            TB
	cfg          *config.Config
	auditor      Auditor
	expect       Expect
	polling      []waiting.Option
	ctx          context.Context
	log          *zap.Logger
}

// Option configures a page object base.
type Option func(*settings)

// WithReadyTimeout bounds the wait for the defining element. Zero keeps the
// engine default.
func WithReadyTimeout(d time.Duration) Option {
	return func(s *settings) { s.readyTimeout = d }
}

// WithT binds the fluent Assert* helpers to a test.
func WithT(t TB) Option {
	return func(s *settings) { s.t = t }
}

// WithConfig takes the axe-core script for the default auditor from cfg.
// Without it the process configuration is loaded.
func WithConfig(cfg *config.Config) Option {
	return func(s *settings) { s.cfg = cfg }
}

// WithAuditor replaces the axe-core auditor.
func WithAuditor(a Auditor) Option {
	return func(s *settings) { s.auditor = a }
}

func WithExpect(e Expect) Option {
	return func(s *settings) { s.expect = e }
}

// WithPolling sets the bounds used by checks that poll, such as CheckHasOption.
func WithPolling(opts ...waiting.Option) Option {
	return func(s *settings) { s.polling = opts }
}

// WithContext bounds polling checks, typically with session.Session.Context
// so they stop once the browser reported an unexpected error.
func WithContext(ctx context.Context) Option {
	return func(s *settings) { s.ctx = ctx }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *settings) { s.log = l }
}

// New blocks until ready is present on page and returns the base for self.
func New[T any](page playwright.Page, ready playwright.Locator, self T, opts ...Option) (*Base[T], error) {
	s := settings{
		ctx:     context.Background(),
		polling: []waiting.Option{waiting.WithAttempts(10), waiting.WithWaitTime(100 * time.Millisecond)},
	}
	for _, opt := range opts {
		opt(&s)
	}
	if s.auditor == nil {
		s.auditor = AxeAuditor{Script: axeScript(s.cfg)}
	}
	if s.expect == nil {
		s.expect = playwright.NewPlaywrightAssertions().Locator
	}

	b := &Base[T]{
		page:    page,
		self:    self,
		name:    typeName(self),
		t:       s.t,
		auditor: s.auditor,
		expect:  s.expect,
		polling: s.polling,
		ctx:     s.ctx,
		log:     logging.OrNop(s.log).Named("page"),
	}
	b.log.Debug("- "+b.name, zap.String("url", page.URL()))

	var waitOpts playwright.LocatorWaitForOptions
	if s.readyTimeout > 0 {
		waitOpts.Timeout = playwright.Float(float64(s.readyTimeout.Milliseconds()))
	}
	if err := ready.WaitFor(waitOpts); err != nil {
		return nil, &NotReadyError{Page: b.name, URL: page.URL(), Err: err}
	}
	return b, nil
}

func axeScript(cfg *config.Config) string {
	if cfg == nil {
		loaded, err := config.Load()
		if err != nil {
			return config.DefaultAxeScript
		}
		cfg = loaded
	}
	if cfg.AxeScript == "" {
		return config.DefaultAxeScript
	}
	return cfg.AxeScript
}

func typeName(v any) string {
	name := strings.TrimLeft(fmt.Sprintf("%T", v), "*")
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// Self returns the concrete page object.
func (b *Base[T]) Self() T { return b.self }

func (b *Base[T]) Page() playwright.Page { return b.page }

// Name is the concrete page type's name, used in log lines.
func (b *Base[T]) Name() string { return b.name }

// Reload reloads the page. The returned value describes the reloaded page;
// element handles captured before the reload are stale.
func (b *Base[T]) Reload() (T, error) {
	if _, err := b.page.Reload(); err != nil {
		var zero T
		return zero, fmt.Errorf("reload %s: %w", b.name, err)
	}
	return b.self, nil
}

// ValidateAccessibility runs the accessibility audit against the page.
func (b *Base[T]) ValidateAccessibility() (T, error) {
	violations, err := b.auditor.Analyze(b.page)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("accessibility audit of %s: %w", b.name, err)
	}
	if len(violations) > 0 {
		var zero T
		return zero, &AccessibilityError{Violations: violations}
	}
	return b.self, nil
}

// Must fails the bound test when err is non-nil, or when the context from
// WithContext has been cancelled, and otherwise returns the page object.
// Without a bound test it panics.
func (b *Base[T]) Must(err error) T {
	if err == nil {
		err = context.Cause(b.ctx)
	}
	if err != nil {
		if b.t == nil {
			panic(err)
		}
		b.t.Helper()
		b.t.Fatal(err)
	}
	return b.self
}

// AssertAccessible is the fluent form of ValidateAccessibility.
func (b *Base[T]) AssertAccessible() T {
	if b.t != nil {
		b.t.Helper()
	}
	_, err := b.ValidateAccessibility()
	return b.Must(err)
}
