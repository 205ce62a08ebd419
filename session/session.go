// Package session manages the life of one application under test: its
// browser context, primary page, console capture and trace recording.
package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gotrs-io/pwharness/config"
	"github.com/gotrs-io/pwharness/internal/logging"
	"github.com/playwright-community/playwright-go"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	DefaultTimeout           = 10 * time.Second
	DefaultNavigationTimeout = 20 * time.Second
	TraceExt                 = ".zip"
)

// State is the lifecycle position of a Session.
type State int32

const (
	NotStarted State = iota
	Started
	Finalized
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not-started"
	case Started:
		return "started"
	case Finalized:
		return "finalized"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// ContextFactory creates isolated browser contexts. playwright.Browser
// satisfies it.
type ContextFactory interface {
	NewContext(options ...playwright.BrowserNewContextOptions) (playwright.BrowserContext, error)
}

// Reporter receives unexpected browser errors as they happen. *testing.T
// satisfies it; Errorf is safe to call from the engine's event goroutine.
type Reporter interface {
	Errorf(format string, args ...any)
}

// ConsoleMessage is one captured browser console entry.
type ConsoleMessage struct {
	Level string
	Text  string
}

// Session is one application under test.
type Session struct {
	id                string
	baseURL           string
	cfg               *config.Config
	browser           ContextFactory
	log               *zap.Logger
	reporter          Reporter
	timeout           time.Duration
	navigationTimeout time.Duration

	ctx    context.Context
	cancel context.CancelCauseFunc

	// mu serialises lifecycle transitions. Event listeners never take it.
	mu        sync.Mutex
	state     atomic.Int32
	bctx      playwright.BrowserContext
	page      playwright.Page
	traceFile string
	// navErr is the last failed navigation of the primary page. Page
	// retries it until the base URL loads.
	navErr error

	logMu      sync.Mutex
	console    []ConsoleMessage
	pageErrors []string
	expected   []func(string) bool
	failure    error
}

type options struct {
	defaultBaseURL    string
	cfg               *config.Config
	log               *zap.Logger
	reporter          Reporter
	parent            context.Context
	timeout           time.Duration
	navigationTimeout time.Duration
}

// Option configures a Session.
type Option func(*options)

// WithDefaultBaseURL sets the URL opened when no BASE_URL override is configured.
func WithDefaultBaseURL(u string) Option {
	return func(o *options) { o.defaultBaseURL = u }
}

func WithConfig(cfg *config.Config) Option {
	return func(o *options) { o.cfg = cfg }
}

func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithReporter makes unexpected browser errors fail the test immediately.
func WithReporter(r Reporter) Option {
	return func(o *options) { o.reporter = r }
}

// WithContext sets the parent of the session context.
func WithContext(ctx context.Context) Option {
	return func(o *options) { o.parent = ctx }
}

// WithTimeouts overrides the default per-operation and navigation timeouts.
func WithTimeouts(operation, navigation time.Duration) Option {
	return func(o *options) {
		o.timeout = operation
		o.navigationTimeout = navigation
	}
}

// New creates a session in the NotStarted state. Nothing is opened in the
// browser until the first call to Page.
func New(id string, browser ContextFactory, opts ...Option) *Session {
	o := options{
		parent:            context.Background(),
		timeout:           DefaultTimeout,
		navigationTimeout: DefaultNavigationTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.cfg == nil {
		o.cfg = config.Default()
	}

	ctx, cancel := context.WithCancelCause(o.parent)
	s := &Session{
		id:                id,
		baseURL:           resolveBaseURL(o.cfg.BaseURL, o.defaultBaseURL),
		cfg:               o.cfg,
		browser:           browser,
		log:               logging.OrNop(o.log).Named("session").With(zap.String("session", id)),
		reporter:          o.reporter,
		timeout:           o.timeout,
		navigationTimeout: o.navigationTimeout,
		ctx:               ctx,
		cancel:            cancel,
	}
	return s
}

func resolveBaseURL(override, fallback string) string {
	if override != "" {
		return override
	}
	return fallback
}

func (s *Session) ID() string { return s.id }

// BaseURL is the URL the primary page navigates to on start.
func (s *Session) BaseURL() string { return s.baseURL }

func (s *Session) State() State { return State(s.state.Load()) }

func (s *Session) Started() bool { return s.State() == Started }

// Context is cancelled when an unexpected browser error fires or the
// session is finalized. Bind waits to it so they stop on the spot.
func (s *Session) Context() context.Context { return s.ctx }

// Err returns the first unexpected browser error, if any.
func (s *Session) Err() error {
	s.logMu.Lock()
	defer s.logMu.Unlock()
	return s.failure
}

// Page returns the primary page, starting the session on first use. While
// the base URL has not loaded, every call navigates again and returns the
// navigation error on failure.
func (s *Session) Page() (playwright.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.State() {
	case Finalized:
		return nil, ErrFinalized
	case NotStarted:
		if err := s.start(); err != nil {
			return nil, err
		}
	case Started:
		if s.navErr != nil {
			if err := s.navigate(); err != nil {
				return nil, err
			}
		}
	}
	return s.page, s.Err()
}

func (s *Session) start() error {
	locale := s.cfg.Locale
	if locale == "" {
		locale = config.DefaultLocale
	}
	opts := playwright.BrowserNewContextOptions{
		Locale: playwright.String(locale),
	}
	if s.cfg.VideoDir != "" {
		opts.RecordVideo = &playwright.RecordVideo{Dir: s.cfg.VideoDir}
	}
	bctx, err := s.browser.NewContext(opts)
	if err != nil {
		return fmt.Errorf("could not create context for session %q: %w", s.id, err)
	}
	bctx.SetDefaultTimeout(float64(s.timeout.Milliseconds()))

	if err := bctx.Tracing().Start(playwright.TracingStartOptions{
		Name:        playwright.String(s.id),
		Screenshots: playwright.Bool(true),
		Snapshots:   playwright.Bool(true),
		Sources:     playwright.Bool(true),
	}); err != nil {
		return multierr.Append(fmt.Errorf("could not start tracing for session %q: %w", s.id, err), bctx.Close())
	}

	page, err := bctx.NewPage()
	if err != nil {
		return multierr.Append(fmt.Errorf("could not create page for session %q: %w", s.id, err), bctx.Close())
	}
	page.OnConsole(s.onConsole)
	page.OnPageError(s.onPageError)

	// From here on the context belongs to the session, so a failed
	// navigation still leaves a trace to save at teardown.
	s.bctx = bctx
	s.page = page
	s.state.Store(int32(Started))
	s.log.Debug("session started", zap.String("url", s.baseURL))

	return s.navigate()
}

// navigate opens the base URL in the primary page, recording a failure so
// the next Page call tries again instead of handing out a blank page.
func (s *Session) navigate() error {
	if _, err := s.page.Goto(s.baseURL, playwright.PageGotoOptions{
		Timeout: playwright.Float(float64(s.navigationTimeout.Milliseconds())),
	}); err != nil {
		s.navErr = fmt.Errorf("could not open %s in session %q: %w", s.baseURL, s.id, err)
		s.log.Warn("navigation failed", zap.Error(err))
		return s.navErr
	}
	s.navErr = nil
	return nil
}

// Reload reloads the primary page if the session has one.
func (s *Session) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.State() != Started {
		return nil
	}
	_, err := s.page.Reload()
	return err
}

// ExpectError registers an error text that must not fail the test.
func (s *Session) ExpectError(text string) {
	s.ExpectErrorFunc(func(got string) bool { return got == text })
}

// ExpectErrorFunc registers a predicate over error texts. Predicates
// accumulate; any match makes an error expected.
func (s *Session) ExpectErrorFunc(pred func(string) bool) {
	s.logMu.Lock()
	defer s.logMu.Unlock()
	s.expected = append(s.expected, pred)
}

// Console returns a copy of the captured console messages.
func (s *Session) Console() []ConsoleMessage {
	s.logMu.Lock()
	defer s.logMu.Unlock()
	return append([]ConsoleMessage(nil), s.console...)
}

// PageErrors returns a copy of the captured uncaught page errors.
func (s *Session) PageErrors() []string {
	s.logMu.Lock()
	defer s.logMu.Unlock()
	return append([]string(nil), s.pageErrors...)
}

func (s *Session) onConsole(msg playwright.ConsoleMessage) {
	m := ConsoleMessage{Level: msg.Type(), Text: msg.Text()}
	s.logMu.Lock()
	s.console = append(s.console, m)
	unexpected := m.Level == "error" && !s.isExpected(m.Text)
	s.logMu.Unlock()

	if unexpected {
		s.fail(&UnexpectedBrowserError{Session: s.id, Source: SourceConsole, Text: m.Text})
	}
}

func (s *Session) onPageError(err error) {
	text := err.Error()
	s.logMu.Lock()
	s.pageErrors = append(s.pageErrors, text)
	unexpected := !s.isExpected(text)
	s.logMu.Unlock()

	if unexpected {
		s.fail(&UnexpectedBrowserError{Session: s.id, Source: SourcePage, Text: text})
	}
}

// isExpected must be called with logMu held.
func (s *Session) isExpected(text string) bool {
	for _, pred := range s.expected {
		if pred(text) {
			return true
		}
	}
	return false
}

func (s *Session) fail(err *UnexpectedBrowserError) {
	s.logMu.Lock()
	if s.failure == nil {
		s.failure = err
	}
	s.logMu.Unlock()

	s.log.Error("unexpected browser error", zap.String("source", string(err.Source)), zap.String("text", err.Text))
	if s.reporter != nil && s.State() == Started {
		s.reporter.Errorf("%v", err)
	}
	s.cancel(err)
}

// Finalize stops tracing and releases the browser context. With no name the
// trace is discarded; otherwise it is saved under the trace root using all
// but the last segment as directories and the last as the file stem.
// Finalizing a session that never started touches nothing.
func (s *Session) Finalize(name ...string) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := State(s.state.Swap(int32(Finalized)))
	defer s.cancel(ErrFinalized)
	if prev != Started {
		return nil
	}

	if len(name) == 0 {
		if stopErr := s.bctx.Tracing().Stop(); stopErr != nil {
			err = multierr.Append(err, fmt.Errorf("could not stop tracing for session %q: %w", s.id, stopErr))
		}
	} else {
		path := TraceFile(s.cfg.TraceDir, name...)
		if mkErr := os.MkdirAll(filepath.Dir(path), 0o755); mkErr != nil {
			err = multierr.Append(err, fmt.Errorf("could not create trace directory: %w", mkErr))
		}
		if stopErr := s.bctx.Tracing().Stop(path); stopErr != nil {
			err = multierr.Append(err, fmt.Errorf("could not save trace for session %q to %s: %w", s.id, path, stopErr))
		} else {
			s.traceFile = path
			s.log.Info("saved trace", zap.String("path", path))
		}
	}

	if closeErr := s.bctx.Close(); closeErr != nil {
		err = multierr.Append(err, fmt.Errorf("could not close context for session %q: %w", s.id, closeErr))
	}
	return err
}

// TraceFile is the saved trace archive, empty unless Finalize saved one.
func (s *Session) TraceFile() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.traceFile
}

// TraceFile resolves a hierarchical trace name under root.
func TraceFile(root string, name ...string) string {
	if len(name) == 0 {
		return ""
	}
	parts := make([]string, 0, len(name)+1)
	parts = append(parts, root)
	for _, seg := range name[:len(name)-1] {
		parts = append(parts, cleanSegment(seg))
	}
	parts = append(parts, cleanSegment(name[len(name)-1])+TraceExt)
	return filepath.Join(parts...)
}

var segmentReplacer = strings.NewReplacer("/", "_", `\`, "_", "..", "_")

func cleanSegment(seg string) string {
	seg = segmentReplacer.Replace(strings.TrimSpace(seg))
	if seg == "" {
		return "UNKNOWN"
	}
	return seg
}
