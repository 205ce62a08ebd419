// Package harness ties sessions to the life of a test. A Registry holds the
// sessions a test opened and, when the test ends, finalizes them: traces are
// saved when the test failed or SAVE_ALL_TRACES is set, and discarded
// otherwise. The browser console of every session is then written to the
// test log.
package harness

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gotrs-io/pwharness/browser"
	"github.com/gotrs-io/pwharness/config"
	"github.com/gotrs-io/pwharness/internal/logging"
	"github.com/gotrs-io/pwharness/session"
	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// TB is the part of testing.TB the registry uses.
type TB interface {
	Helper()
	Name() string
	Failed() bool
	Cleanup(func())
	Errorf(format string, args ...any)
	Log(args ...any)
}

// Registry maps session ids to sessions for one test.
type Registry struct {
	t        TB
	cfg      *config.Config
	log      *zap.Logger
	browser  session.ContextFactory
	identity Identity
	runID    string

	mu       sync.Mutex
	order    []string
	sessions map[string]*session.Session
}

type options struct {
	cfg      *config.Config
	log      *zap.Logger
	browser  session.ContextFactory
	identity *Identity
	pkg      string
}

// Option configures a Registry.
type Option func(*options)

func WithConfig(cfg *config.Config) Option {
	return func(o *options) { o.cfg = cfg }
}

func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithBrowser sets the browser NewSession opens contexts on. The default is
// the process-wide browser.Shared runtime, launched on first use.
func WithBrowser(b session.ContextFactory) Option {
	return func(o *options) { o.browser = b }
}

// WithIdentity overrides the identity derived from the test.
func WithIdentity(i Identity) Option {
	return func(o *options) { o.identity = &i }
}

// WithPackage overrides the package segment of trace paths, which defaults
// to the import path of the code calling NewRegistry.
func WithPackage(pkg string) Option {
	return func(o *options) { o.pkg = pkg }
}

// NewRegistry returns an empty registry whose teardown runs in t.Cleanup.
func NewRegistry(t TB, opts ...Option) *Registry {
	t.Helper()
	o := options{pkg: callerPackage(1)}
	for _, opt := range opts {
		opt(&o)
	}
	if o.cfg == nil {
		o.cfg = config.MustLoad()
	}
	if o.browser == nil {
		o.browser = sharedBrowser{cfg: o.cfg, log: o.log}
	}
	identity := IdentityOf(t, o.pkg)
	if o.identity != nil {
		identity = *o.identity
	}

	runID := uuid.NewString()
	r := &Registry{
		t:        t,
		cfg:      o.cfg,
		log:      logging.OrNop(o.log).Named("harness").With(zap.String("test", t.Name()), zap.String("run", runID)),
		browser:  o.browser,
		identity: identity,
		runID:    runID,
		sessions: make(map[string]*session.Session),
	}
	t.Cleanup(r.teardown)
	return r
}

// RunID identifies this registry in log lines.
func (r *Registry) RunID() string { return r.runID }

func (r *Registry) Identity() Identity { return r.identity }

// Add registers s under id. Ids are unique per registry.
func (r *Registry) Add(id string, s *session.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; ok {
		return fmt.Errorf("session %q already registered", id)
	}
	r.order = append(r.order, id)
	r.sessions[id] = s
	return nil
}

// Session returns the session registered under id, creating and registering
// it with ctor on first use.
func (r *Registry) Session(id string, ctor func() *session.Session) *session.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		return s
	}
	s := ctor()
	r.order = append(r.order, id)
	r.sessions[id] = s
	return s
}

// NewSession is Session with a constructor that opens contexts on the
// registry's browser, reports unexpected browser errors to the test and
// shares the registry's config and logger. opts are applied last.
func (r *Registry) NewSession(id string, opts ...session.Option) *session.Session {
	return r.Session(id, func() *session.Session {
		all := append([]session.Option{
			session.WithConfig(r.cfg),
			session.WithLogger(r.log),
			session.WithReporter(r.t),
		}, opts...)
		return session.New(id, r.browser, all...)
	})
}

// Sessions returns the registered sessions in registration order.
func (r *Registry) Sessions() []*session.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*session.Session, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.sessions[id])
	}
	return out
}

// TracePath is where the trace of session id is saved if the test fails.
func (r *Registry) TracePath(id string) string {
	r.mu.Lock()
	n := len(r.order)
	r.mu.Unlock()
	return TracePath(r.cfg.TraceDir, r.identity, id, n)
}

type sharedBrowser struct {
	cfg *config.Config
	log *zap.Logger
}

func (b sharedBrowser) NewContext(options ...playwright.BrowserNewContextOptions) (playwright.BrowserContext, error) {
	rt, err := browser.Shared(b.cfg, b.log)
	if err != nil {
		return nil, err
	}
	return rt.NewContext(options...)
}

func (r *Registry) teardown() {
	sessions := r.Sessions()
	save := r.cfg.SaveAllTraces || r.t.Failed()
	r.log.Debug("tearing down sessions", zap.Int("sessions", len(sessions)), zap.Bool("save_traces", save))

	errs := make([]error, len(sessions))
	var g errgroup.Group
	for i, s := range sessions {
		g.Go(func() error {
			if save {
				errs[i] = s.Finalize(r.identity.Segments(s.ID(), len(sessions))...)
			} else {
				errs[i] = s.Finalize()
			}
			return nil
		})
	}
	_ = g.Wait()

	for i, s := range sessions {
		if errs[i] != nil {
			r.log.Error("session teardown failed", zap.String("session", s.ID()), zap.Error(errs[i]))
			r.t.Errorf("teardown of session %q: %v", s.ID(), errs[i])
		}
		if path := s.TraceFile(); path != "" {
			r.t.Log("trace saved to " + path)
		}
	}
	for _, s := range sessions {
		r.t.Log(ConsoleReport(s.ID(), s.Console()))
		r.log.Debug("browser console", zap.String("session", s.ID()), zap.Int("messages", len(s.Console())))
	}
}

// ConsoleReport renders the captured console of one session.
func ConsoleReport(id string, messages []session.ConsoleMessage) string {
	var b strings.Builder
	fmt.Fprintf(&b, "==== Browser Console Log for %s ====\n", id)
	for _, m := range messages {
		fmt.Fprintf(&b, " %-8s %s\n", strings.ToUpper(m.Level), m.Text)
	}
	return b.String()
}
