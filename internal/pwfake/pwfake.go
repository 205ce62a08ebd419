// Package pwfake provides in-memory stand-ins for the playwright-go
// interfaces the harness touches. Each fake embeds the interface it stands
// in for, so calling a method that is not implemented here panics with a
// nil dereference and points straight at the missing piece.
package pwfake

import (
	"errors"
	"sync"

	"github.com/playwright-community/playwright-go"
)

// Browser hands out Context and records every call.
type Browser struct {
	mu       sync.Mutex
	Context  *Context
	Err      error
	Options  []playwright.BrowserNewContextOptions
	Contexts int
}

func NewBrowser() *Browser {
	return &Browser{Context: NewContext()}
}

func (b *Browser) NewContext(options ...playwright.BrowserNewContextOptions) (playwright.BrowserContext, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Options = append(b.Options, options...)
	if b.Err != nil {
		return nil, b.Err
	}
	b.Contexts++
	return b.Context, nil
}

// Context is a fake playwright.BrowserContext.
type Context struct {
	playwright.BrowserContext

	mu             sync.Mutex
	Trace          *Tracing
	PageFake       *Page
	NewPageErr     error
	CloseErr       error
	NewPageCalls   int
	CloseCalls     int
	DefaultTimeout float64
}

func NewContext() *Context {
	return &Context{Trace: &Tracing{}, PageFake: NewPage()}
}

func (c *Context) SetDefaultTimeout(timeout float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.DefaultTimeout = timeout
}

func (c *Context) Tracing() playwright.Tracing { return c.Trace }

func (c *Context) NewPage() (playwright.Page, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.NewPageCalls++
	if c.NewPageErr != nil {
		return nil, c.NewPageErr
	}
	return c.PageFake, nil
}

func (c *Context) Close(options ...playwright.BrowserContextCloseOptions) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.CloseCalls++
	return c.CloseErr
}

// Calls returns NewPage and Close call counts.
func (c *Context) Calls() (newPage, closed int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.NewPageCalls, c.CloseCalls
}

// Tracing is a fake playwright.Tracing.
type Tracing struct {
	playwright.Tracing

	mu        sync.Mutex
	StartErr  error
	StopErr   error
	Starts    []playwright.TracingStartOptions
	StopPaths []string
	Stops     int
}

func (t *Tracing) Start(options ...playwright.TracingStartOptions) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Starts = append(t.Starts, options...)
	return t.StartErr
}

func (t *Tracing) Stop(path ...string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Stops++
	t.StopPaths = append(t.StopPaths, path...)
	return t.StopErr
}

// Page is a fake playwright.Page. Emit* drive the registered listeners the
// way the engine's event goroutine would.
type Page struct {
	playwright.Page

	mu           sync.Mutex
	console      []func(playwright.ConsoleMessage)
	pageErrors   []func(error)
	Gotos        []string
	GotoErr      error
	Reloads      int
	ReloadErr    error
	Url          string
	Locators     map[string]*Locator
	ScriptTags   []playwright.PageAddScriptTagOptions
	ScriptTagErr error
	EvalResult   any
	EvalErr      error
	Evaluated    []string
	EvalArgs     []any
}

func NewPage() *Page {
	return &Page{Url: "about:blank", Locators: map[string]*Locator{}}
}

func (p *Page) OnConsole(fn func(playwright.ConsoleMessage)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.console = append(p.console, fn)
}

func (p *Page) OnPageError(fn func(error)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pageErrors = append(p.pageErrors, fn)
}

func (p *Page) Goto(url string, options ...playwright.PageGotoOptions) (playwright.Response, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Gotos = append(p.Gotos, url)
	if p.GotoErr == nil {
		p.Url = url
	}
	return nil, p.GotoErr
}

func (p *Page) Reload(options ...playwright.PageReloadOptions) (playwright.Response, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Reloads++
	return nil, p.ReloadErr
}

func (p *Page) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Url
}

// Locator returns the locator registered for selector, or a locator that
// matches nothing.
func (p *Page) Locator(selector string, options ...playwright.PageLocatorOptions) playwright.Locator {
	p.mu.Lock()
	defer p.mu.Unlock()
	if l, ok := p.Locators[selector]; ok {
		return l
	}
	return &Locator{Selector: selector, Missing: true}
}

func (p *Page) AddScriptTag(options playwright.PageAddScriptTagOptions) (playwright.ElementHandle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ScriptTags = append(p.ScriptTags, options)
	return nil, p.ScriptTagErr
}

func (p *Page) Evaluate(expression string, arg ...any) (any, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Evaluated = append(p.Evaluated, expression)
	p.EvalArgs = append(p.EvalArgs, arg...)
	return p.EvalResult, p.EvalErr
}

func (p *Page) EvaluateHandle(expression string, arg ...any) (playwright.JSHandle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Evaluated = append(p.Evaluated, expression)
	p.EvalArgs = append(p.EvalArgs, arg...)
	if p.EvalErr != nil {
		return nil, p.EvalErr
	}
	return &JSHandle{Expression: expression}, nil
}

// EmitConsole delivers a console message to every listener.
func (p *Page) EmitConsole(level, text string) {
	p.mu.Lock()
	fns := append([]func(playwright.ConsoleMessage){}, p.console...)
	p.mu.Unlock()
	for _, fn := range fns {
		fn(&ConsoleMessage{Level: level, Message: text})
	}
}

// EmitPageError delivers an uncaught page error to every listener.
func (p *Page) EmitPageError(text string) {
	p.mu.Lock()
	fns := append([]func(error){}, p.pageErrors...)
	p.mu.Unlock()
	for _, fn := range fns {
		fn(errors.New(text))
	}
}

// ConsoleMessage is a fake playwright.ConsoleMessage.
type ConsoleMessage struct {
	playwright.ConsoleMessage
	Level   string
	Message string
}

func (m *ConsoleMessage) Type() string { return m.Level }
func (m *ConsoleMessage) Text() string { return m.Message }

// JSHandle is a fake playwright.JSHandle naming the expression it came from.
type JSHandle struct {
	playwright.JSHandle
	Expression string
}
