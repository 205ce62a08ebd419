package pwfake

import (
	"errors"
	"fmt"
	"sync"

	"github.com/playwright-community/playwright-go"
)

// playwrightLocator lets Locator embed the interface without a field named
// Locator shadowing the interface's Locator method.
type playwrightLocator = playwright.Locator

// Locator is a fake playwright.Locator backed by plain fields.
type Locator struct {
	playwrightLocator

	mu       sync.Mutex
	Selector string
	// Missing makes the locator match nothing.
	Missing bool
	// Multiple makes single-element operations fail with a strict mode violation.
	Multiple  bool
	Visible   bool
	Enabled   bool
	Content   string
	Value     string
	Attrs     map[string]string
	Children  []*Locator
	WaitErr   error
	WaitCalls int
	Filled    []string
	Cleared   int
	Events    []string
	EventInit []any
	EvalValue any
	PageFake  *Page
}

func (l *Locator) strictErr() error {
	return fmt.Errorf("strict mode violation: locator('%s') resolved to 2 elements", l.Selector)
}

func (l *Locator) timeoutErr() error {
	return fmt.Errorf("Timeout 30000ms exceeded while waiting for locator('%s')", l.Selector)
}

func (l *Locator) WaitFor(options ...playwright.LocatorWaitForOptions) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.WaitCalls++
	if l.WaitErr != nil {
		return l.WaitErr
	}
	if l.Missing {
		return l.timeoutErr()
	}
	return nil
}

func (l *Locator) IsVisible(options ...playwright.LocatorIsVisibleOptions) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.Multiple {
		return false, l.strictErr()
	}
	return !l.Missing && l.Visible, nil
}

func (l *Locator) Count() (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	switch {
	case l.Missing:
		return 0, nil
	case l.Multiple:
		return 2, nil
	case len(l.Children) > 0:
		return len(l.Children), nil
	default:
		return 1, nil
	}
}

func (l *Locator) TextContent(options ...playwright.LocatorTextContentOptions) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.Missing {
		return "", l.timeoutErr()
	}
	return l.Content, nil
}

func (l *Locator) InputValue(options ...playwright.LocatorInputValueOptions) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.Missing {
		return "", l.timeoutErr()
	}
	return l.Value, nil
}

func (l *Locator) GetAttribute(name string, options ...playwright.LocatorGetAttributeOptions) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.Missing {
		return "", l.timeoutErr()
	}
	return l.Attrs[name], nil
}

func (l *Locator) All() ([]playwright.Locator, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]playwright.Locator, 0, len(l.Children))
	for _, c := range l.Children {
		out = append(out, c)
	}
	return out, nil
}

func (l *Locator) Fill(value string, options ...playwright.LocatorFillOptions) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Filled = append(l.Filled, value)
	l.Value = value
	return nil
}

func (l *Locator) Clear(options ...playwright.LocatorClearOptions) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Cleared++
	l.Value = ""
	return nil
}

func (l *Locator) DispatchEvent(typ string, eventInit any, options ...playwright.LocatorDispatchEventOptions) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Events = append(l.Events, typ)
	l.EventInit = append(l.EventInit, eventInit)
	return nil
}

func (l *Locator) Page() (playwright.Page, error) {
	if l.PageFake == nil {
		return nil, errors.New("locator is not attached to a page")
	}
	return l.PageFake, nil
}

func (l *Locator) Evaluate(expression string, arg any, options ...playwright.LocatorEvaluateOptions) (any, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.EvalValue, nil
}

// Assertions is a fake playwright.LocatorAssertions reading the state of a
// *Locator.
type Assertions struct {
	playwright.LocatorAssertions
	L *Locator
}

// Expect is a drop-in for playwright.NewPlaywrightAssertions().Locator.
func Expect(l playwright.Locator) playwright.LocatorAssertions {
	fl, _ := l.(*Locator)
	return &Assertions{L: fl}
}

var errAssertion = errors.New("assertion failed")

func (a *Assertions) ToBeVisible(options ...playwright.LocatorAssertionsToBeVisibleOptions) error {
	ok, err := a.L.IsVisible()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: locator expected to be visible", errAssertion)
	}
	return nil
}

func (a *Assertions) ToBeEnabled(options ...playwright.LocatorAssertionsToBeEnabledOptions) error {
	a.L.mu.Lock()
	defer a.L.mu.Unlock()
	if a.L.Missing || !a.L.Enabled {
		return fmt.Errorf("%w: locator expected to be enabled", errAssertion)
	}
	return nil
}

func (a *Assertions) ToBeDisabled(options ...playwright.LocatorAssertionsToBeDisabledOptions) error {
	a.L.mu.Lock()
	defer a.L.mu.Unlock()
	if a.L.Missing || a.L.Enabled {
		return fmt.Errorf("%w: locator expected to be disabled", errAssertion)
	}
	return nil
}
