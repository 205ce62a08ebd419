package pageobject

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMultipleMatches marks checks whose locator resolved to more than one element.
	ErrMultipleMatches = errors.New("found multiple matching elements")
	// ErrNotFound marks checks whose element was not present at all.
	ErrNotFound = errors.New("element not found")
)

// NotReadyError is returned when a page object's defining element never appeared.
type NotReadyError struct {
	Page string
	URL  string
	Err  error
}

func (e *NotReadyError) Error() string {
	return fmt.Sprintf("%s not ready at %s: %v", e.Page, e.URL, e.Err)
}

func (e *NotReadyError) Unwrap() error { return e.Err }

// Kind names the check that failed.
type Kind string

const (
	KindVisible        Kind = "visible"
	KindNotVisible     Kind = "not visible"
	KindEnabled        Kind = "enabled"
	KindDisabled       Kind = "disabled"
	KindText           Kind = "text"
	KindFieldValue     Kind = "field value"
	KindFieldNotEmpty  Kind = "field not empty"
	KindSelectedOption Kind = "selected option"
	KindHasOption      Kind = "has option"
	KindNoOption       Kind = "no option"
)

// MismatchError is a failed page assertion.
type MismatchError struct {
	Kind     Kind
	Target   string
	Expected string
	Actual   string
	// Err is ErrMultipleMatches, ErrNotFound, or the engine error behind
	// the failure, if any.
	Err error
	msg string
}

func (e *MismatchError) Error() string { return e.msg }

func (e *MismatchError) Unwrap() error { return e.Err }

func mismatch(kind Kind, target, expected, actual string, err error, format string, args ...any) *MismatchError {
	return &MismatchError{
		Kind:     kind,
		Target:   target,
		Expected: expected,
		Actual:   actual,
		Err:      err,
		msg:      fmt.Sprintf(format, args...),
	}
}

// Violation is one accessibility rule failure reported by the audit.
type Violation struct {
	ID          string `mapstructure:"id"`
	Impact      string `mapstructure:"impact"`
	Description string `mapstructure:"description"`
	Help        string `mapstructure:"help"`
	HelpURL     string `mapstructure:"helpUrl"`
}

// AccessibilityError lists the violations found on a page.
type AccessibilityError struct {
	Violations []Violation
}

func (e *AccessibilityError) Error() string {
	var b strings.Builder
	b.WriteString("Accessibility violations found:")
	for _, v := range e.Violations {
		fmt.Fprintf(&b, "\n[%s] %s: %s", v.ID, v.Impact, v.Description)
	}
	return b.String()
}
