package session

import (
	"errors"
	"fmt"
)

// ErrFinalized is returned when a page is requested from a torn-down session.
var ErrFinalized = errors.New("session already finalized")

// Source tells where an unexpected browser error came from.
type Source string

const (
	SourceConsole Source = "console"
	SourcePage    Source = "page"
)

// UnexpectedBrowserError is a console error or uncaught page error that no
// registered expectation matched.
type UnexpectedBrowserError struct {
	Session string
	Source  Source
	Text    string
}

func (e *UnexpectedBrowserError) Error() string {
	switch e.Source {
	case SourcePage:
		return fmt.Sprintf("caught uncaught page error in session %q:\n%s", e.Session, e.Text)
	default:
		return fmt.Sprintf("caught browser error in session %q:\n%s", e.Session, e.Text)
	}
}
