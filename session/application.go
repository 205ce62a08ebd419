package session

import "github.com/playwright-community/playwright-go"

// Application pairs a session with the page object its base URL lands on.
// Define one per application of the system under test, for example a
// customer portal and an agent console.
type Application[T any] struct {
	*Session
	initial func(playwright.Page) (T, error)
}

// NewApplication wraps s. initial builds the page object for the view the
// browser shows right after the base URL was opened.
func NewApplication[T any](s *Session, initial func(playwright.Page) (T, error)) *Application[T] {
	return &Application[T]{Session: s, initial: initial}
}

// Start opens the application if needed and returns its initial page object.
func (a *Application[T]) Start() (T, error) {
	page, err := a.Page()
	if err != nil {
		var zero T
		return zero, err
	}
	return a.initial(page)
}
