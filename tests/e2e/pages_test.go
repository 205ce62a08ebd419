//go:build e2e

package e2e

import (
	"fmt"
	"testing"

	"github.com/gotrs-io/pwharness/pageobject"
	"github.com/gotrs-io/pwharness/pwutil"
	"github.com/gotrs-io/pwharness/session"
	"github.com/playwright-community/playwright-go"
)

func pageOptions(t *testing.T, s *session.Session) []pageobject.Option {
	return []pageobject.Option{
		pageobject.WithT(t),
		pageobject.WithContext(s.Context()),
		pageobject.WithLogger(log),
		pageobject.WithConfig(cfg),
	}
}

type LoginPage struct {
	*pageobject.Base[*LoginPage]
	t        *testing.T
	session  *session.Session
	Username playwright.Locator
	Password playwright.Locator
	Submit   playwright.Locator
	Error    playwright.Locator
}

func NewLoginPage(t *testing.T, s *session.Session, page playwright.Page) (*LoginPage, error) {
	p := &LoginPage{
		t:        t,
		session:  s,
		Username: page.Locator("#username"),
		Password: page.Locator("#password"),
		Submit:   page.GetByRole(*playwright.AriaRoleButton, pwutil.HavingName("Sign in")),
		Error:    page.Locator(".error"),
	}
	base, err := pageobject.New(page, page.Locator("form#login"), p, pageOptions(t, s)...)
	if err != nil {
		return nil, err
	}
	p.Base = base
	return p, nil
}

func (p *LoginPage) fill(user, password, role string) error {
	if err := pwutil.SetInputValue(p.Username, user); err != nil {
		return err
	}
	if err := pwutil.SetInputValue(p.Password, password); err != nil {
		return err
	}
	if role == "" {
		return nil
	}
	_, err := p.Page().Locator("#role").SelectOption(playwright.SelectOptionValues{Labels: &[]string{role}})
	return err
}

// SignIn submits valid credentials and returns the dashboard.
func (p *LoginPage) SignIn(user, password, role string) (*DashboardPage, error) {
	if err := p.fill(user, password, role); err != nil {
		return nil, fmt.Errorf("fill login form: %w", err)
	}
	if err := p.Submit.Click(); err != nil {
		return nil, err
	}
	return NewDashboardPage(p.t, p.session, p.Page())
}

// SignInExpectingFailure submits credentials that are rejected.
func (p *LoginPage) SignInExpectingFailure(user, password string) (*LoginPage, error) {
	if err := p.fill(user, password, ""); err != nil {
		return nil, err
	}
	if err := p.Submit.Click(); err != nil {
		return nil, err
	}
	return NewLoginPage(p.t, p.session, p.Page())
}

type DashboardPage struct {
	*pageobject.Base[*DashboardPage]
	Banner   playwright.Locator
	RoleLine playwright.Locator
	Boom     playwright.Locator
	Throw    playwright.Locator
	Save     playwright.Locator
	DropZone playwright.Locator
	Dropped  playwright.Locator
}

func NewDashboardPage(t *testing.T, s *session.Session, page playwright.Page) (*DashboardPage, error) {
	p := &DashboardPage{
		Banner:   page.Locator(".banner"),
		RoleLine: page.Locator("#role-line"),
		Boom:     page.Locator("#boom"),
		Throw:    page.Locator("#throw"),
		Save:     page.GetByRole(*playwright.AriaRoleButton, pwutil.HavingName("Save")),
		DropZone: page.Locator(".dropzone"),
		Dropped:  page.Locator("#dropped"),
	}
	base, err := pageobject.New(page, page.Locator("h1:has-text('Dashboard')"), p, pageOptions(t, s)...)
	if err != nil {
		return nil, err
	}
	p.Base = base
	return p, nil
}
