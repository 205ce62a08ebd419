package pageobject

import (
	"testing"

	"github.com/gotrs-io/pwharness/internal/pwfake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckVisible(t *testing.T) {
	page := readyPage()
	p, err := newLoginPage(page)
	require.NoError(t, err)

	assert.NoError(t, p.CheckVisible(p.submit, "submit button"))

	hidden := &pwfake.Locator{Selector: ".spinner"}
	err = p.CheckVisible(hidden, "spinner")
	var m *MismatchError
	require.ErrorAs(t, err, &m)
	assert.Equal(t, KindVisible, m.Kind)
	assert.Equal(t, "Expected spinner to be visible, but it is not", err.Error())

	rows := &pwfake.Locator{Selector: "tr", Multiple: true}
	err = p.CheckVisible(rows, "row")
	assert.ErrorIs(t, err, ErrMultipleMatches)
	assert.Equal(t, "Expected row to be visible, but we found multiple", err.Error())
}

func TestCheckNotVisible(t *testing.T) {
	p, err := newLoginPage(readyPage())
	require.NoError(t, err)

	assert.NoError(t, p.CheckNotVisible(&pwfake.Locator{Selector: ".error", Missing: true}, "error"))
	assert.NoError(t, p.CheckNotVisible(&pwfake.Locator{Selector: ".error"}, "error"))

	err = p.CheckNotVisible(p.banner, "banner")
	assert.Equal(t, "Expected banner to be not visible, but it is", err.Error())

	err = p.CheckNotVisible(&pwfake.Locator{Selector: "li", Multiple: true}, "item")
	assert.ErrorIs(t, err, ErrMultipleMatches)
	assert.Equal(t, "Expected item to be not visible, but we found multiple", err.Error())
	var m *MismatchError
	require.ErrorAs(t, err, &m)
	assert.ErrorContains(t, m.Err, "strict mode violation", "engine error is kept behind the message")
}

func TestCheckEnabledDisabled(t *testing.T) {
	p, err := newLoginPage(readyPage())
	require.NoError(t, err)

	assert.NoError(t, p.CheckEnabled(p.submit, "submit"))
	err = p.CheckDisabled(p.submit, "submit")
	assert.Equal(t, "Expected submit to be disabled, but it is not", err.Error())

	off := &pwfake.Locator{Selector: "#save"}
	assert.NoError(t, p.CheckDisabled(off, "save"))
	err = p.CheckEnabled(off, "save")
	assert.Equal(t, "Expected save to be enabled, but it is not", err.Error())

	gone := &pwfake.Locator{Selector: "#gone", Missing: true}
	err = p.CheckEnabled(gone, "gone")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "Expected gone to be enabled, but it was not found", err.Error())
	err = p.CheckDisabled(gone, "gone")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCheckText(t *testing.T) {
	p, err := newLoginPage(readyPage())
	require.NoError(t, err)

	assert.NoError(t, p.CheckText(p.banner, "Ada", "banner", false))
	assert.NoError(t, p.CheckText(p.banner, "Welcome back, Ada", "banner", true))

	err = p.CheckText(p.banner, "Ada", "banner", true)
	var m *MismatchError
	require.ErrorAs(t, err, &m)
	assert.Equal(t, "Ada", m.Expected)
	assert.Equal(t, "Welcome back, Ada", m.Actual)
	assert.Equal(t, "Expected banner to be 'Ada', but got 'Welcome back, Ada'", err.Error())

	err = p.CheckText(p.banner, "Grace", "banner", false)
	assert.Equal(t, "Expected banner to contain 'Grace', but got 'Welcome back, Ada'", err.Error())
}

func TestCheckFieldValue(t *testing.T) {
	p, err := newLoginPage(readyPage())
	require.NoError(t, err)

	err = p.CheckFieldNotEmpty(p.username, "username")
	assert.Equal(t, "Expected username to have a value, but it is empty", err.Error())

	require.NoError(t, p.username.Fill("ada"))
	assert.NoError(t, p.CheckFieldNotEmpty(p.username, "username"))
	assert.NoError(t, p.CheckFieldValue(p.username, "ada", "username"))

	err = p.CheckFieldValue(p.username, "grace", "username")
	assert.Equal(t, "Expected username to have value 'grace', but got 'ada'", err.Error())
}

func selectPage(options ...*pwfake.Locator) *pwfake.Page {
	page := readyPage()
	page.Locators["#role > option"] = &pwfake.Locator{Selector: "#role > option", Children: options}
	if len(options) > 0 {
		page.Locators["#role > option:first-child"] = options[0]
	}
	return page
}

func TestCheckSelectedOption(t *testing.T) {
	page := selectPage()
	page.Locators["#role > option:checked"] = &pwfake.Locator{Content: "  Agent \n"}
	p, err := newLoginPage(page)
	require.NoError(t, err)

	assert.NoError(t, p.CheckSelectedOption("role", "Agent"))
	err = p.CheckSelectedOption("role", "Admin")
	assert.Equal(t, "Expected role to have option 'Admin' selected, but it is 'Agent'", err.Error())

	page.Locators["#role > option:checked"] = &pwfake.Locator{Content: "adm", Attrs: map[string]string{"label": "Admin"}}
	assert.NoError(t, p.CheckSelectedOption("role", "Admin"))
}

func TestCheckHasOption(t *testing.T) {
	page := selectPage(&pwfake.Locator{Content: "Agent"}, &pwfake.Locator{Content: " ", Attrs: map[string]string{"label": "Customer"}})
	p, err := newLoginPage(page)
	require.NoError(t, err)

	assert.NoError(t, p.CheckHasOption("role", "Agent"))
	assert.NoError(t, p.CheckHasOption("role", "Customer"))

	err = p.CheckHasOption("role", "Admin")
	var m *MismatchError
	require.ErrorAs(t, err, &m)
	assert.Equal(t, KindHasOption, m.Kind)
	assert.Equal(t, "Agent, Customer", m.Actual)
	assert.Equal(t, "Expected role to have option 'Admin', but it has not", err.Error())
}

func TestCheckNoOption(t *testing.T) {
	page := selectPage(&pwfake.Locator{Content: "Agent"})
	p, err := newLoginPage(page)
	require.NoError(t, err)

	assert.NoError(t, p.CheckNoOption("role", "Admin"))
	err = p.CheckNoOption("role", "Agent")
	assert.Equal(t, "Expected role to not have option 'Agent', but it has", err.Error())

	empty, err := newLoginPage(selectPage())
	require.NoError(t, err)
	err = empty.CheckNoOption("role", "Admin")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFluentAssertionsChain(t *testing.T) {
	rec := &fatalRecorder{}
	p, err := newLoginPage(readyPage(), WithT(rec))
	require.NoError(t, err)

	got := p.AssertVisible(p.submit, "submit").
		AssertEnabled(p.submit, "submit").
		AssertText(p.banner, "Ada", "banner").
		AssertExactText(p.banner, "Welcome back, Ada", "banner").
		AssertNotVisible(&pwfake.Locator{Missing: true}, "error")
	assert.Same(t, p, got)
	assert.Empty(t, rec.fatals)

	p.AssertDisabled(p.submit, "submit").AssertFieldNotEmpty(p.username, "username")
	assert.Equal(t, []string{
		"Expected submit to be disabled, but it is not",
		"Expected username to have a value, but it is empty",
	}, rec.fatals)
}
