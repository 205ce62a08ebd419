package pageobject

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/gotrs-io/pwharness/waiting"
	"github.com/playwright-community/playwright-go"
)

func isStrictViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "strict mode violation")
}

// CheckVisible waits for element to become visible.
func (b *Base[T]) CheckVisible(element playwright.Locator, name string) error {
	// IsVisible does not wait and is flaky right after navigation.
	err := b.expect(element).ToBeVisible()
	switch {
	case err == nil:
		return nil
	case isStrictViolation(err):
		return mismatch(KindVisible, name, "visible", "multiple", ErrMultipleMatches,
			"Expected %s to be visible, but we found multiple", name)
	default:
		return mismatch(KindVisible, name, "visible", "not visible", err,
			"Expected %s to be visible, but it is not", name)
	}
}

// CheckNotVisible checks that element is hidden or absent right now.
func (b *Base[T]) CheckNotVisible(element playwright.Locator, name string) error {
	visible, err := element.IsVisible()
	switch {
	case isStrictViolation(err):
		return mismatch(KindNotVisible, name, "not visible", "multiple", errors.Join(ErrMultipleMatches, err),
			"Expected %s to be not visible, but we found multiple", name)
	case err != nil:
		return fmt.Errorf("checking visibility of %s: %w", name, err)
	case visible:
		return mismatch(KindNotVisible, name, "not visible", "visible", nil,
			"Expected %s to be not visible, but it is", name)
	}
	return nil
}

func (b *Base[T]) CheckEnabled(element playwright.Locator, name string) error {
	if err := b.expect(element).ToBeEnabled(); err != nil {
		if b.missing(element) {
			return mismatch(KindEnabled, name, "enabled", "missing", ErrNotFound,
				"Expected %s to be enabled, but it was not found", name)
		}
		return mismatch(KindEnabled, name, "enabled", "disabled", err,
			"Expected %s to be enabled, but it is not", name)
	}
	return nil
}

func (b *Base[T]) CheckDisabled(element playwright.Locator, name string) error {
	if err := b.expect(element).ToBeDisabled(); err != nil {
		if b.missing(element) {
			return mismatch(KindDisabled, name, "disabled", "missing", ErrNotFound,
				"Expected %s to be disabled, but it was not found", name)
		}
		return mismatch(KindDisabled, name, "disabled", "enabled", err,
			"Expected %s to be disabled, but it is not", name)
	}
	return nil
}

func (b *Base[T]) missing(element playwright.Locator) bool {
	n, err := element.Count()
	return err == nil && n == 0
}

// CheckText compares the element's text content with expected, either
// exactly or as a substring.
func (b *Base[T]) CheckText(element playwright.Locator, expected, name string, exact bool) error {
	actual, err := element.TextContent()
	if err != nil {
		return mismatch(KindText, name, expected, "", err,
			"Expected %s to contain '%s', but it could not be read: %v", name, expected, err)
	}
	if exact {
		if actual != expected {
			return mismatch(KindText, name, expected, actual, nil,
				"Expected %s to be '%s', but got '%s'", name, expected, actual)
		}
		return nil
	}
	if !strings.Contains(actual, expected) {
		return mismatch(KindText, name, expected, actual, nil,
			"Expected %s to contain '%s', but got '%s'", name, expected, actual)
	}
	return nil
}

func (b *Base[T]) CheckFieldValue(field playwright.Locator, expected, name string) error {
	actual, err := field.InputValue()
	if err != nil {
		return mismatch(KindFieldValue, name, expected, "", err,
			"Expected %s to have value '%s', but it could not be read: %v", name, expected, err)
	}
	if actual != expected {
		return mismatch(KindFieldValue, name, expected, actual, nil,
			"Expected %s to have value '%s', but got '%s'", name, expected, actual)
	}
	return nil
}

func (b *Base[T]) CheckFieldNotEmpty(field playwright.Locator, name string) error {
	actual, err := field.InputValue()
	if err != nil {
		return mismatch(KindFieldNotEmpty, name, "non-empty", "", err,
			"Expected %s to have a value, but it could not be read: %v", name, err)
	}
	if actual == "" {
		return mismatch(KindFieldNotEmpty, name, "non-empty", "", nil,
			"Expected %s to have a value, but it is empty", name)
	}
	return nil
}

// CheckSelectedOption compares the label of the selected option of the
// select element with id selectID.
func (b *Base[T]) CheckSelectedOption(selectID, value string) error {
	option := b.page.Locator("#" + selectID + " > option:checked")
	actual, err := option.GetAttribute("label")
	if err == nil && actual == "" {
		actual, err = option.TextContent()
		actual = strings.TrimSpace(actual)
	}
	if err != nil {
		return mismatch(KindSelectedOption, selectID, value, "", err,
			"Expected %s to have option '%s' selected, but none could be read: %v", selectID, value, err)
	}
	if actual != value {
		return mismatch(KindSelectedOption, selectID, value, actual, nil,
			"Expected %s to have option '%s' selected, but it is '%s'", selectID, value, actual)
	}
	return nil
}

// CheckHasOption polls until the select lists value among its options.
func (b *Base[T]) CheckHasOption(selectID, value string) error {
	var options []string
	err := waiting.Retry(b.ctx, func() error {
		var err error
		options, err = b.optionLabels(selectID)
		if err != nil {
			return err
		}
		if !slices.Contains(options, value) {
			return fmt.Errorf("options are %q", options)
		}
		return nil
	}, b.polling...)
	if err != nil {
		return mismatch(KindHasOption, selectID, value, strings.Join(options, ", "), err,
			"Expected %s to have option '%s', but it has not", selectID, value)
	}
	return nil
}

// CheckNoOption waits for the select to be populated, then checks value is
// not among its options.
func (b *Base[T]) CheckNoOption(selectID, value string) error {
	first := b.page.Locator("#" + selectID + " > option:first-child")
	if err := first.WaitFor(playwright.LocatorWaitForOptions{State: playwright.WaitForSelectorStateAttached}); err != nil {
		return mismatch(KindNoOption, selectID, value, "", errors.Join(ErrNotFound, err),
			"Expected %s to be populated, but no option appeared: %v", selectID, err)
	}
	options, err := b.optionLabels(selectID)
	if err != nil {
		return mismatch(KindNoOption, selectID, value, "", err,
			"Expected %s to not have option '%s', but options could not be read: %v", selectID, value, err)
	}
	if slices.Contains(options, value) {
		return mismatch(KindNoOption, selectID, value, value, nil,
			"Expected %s to not have option '%s', but it has", selectID, value)
	}
	return nil
}

// optionLabels returns the trimmed text of every option, falling back to the
// label attribute for options without text.
func (b *Base[T]) optionLabels(selectID string) ([]string, error) {
	items, err := b.page.Locator("#" + selectID + " > option").All()
	if err != nil {
		return nil, err
	}
	labels := make([]string, 0, len(items))
	for _, item := range items {
		text, err := item.TextContent()
		if err != nil {
			return nil, err
		}
		text = strings.TrimSpace(text)
		if text == "" {
			if text, err = item.GetAttribute("label"); err != nil {
				return nil, err
			}
		}
		labels = append(labels, text)
	}
	return labels, nil
}

// Fluent forms. Each fails the bound test on mismatch and returns the
// concrete page object.

func (b *Base[T]) AssertVisible(element playwright.Locator, name string) T {
	b.helper()
	return b.Must(b.CheckVisible(element, name))
}

func (b *Base[T]) AssertNotVisible(element playwright.Locator, name string) T {
	b.helper()
	return b.Must(b.CheckNotVisible(element, name))
}

func (b *Base[T]) AssertEnabled(element playwright.Locator, name string) T {
	b.helper()
	return b.Must(b.CheckEnabled(element, name))
}

func (b *Base[T]) AssertDisabled(element playwright.Locator, name string) T {
	b.helper()
	return b.Must(b.CheckDisabled(element, name))
}

func (b *Base[T]) AssertText(element playwright.Locator, expected, name string) T {
	b.helper()
	return b.Must(b.CheckText(element, expected, name, false))
}

func (b *Base[T]) AssertExactText(element playwright.Locator, expected, name string) T {
	b.helper()
	return b.Must(b.CheckText(element, expected, name, true))
}

func (b *Base[T]) AssertFieldValue(field playwright.Locator, expected, name string) T {
	b.helper()
	return b.Must(b.CheckFieldValue(field, expected, name))
}

func (b *Base[T]) AssertFieldNotEmpty(field playwright.Locator, name string) T {
	b.helper()
	return b.Must(b.CheckFieldNotEmpty(field, name))
}

func (b *Base[T]) AssertSelectedOption(selectID, value string) T {
	b.helper()
	return b.Must(b.CheckSelectedOption(selectID, value))
}

func (b *Base[T]) AssertHasOption(selectID, value string) T {
	b.helper()
	return b.Must(b.CheckHasOption(selectID, value))
}

func (b *Base[T]) AssertNoOption(selectID, value string) T {
	b.helper()
	return b.Must(b.CheckNoOption(selectID, value))
}

func (b *Base[T]) helper() {
	if b.t != nil {
		b.t.Helper()
	}
}
