package pageobject

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/playwright-community/playwright-go"
)

// Auditor runs an accessibility audit against a page.
type Auditor interface {
	Analyze(page playwright.Page) ([]Violation, error)
}

// AuditorFunc adapts a function to Auditor.
type AuditorFunc func(page playwright.Page) ([]Violation, error)

func (f AuditorFunc) Analyze(page playwright.Page) ([]Violation, error) { return f(page) }

// AxeAuditor injects axe-core into the page and reports its violations.
// Script is a file path or an http(s) URL of axe.min.js.
type AxeAuditor struct {
	Script string
}

const axeRun = `async () => {
	const result = await axe.run(document);
	return result.violations.map(v => ({
		id: v.id,
		impact: v.impact || "",
		description: v.description,
		help: v.help,
		helpUrl: v.helpUrl,
	}));
}`

func (a AxeAuditor) Analyze(page playwright.Page) ([]Violation, error) {
	if a.Script == "" {
		return nil, errors.New("no axe-core script configured")
	}
	var tag playwright.PageAddScriptTagOptions
	if strings.HasPrefix(a.Script, "http://") || strings.HasPrefix(a.Script, "https://") {
		tag.URL = playwright.String(a.Script)
	} else {
		tag.Path = playwright.String(a.Script)
	}
	if _, err := page.AddScriptTag(tag); err != nil {
		return nil, fmt.Errorf("inject axe-core from %s: %w", a.Script, err)
	}

	raw, err := page.Evaluate(axeRun)
	if err != nil {
		return nil, fmt.Errorf("run axe-core: %w", err)
	}
	var violations []Violation
	if err := mapstructure.Decode(raw, &violations); err != nil {
		return nil, fmt.Errorf("decode axe-core result: %w", err)
	}
	return violations, nil
}
