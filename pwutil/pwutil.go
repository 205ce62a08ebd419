// Package pwutil collects small helpers that make Playwright locators easier
// to drive from page objects.
package pwutil

import (
	"encoding/base64"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/playwright-community/playwright-go"
)

// HavingName selects a role by its accessible name:
//
//	page.GetByRole(*playwright.AriaRoleButton, pwutil.HavingName("Save"))
func HavingName(name string) playwright.PageGetByRoleOptions {
	return playwright.PageGetByRoleOptions{Name: name}
}

// SetInputValue replaces the value of an input rather than appending to it.
func SetInputValue(l playwright.Locator, value string) error {
	if err := l.Clear(); err != nil {
		return err
	}
	return l.Fill(value)
}

const newDataTransfer = `({ data, name, type }) => {
	const dt = new DataTransfer();
	const bytes = Uint8Array.from(atob(data), c => c.charCodeAt(0));
	dt.items.add(new File([bytes], name, { type }));
	return dt;
}`

// DropFile drops the file at path onto l as if dragged in from the desktop.
func DropFile(l playwright.Locator, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return dropBytes(l, filepath.Base(path), data)
}

// DropFileFS is DropFile for a file in fsys, typically an embedded testdata
// directory.
func DropFileFS(l playwright.Locator, fsys fs.FS, name string) error {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return err
	}
	return dropBytes(l, filepath.Base(name), data)
}

func dropBytes(l playwright.Locator, name string, data []byte) error {
	page, err := l.Page()
	if err != nil {
		return err
	}
	dt, err := page.EvaluateHandle(newDataTransfer, map[string]any{
		"data": base64.StdEncoding.EncodeToString(data),
		"name": name,
		"type": mimetype.Detect(data).String(),
	})
	if err != nil {
		return fmt.Errorf("build DataTransfer for %s: %w", name, err)
	}
	return l.DispatchEvent("drop", map[string]any{"dataTransfer": dt})
}

const directText = `element => Array.prototype.filter
	.call(element.childNodes, child => child.nodeType === Node.TEXT_NODE)
	.map(child => child.textContent)
	.join('')`

// DirectText is the text directly inside the element, ignoring the text of
// its child elements.
func DirectText(l playwright.Locator) (string, error) {
	v, err := l.Evaluate(directText, nil)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("direct text: unexpected %T", v)
	}
	return s, nil
}

// QuoteForXPath quotes s as an XPath 1.0 string literal. XPath 1.0 has no
// escape for quotes, so strings containing ' are built with concat().
func QuoteForXPath(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	parts := strings.Split(s, "'")
	for i, p := range parts {
		parts[i] = "'" + p + "'"
	}
	return "concat(" + strings.Join(parts, `, "'", `) + ")"
}
