package generator

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"siteclone/internal/domain"
)

const systemPrompt = "You are an expert front-end developer. You reproduce " +
	"existing web pages as a single self-contained HTML document with all CSS " +
	"inlined in a <style> block. Respond with the complete HTML document only, " +
	"no explanations."

const truncationMarker = "\n/* ... truncated ... */"

// buildPrompt assembles the user prompt from a fetched page, keeping the
// total size under maxBytes. The markup gets the biggest share of the budget,
// then styles, then the rendered-text layout hint.
func buildPrompt(page *domain.FetchedPage, maxBytes int) string {
	if maxBytes <= 0 {
		maxBytes = 120 * 1024
	}
	markupBudget := maxBytes * 6 / 10
	styleBudget := maxBytes * 3 / 10
	textBudget := maxBytes - markupBudget - styleBudget

	sb := &strings.Builder{}
	fmt.Fprintf(sb, "Reproduce the web page at %s as faithfully as possible.\n", page.URL)
	if page.Title != "" {
		fmt.Fprintf(sb, "Page title: %s\n", page.Title)
	}
	sb.WriteString("\nRendered markup:\n```html\n")
	sb.WriteString(truncateBytes(page.HTML, markupBudget))
	sb.WriteString("\n```\n")

	if css := combineStyles(page.Styles, styleBudget); css != "" {
		sb.WriteString("\nStyle content:\n```css\n")
		sb.WriteString(css)
		sb.WriteString("\n```\n")
	}

	if page.Text != "" && textBudget > 0 {
		sb.WriteString("\nVisible text, in layout order:\n")
		sb.WriteString(truncateBytes(page.Text, textBudget))
		sb.WriteString("\n")
	}

	sb.WriteString("\nReturn one complete, self-contained HTML document that recreates this page.")
	return sb.String()
}

// combineStyles concatenates style content under per-sheet headers, stopping
// once the budget is spent.
func combineStyles(styles []domain.Stylesheet, budget int) string {
	if budget <= 0 {
		return ""
	}
	sb := &strings.Builder{}
	for _, sheet := range styles {
		if sheet.Content == "" {
			continue
		}
		name := sheet.Href
		if name == "" {
			name = "inline"
		}
		chunk := fmt.Sprintf("/* %s */\n%s\n", name, sheet.Content)
		if sb.Len()+len(chunk) > budget {
			remaining := budget - sb.Len()
			if remaining > len(truncationMarker) {
				sb.WriteString(truncateBytes(chunk, remaining))
			}
			break
		}
		sb.WriteString(chunk)
	}
	return strings.TrimSpace(sb.String())
}

// truncateBytes cuts s to at most n bytes at a rune boundary and appends a
// marker when anything was dropped.
func truncateBytes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n - len(truncationMarker)
	if cut <= 0 {
		return ""
	}
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + truncationMarker
}
