package processors

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	whitespacePattern = regexp.MustCompile(`[ \t\f\r]+`)
	blankLinesPattern = regexp.MustCompile(`\n\s*\n+`)

	// boilerplate left behind by job boards that render with JavaScript
	noisePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bJavaScript\s+is\s+disabled\b[^.]*\.`),
		regexp.MustCompile(`(?i)\bPlease\s+enable\s+JavaScript\b[^.]*\.?`),
		regexp.MustCompile(`(?i)\bThis\s+site\s+requires\s+JavaScript\b[^.]*\.?`),
		regexp.MustCompile(`(?i)\bwe\s+use\s+cookies\b[^.]*\.`),
	}
)

// HTMLCleaner reduces a job posting page to the text of its description
type HTMLCleaner struct {
	removeTags []string
	selectors  []string
	minLength  int
}

// NewHTMLCleaner creates a new HTML cleaner instance
func NewHTMLCleaner() *HTMLCleaner {
	return &HTMLCleaner{
		removeTags: []string{
			"script", "style", "noscript", "iframe", "object", "embed",
			"form", "input", "button", "select", "textarea",
			"nav", "header", "footer", "aside", "menu",
			"svg", "meta", "link", "title", "base",
		},
		selectors: []string{
			".job-description", ".description", "[class*='jobDescription']",
			"[data-testid*='description']", "[data-qa*='job']",
			".job", ".job-posting", ".job-detail", ".posting",
			"article", "main", "[role='main']",
		},
		minLength: 50,
	}
}

// ExtractJobContent returns the readable text of the job description. The
// first selector that yields a meaningful block wins; the whole body is the
// fallback. Block structure is kept as line breaks.
func (hc *HTMLCleaner) ExtractJobContent(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}

	for _, tag := range hc.removeTags {
		doc.Find(tag).Remove()
	}
	doc.Find("br, p, li, h1, h2, h3, h4, h5, h6, div, tr").Each(func(i int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})

	var content string
	for _, selector := range hc.selectors {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		if text := strings.TrimSpace(sel.Text()); len(text) >= hc.minLength {
			content = text
			break
		}
	}
	if content == "" {
		content = doc.Find("body").Text()
	}

	return hc.cleanText(content), nil
}

func (hc *HTMLCleaner) cleanText(text string) string {
	for _, re := range noisePatterns {
		text = re.ReplaceAllString(text, "")
	}

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(whitespacePattern.ReplaceAllString(line, " "))
	}
	text = strings.Join(lines, "\n")
	text = blankLinesPattern.ReplaceAllString(text, "\n")

	return strings.TrimSpace(text)
}

// EstimateTokens returns a rough token count for text
func (hc *HTMLCleaner) EstimateTokens(text string) int {
	return len(text) / 4
}
