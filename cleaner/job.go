package cleaner

import (
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"

	"github.com/use-agent/jobscout/models"
)

const (
	// DefaultCompany is reported when no company selector matched.
	DefaultCompany = "Unknown Company"

	// goodDescriptionLength stops the selector walk early.
	goodDescriptionLength = 100
)

// challengeTitles are page titles served by bot challenges instead of content.
var challengeTitles = []string{
	"Security Verification",
	"Just a moment",
	"Access Denied",
}

// Cleaner turns a rendered job page into structured fields.
//
// The converter and sanitizer are created once and reused across all
// requests (both are goroutine-safe).
type Cleaner struct {
	mdConverter *converter.Converter
	sanitizer   *bluemonday.Policy
}

// NewCleaner initialises the Cleaner.
func NewCleaner() *Cleaner {
	return &Cleaner{
		mdConverter: newMarkdownConverter(),
		sanitizer:   newSanitizer(),
	}
}

// ExtractJob parses a rendered job page.
//
// Order of checks:
//  1. Bot challenge markers anywhere on the page → BOT_BLOCKED.
//  2. Title; when missing, a sign-in wall → BOT_BLOCKED, else EXTRACTION_FAILED.
//  3. Company, location, post date and criteria (all optional).
//  4. Description by selector, then readability over the whole page;
//     shorter than 50 characters → EXTRACTION_FAILED.
func (c *Cleaner) ExtractJob(rawHTML string, sourceURL string) (*models.JobFields, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeExtraction, "failed to parse page", err)
	}

	if reason := challengeReason(doc); reason != "" {
		return nil, models.NewScrapeError(models.ErrCodeBotBlocked, reason, nil)
	}

	title := firstText(doc, titleSelectors)
	if title == "" {
		if anyMatch(doc, authwallSelectors) {
			return nil, models.NewScrapeError(models.ErrCodeBotBlocked, "sign-in wall served instead of job page", nil)
		}
		return nil, models.NewScrapeError(models.ErrCodeExtraction, "job title not found", nil)
	}

	fields := &models.JobFields{
		Title:      title,
		Company:    firstText(doc, companySelectors),
		Location:   firstText(doc, locationSelectors),
		PostDate:   firstText(doc, postDateSelectors),
		Attributes: criteria(doc),
	}
	if fields.Company == "" {
		fields.Company = DefaultCompany
	}

	text, fragment := bestDescription(doc)
	if utf8.RuneCountInString(text) < minDescriptionLength {
		article, ok := readableDescription(rawHTML, sourceURL)
		if !ok {
			return nil, models.NewScrapeError(models.ErrCodeExtraction, "job description not found", nil)
		}
		text, fragment = CleanText(article.TextContent), article.Content
	}
	fields.Description = text

	md, err := ToMarkdown(c.mdConverter, c.sanitizer, fragment, sourceURL)
	if err != nil {
		// The plain-text description is enough; markdown is a bonus.
		slog.Warn("markdown conversion failed", "url", sourceURL, "error", err)
	} else {
		fields.DescriptionMarkdown = strings.TrimSpace(md)
	}

	return fields, nil
}

// challengeReason names the bot challenge the page shows, or "".
func challengeReason(doc *goquery.Document) string {
	if anyMatch(doc, challengeSelectors) {
		return "captcha challenge served instead of job page"
	}
	pageTitle := strings.TrimSpace(doc.Find("title").First().Text())
	for _, t := range challengeTitles {
		if strings.Contains(pageTitle, t) {
			return "bot challenge page: " + t
		}
	}
	return ""
}

// bestDescription walks the description selectors and returns the first
// text longer than goodDescriptionLength, or else the longest one seen,
// together with the HTML it came from.
func bestDescription(doc *goquery.Document) (text string, fragment string) {
	var best *goquery.Selection
	for _, sel := range descriptionSelectors {
		s := doc.FindMatcher(sel).First()
		if s.Length() == 0 {
			continue
		}
		t := CleanText(nodeText(s.Get(0)))
		if utf8.RuneCountInString(t) > utf8.RuneCountInString(text) {
			text, best = t, s
		}
		if utf8.RuneCountInString(t) > goodDescriptionLength {
			break
		}
	}
	if best == nil {
		return "", ""
	}
	return text, descriptionHTML(best)
}

// criteria reads the "Seniority level: Entry level" style list LinkedIn
// renders below public job descriptions.
func criteria(doc *goquery.Document) map[string]string {
	items := doc.FindMatcher(criteriaItemSelector)
	if items.Length() == 0 {
		return nil
	}
	attrs := make(map[string]string, items.Length())
	items.Each(func(_ int, item *goquery.Selection) {
		key := item.FindMatcher(criteriaKeySelector).First()
		value := item.FindMatcher(criteriaValueSelector).First()
		if key.Length() == 0 || value.Length() == 0 {
			return
		}
		k := attributeKey(key.Text())
		v := CleanText(value.Text())
		if k != "" && v != "" {
			attrs[k] = v
		}
	})
	if len(attrs) == 0 {
		return nil
	}
	return attrs
}
