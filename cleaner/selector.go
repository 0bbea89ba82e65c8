package cleaner

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// selectorList is an ordered list of fallbacks; the first selector whose
// first match yields usable text wins.
type selectorList []cascadia.Selector

// compile parses every selector up front so a typo fails at init, not mid-scrape.
func compile(selectors ...string) selectorList {
	list := make(selectorList, 0, len(selectors))
	for _, s := range selectors {
		list = append(list, cascadia.MustCompile(s))
	}
	return list
}

// Selector fallbacks cover LinkedIn's signed-in layout, its public guest
// layout and a few generic ATS patterns.
var (
	titleSelectors = compile(
		`h1[data-test-id="job-title"]`,
		`.job-details-jobs-unified-top-card__job-title h1`,
		`.jobs-unified-top-card__job-title h1`,
		`h1.jobs-unified-top-card__job-title`,
		`h1.job-details-jobs-unified-top-card__job-title`,
		`h1.top-card-layout__title`,
		`h1.topcard__title`,
		`.job-view-layout h1`,
		`h1`,
		`.job-title`,
		`[data-automation-id="jobPostingHeader"] h1`,
	)

	companySelectors = compile(
		`.job-details-jobs-unified-top-card__primary-description a`,
		`.jobs-unified-top-card__company-name a`,
		`.job-details-jobs-unified-top-card__company-name a`,
		`[data-test-id="job-details-company-name"] a`,
		`.jobs-unified-top-card__subtitle a`,
		`a.topcard__org-name-link`,
		`.topcard__flavor a`,
		`.job-details-jobs-unified-top-card__primary-description`,
		`.jobs-unified-top-card__company-name`,
		`.company-name`,
		`[data-automation-id="jobPostingCompanyLink"]`,
	)

	locationSelectors = compile(
		`.job-details-jobs-unified-top-card__bullet`,
		`.jobs-unified-top-card__bullet`,
		`.topcard__flavor--bullet`,
		`[data-automation-id="locations"]`,
	)

	descriptionSelectors = compile(
		`[data-test-id="job-details-description"]`,
		`.job-view-layout .jobs-description`,
		`.jobs-description__content`,
		`.job-details-jobs-unified-top-card__job-description`,
		`.jobs-box__html-content`,
		`.show-more-less-html__markup`,
		`.description__text`,
		`.jobs-description`,
		`.description`,
		`.job-description`,
		`[data-automation-id="jobPostingDescription"]`,
		`.jobs-search__job-details`,
		`.jobs-box__html-content .jobs-description-content__text`,
	)

	postDateSelectors = compile(
		`[data-test-id="job-post-date"]`,
		`.jobs-unified-top-card__posted-date`,
		`.job-details-jobs-unified-top-card__posted-date`,
		`.posted-time-ago__text`,
	)

	criteriaItemSelector  = cascadia.MustCompile(`.description__job-criteria-item`)
	criteriaKeySelector   = cascadia.MustCompile(`.description__job-criteria-subheader`)
	criteriaValueSelector = cascadia.MustCompile(`.description__job-criteria-text`)

	// challengeSelectors only appear on bot challenges.
	challengeSelectors = compile(
		`#captcha-internal`,
		`form#captcha-form`,
		`.challenge-dialog`,
		`iframe[src*="captcha"]`,
		`#cf-challenge-running`,
	)

	// authwallSelectors may coexist with real content, so they only count
	// when no title could be found.
	authwallSelectors = compile(
		`.authwall-join-form`,
		`.authwall-sign-in-form`,
		`form.join-form`,
	)
)

// firstMatch returns the first element of the first selector that yields
// non-empty cleaned text.
func firstMatch(doc *goquery.Document, list selectorList) (*goquery.Selection, string) {
	for _, sel := range list {
		s := doc.FindMatcher(sel).First()
		if s.Length() == 0 {
			continue
		}
		if text := CleanText(nodeText(s.Get(0))); text != "" {
			return s, text
		}
	}
	return nil, ""
}

// firstText is firstMatch without the selection.
func firstText(doc *goquery.Document, list selectorList) string {
	_, text := firstMatch(doc, list)
	return text
}

// anyMatch reports whether any selector matches.
func anyMatch(doc *goquery.Document, list selectorList) bool {
	for _, sel := range list {
		if doc.FindMatcher(sel).Length() > 0 {
			return true
		}
	}
	return false
}

// attributeKey turns "Seniority level" into "seniority_level".
func attributeKey(label string) string {
	return strings.ReplaceAll(strings.ToLower(CleanText(label)), " ", "_")
}
