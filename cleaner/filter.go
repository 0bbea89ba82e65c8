package cleaner

import (
	"github.com/PuerkitoBio/goquery"
)

// noiseSelectors are removed from a description before it is rendered:
// expand/collapse toggles, inline apply prompts and tracking pixels.
var noiseSelectors = []string{
	"button",
	"script",
	"style",
	"img",
	".show-more-less-html__button",
	".jobs-description__footer",
	".apply-button",
}

// descriptionHTML returns the inner HTML of a description element with the
// noise removed. The document is not modified.
func descriptionHTML(s *goquery.Selection) string {
	clone := s.Clone()
	for _, selector := range noiseSelectors {
		clone.Find(selector).Remove()
	}
	h, err := clone.Html()
	if err != nil {
		return ""
	}
	return h
}
