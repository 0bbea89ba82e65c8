package cleaner

import (
	"log/slog"
	nurl "net/url"
	"strings"
	"unicode/utf8"

	readability "github.com/go-shiori/go-readability"
)

// minDescriptionLength is the shortest description, in characters, that
// counts as found. Anything shorter is usually a button label or a teaser.
const minDescriptionLength = 50

// readableDescription runs Mozilla Readability over the whole page when none
// of the description selectors produced usable text. It reports false when
// readability fails or what it found is still too short.
func readableDescription(rawHTML string, sourceURL string) (readability.Article, bool) {
	parsedURL, err := nurl.Parse(sourceURL)
	if err != nil {
		slog.Warn("readability: invalid source URL",
			"url", sourceURL, "error", err,
		)
		return readability.Article{}, false
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), parsedURL)
	if err != nil {
		slog.Warn("readability: extraction failed",
			"url", sourceURL, "error", err,
		)
		return readability.Article{}, false
	}

	if n := utf8.RuneCountInString(CleanText(article.TextContent)); n < minDescriptionLength {
		slog.Debug("readability: extracted content too short",
			"url", sourceURL, "length", n,
		)
		return readability.Article{}, false
	}

	return article, true
}
