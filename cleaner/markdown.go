package cleaner

import (
	nurl "net/url"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/microcosm-cc/bluemonday"
)

// newMarkdownConverter creates a reusable, goroutine-safe Converter. Job
// descriptions are mostly lists and emphasis, with the odd benefits table.
func newMarkdownConverter() *converter.Converter {
	return converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(
				table.WithCellPaddingBehavior(table.CellPaddingBehaviorMinimal),
			),
		),
	)
}

// newSanitizer returns the policy applied to description HTML before
// conversion. Scraped markup is untrusted and ends up in API responses.
func newSanitizer() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.RequireNoFollowOnLinks(true)
	return p
}

// ToMarkdown sanitizes a description fragment and converts it to Markdown.
// Relative links are resolved against the scheme and host of sourceURL.
func ToMarkdown(conv *converter.Converter, policy *bluemonday.Policy, htmlContent string, sourceURL string) (string, error) {
	return conv.ConvertString(policy.Sanitize(htmlContent), converter.WithDomain(domainOf(sourceURL)))
}

func domainOf(sourceURL string) string {
	u, err := nurl.Parse(sourceURL)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
