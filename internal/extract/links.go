package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Links returns the absolute http(s) targets of the document's anchors in
// document order, resolved against the page URL, without fragments and
// without duplicates.
func (d *Document) Links() []string {
	seen := make(map[string]bool)
	var links []string

	d.doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") {
			return
		}

		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		target := d.pageURL.ResolveReference(ref)
		if target.Scheme != "http" && target.Scheme != "https" {
			return
		}
		target.Fragment = ""
		target.RawFragment = ""

		s := target.String()
		if !seen[s] {
			seen[s] = true
			links = append(links, s)
		}
	})

	return links
}
