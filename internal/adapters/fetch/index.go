package fetch

import (
	"errors"
	"io"
	"net/url"
	"strings"

	"go.trai.ch/zerr"
	"golang.org/x/net/html"
)

// ParseIndex extracts the <a href> targets of an HTML directory listing.
// Links are resolved against base; links that leave base (parent directories,
// sort queries, other hosts) are dropped. The result keeps document order without duplicates.
func ParseIndex(base string, r io.Reader) ([]string, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "invalid index url"), "url", base)
	}
	if !strings.HasSuffix(baseURL.Path, "/") {
		baseURL.Path += "/"
	}
	prefix := baseURL.String()

	var links []string
	seen := make(map[string]struct{})

	z := html.NewTokenizer(r)
	for {
		switch z.Next() {
		case html.ErrorToken:
			if err := z.Err(); err != nil && !errors.Is(err, io.EOF) {
				return nil, zerr.With(zerr.Wrap(err, "failed to parse index"), "url", base)
			}
			return links, nil
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			if string(name) != "a" || !hasAttr {
				continue
			}
			for {
				key, val, more := z.TagAttr()
				if string(key) == "href" {
					if link, ok := resolveLink(baseURL, prefix, string(val)); ok {
						if _, dup := seen[link]; !dup {
							seen[link] = struct{}{}
							links = append(links, link)
						}
					}
				}
				if !more {
					break
				}
			}
		}
	}
}

func resolveLink(base *url.URL, prefix, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "?") || strings.HasPrefix(href, "#") {
		return "", false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	abs := base.ResolveReference(ref)
	abs.Fragment = ""
	abs.RawQuery = ""
	link := abs.String()
	if link == prefix || !strings.HasPrefix(link, prefix) {
		return "", false
	}
	return link, true
}
