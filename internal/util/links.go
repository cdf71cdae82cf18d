package util

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

// ScrapeLinks extracts href values ending in suffix from an HTML directory
// listing. The comparison is case-insensitive and bare "/" links are
// ignored.
func ScrapeLinks(r io.Reader, suffix string) ([]string, error) {
	var out []string
	suffix = strings.ToLower(suffix)

	tokenizer := html.NewTokenizer(r)
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			if tokenizer.Err() == io.EOF {
				return out, nil
			}
			return out, tokenizer.Err()
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := tokenizer.TagName()
			if string(name) != "a" || !hasAttr {
				continue
			}
			for {
				key, val, more := tokenizer.TagAttr()
				if string(key) == "href" {
					href := string(val)
					if href != "/" && strings.HasSuffix(strings.ToLower(href), suffix) {
						out = append(out, href)
					}
					break
				}
				if !more {
					break
				}
			}
		}
	}
}
