// Package parse provides ready-made parsers for common extraction needs:
// whitespace stripping (IP-echo style endpoints), regexp captures, and CSS
// selectors.
package parse

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"webdelta/pkg/webdelta"
)

// Strip trims surrounding whitespace and returns the body as-is.
// An all-whitespace body parses to nothing.
func Strip() webdelta.Parser {
	return webdelta.Named("strip", func(raw string) (string, bool) {
		s := strings.TrimSpace(raw)
		if s == "" {
			return "", false
		}
		return s, true
	})
}

// Regexp extracts the first submatch of pattern (or the full match when the
// pattern has no groups). The compiled pattern is part of the parser name so
// two different patterns on one endpoint cache independently.
func Regexp(pattern string) (webdelta.Parser, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("parse: bad pattern %q: %w", pattern, err)
	}
	name := "regexp:" + pattern
	return webdelta.Named(name, func(raw string) (string, bool) {
		m := re.FindStringSubmatch(raw)
		if m == nil {
			return "", false
		}
		if len(m) > 1 {
			return m[1], true
		}
		return m[0], true
	}), nil
}

// CSS extracts the combined text of the first node matching selector.
// The selector is compiled eagerly so a typo fails at registration time,
// not silently on every pass.
func CSS(selector string) (webdelta.Parser, error) {
	matcher, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("parse: bad selector %q: %w", selector, err)
	}

	name := "css:" + selector
	return webdelta.Named(name, func(raw string) (string, bool) {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
		if err != nil {
			return "", false
		}
		sel := doc.FindMatcher(matcher).First()
		if sel.Length() == 0 {
			return "", false
		}
		text := strings.TrimSpace(sel.Text())
		if text == "" {
			return "", false
		}
		return text, true
	}), nil
}
