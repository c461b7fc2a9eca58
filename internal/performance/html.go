package performance

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// visible images are assumed to be the first few in document order
const aboveFoldImages = 3

var fontExtensions = map[string]bool{
	".woff": true, ".woff2": true, ".ttf": true, ".otf": true, ".eot": true,
}

// ExtractResources lists the subresources an HTML page references.
// Relative URLs are resolved against base. Resources are returned in
// document order without duplicates.
func ExtractResources(html string, base string) ([]PageResource, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if href, ok := doc.Find("base[href]").First().Attr("href"); ok {
		if u, err := baseURL.Parse(href); err == nil {
			baseURL = u
		}
	}

	var (
		out      []PageResource
		seen     = make(map[string]bool)
		scripts  int
		images   int
		styleURL []string
	)
	add := func(r PageResource) {
		if r.URL == "" || seen[r.URL] {
			return
		}
		seen[r.URL] = true
		out = append(out, r)
	}
	resolve := func(ref string) string {
		ref = strings.TrimSpace(ref)
		if ref == "" || strings.HasPrefix(ref, "data:") || strings.HasPrefix(ref, "javascript:") {
			return ""
		}
		u, err := baseURL.Parse(ref)
		if err != nil {
			return ""
		}
		return u.String()
	}

	doc.Find("link[href], script[src], img[src]").Each(func(_ int, s *goquery.Selection) {
		switch goquery.NodeName(s) {
		case "link":
			r, ok := linkResource(s, resolve)
			if !ok {
				return
			}
			if r.Type == ResourceStyle {
				styleURL = append(styleURL, r.URL)
			}
			add(r)

		case "script":
			src, _ := s.Attr("src")
			_, async := s.Attr("async")
			_, deferred := s.Attr("defer")
			typ, _ := s.Attr("type")
			add(PageResource{
				URL:            resolve(src),
				Type:           ResourceScript,
				Blocking:       !async && !deferred && typ != "module",
				ExecutionOrder: scripts,
			})
			scripts++

		case "img":
			src, _ := s.Attr("src")
			add(PageResource{
				URL:                resolve(src),
				Type:               ResourceImage,
				ViewportVisibility: imageVisibility(s, images),
			})
			images++
		}
	})

	// fonts declared by preload links are needed by every stylesheet
	for i := range out {
		if out[i].Type == ResourceFont && len(styleURL) > 0 {
			out[i].Blocking = true
		}
	}
	return out, nil
}

func linkResource(s *goquery.Selection, resolve func(string) string) (PageResource, bool) {
	href, _ := s.Attr("href")
	u := resolve(href)
	if u == "" {
		return PageResource{}, false
	}
	rel := strings.Fields(strings.ToLower(s.AttrOr("rel", "")))
	as := strings.ToLower(s.AttrOr("as", ""))
	has := func(v string) bool {
		for _, r := range rel {
			if r == v {
				return true
			}
		}
		return false
	}

	switch {
	case has("stylesheet"):
		media := strings.ToLower(s.AttrOr("media", "all"))
		return PageResource{URL: u, Type: ResourceStyle, Blocking: media == "all" || media == "screen"}, true
	case (has("preload") && as == "font") || fontExtensions[path.Ext(strings.ToLower(href))]:
		return PageResource{URL: u, Type: ResourceFont}, true
	case has("preload") && as == "script":
		return PageResource{URL: u, Type: ResourceScript}, true
	case has("preload") && as == "image":
		return PageResource{URL: u, Type: ResourceImage, ViewportVisibility: 1}, true
	case (has("preload") || has("prefetch")) && as == "fetch":
		return PageResource{URL: u, Type: ResourceFetch, Priority: s.AttrOr("fetchpriority", "auto")}, true
	}
	return PageResource{}, false
}

// imageVisibility estimates the visible fraction of the n-th image
func imageVisibility(s *goquery.Selection, n int) float64 {
	switch {
	case s.AttrOr("fetchpriority", "") == "high":
		return 1
	case s.AttrOr("loading", "") == "lazy":
		return 0.1
	case n < aboveFoldImages:
		return 0.8
	default:
		return 0.3
	}
}
