// Package rewrite relativizes root-absolute links inside HTML so the
// containing site works under any URL prefix.
package rewrite

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/anyroot/anyroot/internal/relpath"
)

type Options struct {
	// Attributes whose values are rewritten, e.g. href, src, action.
	Attributes []string
	// Extensions of files considered HTML, e.g. ".html".
	Extensions []string
}

var DefaultOptions = Options{
	Attributes: []string{"href", "src", "action"},
	Extensions: []string{".html", ".htm"},
}

type Rewriter struct {
	re   *regexp.Regexp
	exts map[string]struct{}
}

func New(opts Options) (*Rewriter, error) {
	if len(opts.Attributes) == 0 {
		opts.Attributes = DefaultOptions.Attributes
	}
	if len(opts.Extensions) == 0 {
		opts.Extensions = DefaultOptions.Extensions
	}

	names := make([]string, 0, len(opts.Attributes))
	for _, attr := range opts.Attributes {
		attr = strings.TrimSpace(strings.ToLower(attr))
		if attr == "" {
			continue
		}
		if !attrNamePattern.MatchString(attr) {
			return nil, fmt.Errorf("invalid attribute name %q", attr)
		}
		names = append(names, regexp.QuoteMeta(attr))
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no attributes to rewrite")
	}

	// Matches attr="/...", attr='/...' on root-absolute values.
	pattern := fmt.Sprintf(`(?i)\b(%s)\s*=\s*("|')(/[^"']*)("|')`, strings.Join(names, "|"))
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}

	exts := make(map[string]struct{}, len(opts.Extensions))
	for _, ext := range opts.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts[ext] = struct{}{}
	}

	return &Rewriter{re: re, exts: exts}, nil
}

var attrNamePattern = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)

// WantsPath reports whether a URL path names a file this rewriter
// should process, by extension.
func (rw *Rewriter) WantsPath(urlPath string) bool {
	idx := strings.LastIndexByte(urlPath, '.')
	if idx < 0 || strings.ContainsRune(urlPath[idx:], '/') {
		return false
	}
	_, ok := rw.exts[strings.ToLower(urlPath[idx:])]
	return ok
}

// Rewrite replaces root-absolute attribute values in content with
// links relative to pagePath, the site-rooted path of the page being
// served. It returns the rewritten content and the number of links
// changed. Protocol-relative values (//host/...) are left alone.
func (rw *Rewriter) Rewrite(pagePath string, content []byte) ([]byte, int) {
	count := 0
	out := rw.re.ReplaceAllFunc(content, func(match []byte) []byte {
		groups := rw.re.FindSubmatch(match)
		if groups == nil {
			return match
		}
		attr, open, value, close := groups[1], groups[2], groups[3], groups[4]
		if strings.HasPrefix(string(value), "//") {
			return match
		}

		target, suffix := splitRef(string(value))
		rel := relpath.Relative(pagePath, target)
		if rel == "" {
			rel = "."
		}
		count++
		return []byte(fmt.Sprintf("%s=%s%s%s%s", attr, open, rel, suffix, close))
	})
	return out, count
}

// splitRef detaches a query string or fragment so only the path part
// is relativized.
func splitRef(ref string) (string, string) {
	if idx := strings.IndexAny(ref, "?#"); idx >= 0 {
		return ref[:idx], ref[idx:]
	}
	return ref, ""
}
