package extract

import (
	"bytes"
	"strings"
)

// detector decides when a probe response looks JS-rendered and the fetch
// should be promoted to the headless renderer.
type detector struct {
	bodyLengthThreshold int
}

func newDetector(threshold int) *detector {
	if threshold == 0 {
		threshold = 2048
	}
	return &detector{bodyLengthThreshold: threshold}
}

var spaMarkers = [][]byte{
	[]byte("__next"),
	[]byte(`id="root"`),
	[]byte(`id="app"`),
	[]byte("data-reactroot"),
}

// shouldPromote applies rule-based promotion: empty bodies, short bodies
// dominated by script tags, and known SPA shell markers.
func (d *detector) shouldPromote(res fetchResult) bool {
	if res.StatusCode != 200 {
		return false
	}
	if len(res.Body) == 0 {
		return true
	}
	if len(res.Body) < d.bodyLengthThreshold && scriptDensityHigh(res.Body) {
		return true
	}
	for _, marker := range spaMarkers {
		if bytes.Contains(res.Body, marker) {
			return true
		}
	}
	return false
}

// scriptDensityHigh reports whether script tags cover at least a quarter
// of the document.
func scriptDensityHigh(body []byte) bool {
	lower := strings.ToLower(string(body))
	total := len(lower)
	if total == 0 {
		return false
	}

	const (
		openTag  = "<script"
		closeTag = "</script>"
	)
	coverage := 0
	pos := 0
	for {
		rel := strings.Index(lower[pos:], openTag)
		if rel == -1 {
			break
		}
		start := pos + rel

		tagClose := strings.IndexByte(lower[start:], '>')
		if tagClose == -1 {
			coverage += total - start
			break
		}
		contentStart := start + tagClose + 1

		relEnd := strings.Index(lower[contentStart:], closeTag)
		var next int
		if relEnd == -1 {
			next = total
		} else {
			next = contentStart + relEnd + len(closeTag)
		}
		coverage += next - start
		pos = next
	}

	if coverage == 0 {
		return false
	}
	return coverage*100/total >= 25
}
