// Package assets loads and decodes the full-resolution images behind the
// zoom view: the optional high-resolution replacement shown while zoomed
// and the background-decoded natural version of the inline image.
package assets

import (
	"strconv"
	"strings"
)

// Descriptor identifies a loadable image: a plain source plus optional
// responsive source-set and sizes strings.
type Descriptor struct {
	Source    string
	SourceSet string
	Sizes     string
}

// IsZero reports whether the descriptor names no source at all.
func (d Descriptor) IsZero() bool {
	return d.Source == "" && d.SourceSet == ""
}

// BestSource returns the densest candidate: the widest source-set entry
// when one is declared, the plain source otherwise.
func (d Descriptor) BestSource() string {
	if best, ok := widestCandidate(d.SourceSet); ok {
		return best
	}
	return d.Source
}

// widestCandidate parses a source-set string ("a.jpg 800w, b.jpg 1600w")
// and returns the URL with the largest width descriptor. Candidates with
// no width descriptor count as width zero.
func widestCandidate(srcset string) (string, bool) {
	var bestURL string
	bestWidth := -1

	for _, part := range strings.Split(srcset, ",") {
		fields := strings.Fields(part)
		if len(fields) == 0 {
			continue
		}
		url := fields[0]
		width := 0
		if len(fields) > 1 {
			desc := fields[1]
			if strings.HasSuffix(desc, "w") {
				if n, err := strconv.Atoi(strings.TrimSuffix(desc, "w")); err == nil {
					width = n
				}
			}
		}
		if width > bestWidth {
			bestWidth = width
			bestURL = url
		}
	}

	return bestURL, bestURL != ""
}
