package ingest

import (
	"fmt"
	"strings"
)

// normalizeHeaders names blank headers "Unnamed: <i>" and suffixes repeated
// names with ".1", ".2", ... so every column name is unique.
func normalizeHeaders(raw []string) []string {
	names := make([]string, len(raw))
	taken := make(map[string]bool, len(raw))
	for i, h := range raw {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		names[i] = h
	}

	// A generated name never collides with a header present in the file.
	counts := make(map[string]int, len(raw))
	for _, n := range names {
		counts[n]++
	}

	out := make([]string, len(names))
	for i, n := range names {
		if !taken[n] {
			out[i] = n
			taken[n] = true
			continue
		}
		for suffix := 1; ; suffix++ {
			candidate := fmt.Sprintf("%s.%d", n, suffix)
			if !taken[candidate] && counts[candidate] == 0 {
				out[i] = candidate
				taken[candidate] = true
				break
			}
		}
	}
	return out
}
