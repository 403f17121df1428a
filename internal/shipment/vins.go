package shipment

import "strings"

// SplitVins splits newline-delimited VIN text into trimmed, non-empty lines.
// Order and duplicates are preserved.
func SplitVins(text string) []string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

// joinVins is the inverse of SplitVins for a clean list.
func joinVins(vins []string) string {
	return strings.Join(vins, "\n")
}

func duplicates(vins []string) []string {
	seen := make(map[string]int, len(vins))
	var dup []string
	for _, v := range vins {
		seen[v]++
		if seen[v] == 2 {
			dup = append(dup, v)
		}
	}
	return dup
}
