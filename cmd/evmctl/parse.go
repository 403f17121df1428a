package main

import (
	"bufio"
	"io"
	"strings"
	"time"

	"github.com/phu-boop/ev-dealer-platform/internal/apperr"
	"github.com/phu-boop/ev-dealer-platform/internal/shipment"
)

// parseVinSpec parses "VARIANT=VIN1,VIN2".
func parseVinSpec(spec string) (string, []string, error) {
	variant, list, ok := strings.Cut(spec, "=")
	variant = strings.TrimSpace(variant)
	if !ok || variant == "" {
		return "", nil, apperr.Validation("bad -vins value %q, want VARIANT=VIN1,VIN2", spec)
	}
	return variant, splitList(list), nil
}

// readVinFile reads "VARIANT VIN" or "VARIANT,VIN" lines. Blank lines and
// lines starting with # are skipped.
func readVinFile(r io.Reader) (map[string][]string, error) {
	out := map[string][]string{}
	sc := bufio.NewScanner(r)
	n := 0
	for sc.Scan() {
		n++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(strings.ReplaceAll(line, ",", " "))
		if len(fields) != 2 {
			return nil, apperr.Validation("line %d: want VARIANT VIN, got %q", n, line)
		}
		out[fields[0]] = append(out[fields[0]], fields[1])
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// assignVins spreads each variant's VINs over the order lines of that
// variant in line order. The last line of a variant takes whatever is left,
// so a surplus or shortage shows up as a count mismatch on that line.
func assignVins(items []shipment.Item, byVariant map[string][]string) map[string][]string {
	last := map[string]string{}
	for _, it := range items {
		last[it.VariantID] = it.ItemID
	}
	remaining := make(map[string][]string, len(byVariant))
	for k, v := range byVariant {
		remaining[k] = v
	}

	out := make(map[string][]string, len(items))
	for _, it := range items {
		vins := remaining[it.VariantID]
		take := len(vins)
		if last[it.VariantID] != it.ItemID && take > it.Quantity {
			take = it.Quantity
		}
		out[it.ItemID] = vins[:take]
		remaining[it.VariantID] = vins[take:]
	}
	return out
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, apperr.Validation("bad date %q, want YYYY-MM-DD", s)
	}
	return &t, nil
}
