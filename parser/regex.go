package parser

import (
	"regexp"
	"strconv"
	"strings"
)

// matchNamed returns the first match of re as a name -> capture map, or nil.
func matchNamed(re *regexp.Regexp, text string) map[string]string {
	if re == nil {
		return nil
	}
	m := re.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	return namedGroups(re, m)
}

// matchAllNamed returns every match of re as name -> capture maps.
func matchAllNamed(re *regexp.Regexp, text string) []map[string]string {
	if re == nil {
		return nil
	}
	var out []map[string]string
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		out = append(out, namedGroups(re, m))
	}
	return out
}

func namedGroups(re *regexp.Regexp, match []string) map[string]string {
	groups := make(map[string]string)
	for i, name := range re.SubexpNames() {
		if name != "" && i < len(match) {
			groups[name] = match[i]
		}
	}
	return groups
}

// parseCents converts a decimal money string like "0.05" or "10" to integer
// cents without going through floating point. Empty or malformed input parses
// to zero; sites sometimes omit amounts for non-monetary lines.
func parseCents(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	whole, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
	}
	if len(frac) > 2 {
		frac = frac[:2]
	}
	for len(frac) < 2 {
		frac += "0"
	}
	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil && whole != "" {
		return 0
	}
	f, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		f = 0
	}
	return w*100 + f
}

func atoiSafe(s string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(s))
	return n
}
