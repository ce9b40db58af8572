package codec

import "strings"

// SplitEscaped splits s on sep, honoring backslash as an escape for sep
// itself (a stray backslash that doesn't precede sep is kept literal).
// Empty runs between separators are dropped, matching the source grammar.
func SplitEscaped(s string, sep byte) []string {
	var tokens []string
	var cur strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\\' && i+1 < len(s) && s[i+1] == sep {
			cur.WriteByte(sep)
			i++
		} else if c == sep {
			if cur.Len() > 0 {
				tokens = append(tokens, cur.String())
			}
			cur.Reset()
		} else {
			cur.WriteByte(c)
		}
	}
	if cur.Len() > 0 {
		tokens = append(tokens, cur.String())
	}
	return tokens
}

// MergeEscaped is the inverse of SplitEscaped: it joins strings with sep,
// escaping any literal occurrence of sep within each element.
func MergeEscaped(strs []string, sep string) string {
	escaped := make([]string, len(strs))
	for i, s := range strs {
		escaped[i] = strings.ReplaceAll(s, sep, "\\"+sep)
	}
	return strings.Join(escaped, sep)
}

// Tuple is an inner-separator-delimited record within an outer escaped
// list, e.g. a single "src dst ro" bind entry or "eth0 1 2" net directive.
type Tuple []string

// ParseTupleList parses an outer-sep separated list of tuples, each tuple
// itself split on innerSep. Used for bind lists, device lists, and network
// directive lists.
func ParseTupleList(s string, outerSep, innerSep byte) []Tuple {
	entries := SplitEscaped(s, outerSep)
	tuples := make([]Tuple, 0, len(entries))
	for _, e := range entries {
		fields := strings.FieldsFunc(e, func(r rune) bool { return byte(r) == innerSep })
		tuples = append(tuples, Tuple(fields))
	}
	return tuples
}

// FormatTupleList is the inverse of ParseTupleList.
func FormatTupleList(tuples []Tuple, outerSep, innerSep string) string {
	entries := make([]string, len(tuples))
	for i, t := range tuples {
		entries[i] = strings.Join(t, innerSep)
	}
	return MergeEscaped(entries, outerSep)
}
