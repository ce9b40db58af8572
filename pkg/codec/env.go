package codec

import "strings"

// EnvList is the ordered "NAME=value" list used by the env property: a
// semicolon-joined sequence of assignments that preserves insertion order
// and supports overwrite-in-place via SetIndexed.
type EnvList struct {
	*OrderedMap
}

// NewEnvList returns an empty list.
func NewEnvList() *EnvList {
	return &EnvList{OrderedMap: NewOrderedMap()}
}

// ParseEnvList parses "NAME=value(;NAME=value)*".
func ParseEnvList(s string) *EnvList {
	l := NewEnvList()
	s = strings.TrimSpace(s)
	if s == "" {
		return l
	}
	for _, entry := range strings.Split(s, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		kv := strings.SplitN(entry, "=", 2)
		name := kv[0]
		val := ""
		if len(kv) == 2 {
			val = kv[1]
		}
		l.Set(name, val)
	}
	return l
}

// String formats the list back to "NAME=value;NAME=value" form.
func (l *EnvList) String() string {
	parts := make([]string, 0, l.Len())
	for _, k := range l.Keys() {
		v, _ := l.Get(k)
		parts = append(parts, k+"="+v)
	}
	return strings.Join(parts, ";")
}
