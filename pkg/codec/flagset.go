package codec

import (
	"fmt"
	"strings"

	"github.com/cuemby/portod/pkg/perr"
)

// Flag is one entry of a {mask,name} table used by ParseFlagSet/FormatFlagSet.
type Flag struct {
	Name string
	Mask uint64
}

// ParseFlagSet parses a semicolon-separated list of flag names against a
// static table, ORing their masks together. An unknown name is InvalidValue.
func ParseFlagSet(s string, table []Flag) (uint64, error) {
	var mask uint64
	if strings.TrimSpace(s) == "" {
		return 0, nil
	}
	for _, name := range strings.Split(s, ";") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		found := false
		for _, f := range table {
			if f.Name == name {
				mask |= f.Mask
				found = true
				break
			}
		}
		if !found {
			return 0, perr.InvalidValuef("unknown flag: %s", name)
		}
	}
	return mask, nil
}

// FormatFlagSet emits known names covering set bits, then any residual
// bits in hex.
func FormatFlagSet(mask uint64, table []Flag) string {
	var names []string
	residual := mask
	for _, f := range table {
		if f.Mask != 0 && mask&f.Mask == f.Mask {
			names = append(names, f.Name)
			residual &^= f.Mask
		}
	}
	if residual != 0 {
		names = append(names, fmt.Sprintf("0x%x", residual))
	}
	return strings.Join(names, ";")
}
