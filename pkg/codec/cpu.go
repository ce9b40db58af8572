package codec

import (
	"strconv"
	"strings"

	"github.com/cuemby/portod/pkg/perr"
)

// ParseCPU parses a CPU value: "<number>" means percent of numCores,
// "<number>c" means an absolute core count.
func ParseCPU(s string, numCores float64) (float64, error) {
	s = strings.TrimSpace(s)
	cores := strings.HasSuffix(s, "c")
	numeric := s
	if cores {
		numeric = s[:len(s)-1]
	}
	value, err := strconv.ParseFloat(numeric, 64)
	if err != nil {
		return 0, perr.InvalidValuef("bad cpu value: %s", s)
	}
	if value < 0 {
		return 0, perr.InvalidValuef("negative cpu value: %s", s)
	}
	if cores {
		return value, nil
	}
	return value / 100 * numCores, nil
}

// FormatCPU formats an absolute core count with a trailing "c", regardless
// of whether the value was originally set as a percent or a core count:
// the stored value is always absolute cores, and Get always reports
// absolute cores, matching TCpuLimit::Get/TCpuGuarantee::Get.
func FormatCPU(cores float64) string {
	return strconv.FormatFloat(cores, 'g', -1, 64) + "c"
}
