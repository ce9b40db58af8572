package security

import (
	"strings"

	"github.com/cuemby/portod/pkg/perr"
)

// Capabilities is a Linux capability mask, grounded on TCapabilities.
// Bit positions match the kernel's CAP_* numbering; names drop the CAP_
// prefix to match porto's wire format ("NET_ADMIN;SYS_ADMIN").
type Capabilities struct {
	Permitted uint64
}

type capEntry struct {
	name string
	bit  uint
}

// capTable is deliberately a subset of the kernel's ~40 capabilities:
// the ones the property engine's handlers (virt_mode, enable_porto,
// capabilities, capabilities_ambient) actually reason about.
var capTable = []capEntry{
	{"CHOWN", 0},
	{"DAC_OVERRIDE", 1},
	{"DAC_READ_SEARCH", 2},
	{"FOWNER", 3},
	{"FSETID", 4},
	{"KILL", 5},
	{"SETGID", 6},
	{"SETUID", 7},
	{"SETPCAP", 8},
	{"LINUX_IMMUTABLE", 9},
	{"NET_BIND_SERVICE", 10},
	{"NET_BROADCAST", 11},
	{"NET_ADMIN", 12},
	{"NET_RAW", 13},
	{"IPC_LOCK", 14},
	{"IPC_OWNER", 15},
	{"SYS_MODULE", 16},
	{"SYS_RAWIO", 17},
	{"SYS_CHROOT", 18},
	{"SYS_PTRACE", 19},
	{"SYS_PACCT", 20},
	{"SYS_ADMIN", 21},
	{"SYS_BOOT", 22},
	{"SYS_NICE", 23},
	{"SYS_RESOURCE", 24},
	{"SYS_TIME", 25},
	{"SYS_TTY_CONFIG", 26},
	{"MKNOD", 27},
	{"LEASE", 28},
	{"AUDIT_WRITE", 29},
	{"AUDIT_CONTROL", 30},
	{"SETFCAP", 31},
	{"MAC_OVERRIDE", 32},
	{"MAC_ADMIN", 33},
	{"SYSLOG", 34},
	{"WAKE_ALARM", 35},
	{"BLOCK_SUSPEND", 36},
	{"AUDIT_READ", 37},
}

func capBit(bit uint) uint64 { return uint64(1) << bit }

func capByName(name string) (capEntry, bool) {
	for _, c := range capTable {
		if c.name == name {
			return c, true
		}
	}
	return capEntry{}, false
}

// AllCapabilities is the mask of every known capability bit.
var AllCapabilities = func() Capabilities {
	var c Capabilities
	for _, e := range capTable {
		c.Permitted |= capBit(e.bit)
	}
	return c
}()

// NoCapabilities is the empty mask.
var NoCapabilities = Capabilities{}

// AppModeCapabilities is the default bound for virt_mode=app containers:
// enough to run a normal process tree, nothing kernel-administrative.
var AppModeCapabilities = MustParse("CHOWN;DAC_OVERRIDE;FOWNER;FSETID;KILL;SETGID;SETUID;NET_BIND_SERVICE;SYS_CHROOT;MKNOD;AUDIT_WRITE;SETFCAP")

// OsModeCapabilities is the default bound for virt_mode=os containers:
// an init-like process tree needs most administrative capabilities.
var OsModeCapabilities = MustParse("CHOWN;DAC_OVERRIDE;DAC_READ_SEARCH;FOWNER;FSETID;KILL;SETGID;SETUID;SETPCAP;NET_BIND_SERVICE;NET_ADMIN;NET_RAW;IPC_LOCK;SYS_CHROOT;SYS_PTRACE;SYS_ADMIN;SYS_NICE;SYS_RESOURCE;MKNOD;AUDIT_WRITE;AUDIT_CONTROL;SETFCAP;SYSLOG")

// Parse parses a semicolon-separated list of kernel capability names into
// a mask. Grounded on TCapabilities::Parse.
func Parse(s string) (Capabilities, error) {
	var c Capabilities
	s = strings.TrimSpace(s)
	if s == "" {
		return c, nil
	}
	for _, name := range strings.Split(s, ";") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		entry, ok := capByName(name)
		if !ok {
			return Capabilities{}, perr.InvalidValuef("unknown capability: %s", name)
		}
		c.Permitted |= capBit(entry.bit)
	}
	return c, nil
}

// MustParse is Parse for static tables above; it panics on an internal
// programming error (a typo'd capability name), never on user input.
func MustParse(s string) Capabilities {
	c, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Format is the inverse of Parse.
func (c Capabilities) Format() string {
	var names []string
	for _, e := range capTable {
		if c.Permitted&capBit(e.bit) != 0 {
			names = append(names, e.name)
		}
	}
	return strings.Join(names, ";")
}

// Or is the capability union (|).
func (c Capabilities) Or(other Capabilities) Capabilities {
	return Capabilities{Permitted: c.Permitted | other.Permitted}
}

// And is the capability intersection (&).
func (c Capabilities) And(other Capabilities) Capabilities {
	return Capabilities{Permitted: c.Permitted & other.Permitted}
}

// Not is the capability complement within AllCapabilities (~).
func (c Capabilities) Not() Capabilities {
	return Capabilities{Permitted: AllCapabilities.Permitted &^ c.Permitted}
}

// Equal reports mask equality.
func (c Capabilities) Equal(other Capabilities) bool {
	return c.Permitted == other.Permitted
}

// SubsetOf reports whether every bit of c is also set in other.
func (c Capabilities) SubsetOf(other Capabilities) bool {
	return c.Permitted&other.Permitted == c.Permitted
}

// Empty reports whether the mask has no bits set.
func (c Capabilities) Empty() bool {
	return c.Permitted == 0
}
