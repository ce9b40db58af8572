package security

import (
	"fmt"
	"os/user"
	"strconv"
)

// Cred is a resolved identity: a uid/gid pair plus supplementary group
// membership, grounded on original_source's TCred.
type Cred struct {
	Uid    uint32
	Gid    uint32
	Groups []uint32
}

// RootCred is the superuser identity.
var RootCred = Cred{Uid: 0, Gid: 0}

// IsRootUser reports whether cred is uid 0.
func (c Cred) IsRootUser() bool {
	return c.Uid == 0
}

// IsMemberOf tests primary and supplementary group membership, matching
// TCred::IsMemberOf.
func (c Cred) IsMemberOf(gid uint32) bool {
	if c.Gid == gid {
		return true
	}
	for _, g := range c.Groups {
		if g == gid {
			return true
		}
	}
	return false
}

// IsPermitted reports whether c is privileged relative to requirement:
// true if c is root, shares its uid, or shares a group with requirement
// (its primary gid or any of its supplementary groups). Grounded on
// TCred::IsPermitted.
func (c Cred) IsPermitted(requirement Cred) bool {
	if c.IsRootUser() {
		return true
	}
	if c.Uid == requirement.Uid {
		return true
	}
	if c.IsMemberOf(requirement.Gid) {
		return true
	}
	for _, gid := range requirement.Groups {
		if c.IsMemberOf(gid) {
			return true
		}
	}
	return false
}

// CanControl reports whether the acting credential c may mutate a
// container owned by target: true iff c is a superuser, c owns target's
// uid, or target is reachable via c's subtree (modeled here as group
// membership, since subtree reachability itself is a container-tree
// concern external to this package) combined with privilege.
func (c Cred) CanControl(target Cred) bool {
	if c.IsRootUser() {
		return true
	}
	if c.Uid == target.Uid {
		return true
	}
	return c.IsMemberOf(target.Gid)
}

// LoadCred resolves a username (or, for a privileged caller, a numeric
// uid) into a Cred, mirroring TCred::Load / FindUser's numeric escape
// hatch.
func LoadCred(name string, allowNumeric bool) (Cred, error) {
	if allowNumeric {
		if uid, err := strconv.ParseUint(name, 10, 32); err == nil {
			return Cred{Uid: uint32(uid), Gid: uint32(uid)}, nil
		}
	}
	u, err := user.Lookup(name)
	if err != nil {
		return Cred{}, fmt.Errorf("unknown user %q: %w", name, err)
	}
	uid, _ := strconv.ParseUint(u.Uid, 10, 32)
	gid, _ := strconv.ParseUint(u.Gid, 10, 32)
	groups, err := loadGroups(u)
	if err != nil {
		return Cred{}, err
	}
	return Cred{Uid: uint32(uid), Gid: uint32(gid), Groups: groups}, nil
}

// LoadGroupID resolves a group name (or numeric gid, for a privileged
// caller) into a gid, mirroring GroupId's numeric escape hatch.
func LoadGroupID(name string, allowNumeric bool) (uint32, error) {
	if allowNumeric {
		if gid, err := strconv.ParseUint(name, 10, 32); err == nil {
			return uint32(gid), nil
		}
	}
	g, err := user.LookupGroup(name)
	if err != nil {
		return 0, fmt.Errorf("unknown group %q: %w", name, err)
	}
	gid, _ := strconv.ParseUint(g.Gid, 10, 32)
	return uint32(gid), nil
}

// UserName reverse-resolves uid to a username, falling back to its
// decimal form when the passwd database has no entry (e.g. a container
// running under a uid private to its own namespace).
func UserName(uid uint32) string {
	if u, err := user.LookupId(strconv.FormatUint(uint64(uid), 10)); err == nil {
		return u.Username
	}
	return strconv.FormatUint(uint64(uid), 10)
}

// GroupName reverse-resolves gid to a group name, with the same numeric
// fallback as UserName.
func GroupName(gid uint32) string {
	if g, err := user.LookupGroupId(strconv.FormatUint(uint64(gid), 10)); err == nil {
		return g.Name
	}
	return strconv.FormatUint(uint64(gid), 10)
}

func loadGroups(u *user.User) ([]uint32, error) {
	ids, err := u.GroupIds()
	if err != nil {
		return nil, fmt.Errorf("load groups for %q: %w", u.Username, err)
	}
	groups := make([]uint32, 0, len(ids))
	for _, id := range ids {
		gid, err := strconv.ParseUint(id, 10, 32)
		if err != nil {
			continue
		}
		groups = append(groups, uint32(gid))
	}
	return groups, nil
}
