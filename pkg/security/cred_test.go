package security

import "testing"

func TestCredIsMemberOf(t *testing.T) {
	c := Cred{Uid: 1000, Gid: 1000, Groups: []uint32{100, 200}}
	if !c.IsMemberOf(1000) {
		t.Error("expected membership via primary gid")
	}
	if !c.IsMemberOf(200) {
		t.Error("expected membership via supplementary group")
	}
	if c.IsMemberOf(999) {
		t.Error("unexpected membership")
	}
}

func TestCredIsPermitted(t *testing.T) {
	root := Cred{Uid: 0, Gid: 0}
	if !root.IsPermitted(Cred{Uid: 1000, Gid: 1000}) {
		t.Error("root must be permitted against anything")
	}

	alice := Cred{Uid: 1000, Gid: 1000}
	if !alice.IsPermitted(Cred{Uid: 1000, Gid: 2000}) {
		t.Error("same uid must be permitted")
	}

	bob := Cred{Uid: 1001, Gid: 1000, Groups: []uint32{500}}
	if !bob.IsPermitted(Cred{Uid: 2000, Gid: 1000}) {
		t.Error("shared gid must be permitted")
	}
	if bob.IsPermitted(Cred{Uid: 2000, Gid: 2000}) {
		t.Error("unrelated creds must not be permitted")
	}
}

func TestCredCanControl(t *testing.T) {
	root := Cred{Uid: 0}
	target := Cred{Uid: 1000, Gid: 1000}
	if !root.CanControl(target) {
		t.Error("root can control anything")
	}

	owner := Cred{Uid: 1000, Gid: 2000}
	if !owner.CanControl(target) {
		t.Error("owner can control its own uid")
	}

	stranger := Cred{Uid: 1001, Gid: 3000}
	if stranger.CanControl(target) {
		t.Error("stranger must not control target")
	}
}
