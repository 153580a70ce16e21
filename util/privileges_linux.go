//go:build linux

package util

import (
	"os/user"
	"strconv"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// DropPrivileges switches the process identity to the named user and
// group. It is a noop unless the process is running as root. The group
// is applied before the user so the process cannot regain privileges.
func DropPrivileges(username, groupname string) error {
	if unix.Geteuid() != 0 {
		return nil
	}

	grp, err := user.LookupGroup(groupname)
	if err != nil {
		return errors.Wrapf(err, "problem looking up group '%s'", groupname)
	}
	gid, err := strconv.Atoi(grp.Gid)
	if err != nil {
		return errors.Wrapf(err, "invalid gid '%s'", grp.Gid)
	}

	usr, err := user.Lookup(username)
	if err != nil {
		return errors.Wrapf(err, "problem looking up user '%s'", username)
	}
	uid, err := strconv.Atoi(usr.Uid)
	if err != nil {
		return errors.Wrapf(err, "invalid uid '%s'", usr.Uid)
	}

	if err := unix.Setgroups([]int{gid}); err != nil {
		return errors.Wrap(err, "problem clearing supplementary groups")
	}
	if err := unix.Setgid(gid); err != nil {
		return errors.Wrapf(err, "problem setting gid %d", gid)
	}
	if err := unix.Setuid(uid); err != nil {
		return errors.Wrapf(err, "problem setting uid %d", uid)
	}

	return nil
}
