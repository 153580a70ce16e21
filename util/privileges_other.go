//go:build !linux

package util

// DropPrivileges is a noop on platforms without setuid process
// identity handling.
func DropPrivileges(username, groupname string) error { return nil }
