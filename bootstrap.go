package main

import (
	"fmt"
	"os"
	"strconv"

	"golang.org/x/sys/unix"
)

// Exit codes from spec.md §6.
const (
	exitChdirFailure     = 20
	exitPrivilegeFailure = 30
	exitServeFailure     = 40
)

// chrootTo chdirs into dir and then chroots to it, matching the two-step
// sequence original_source/src/main.rs performs (chdir first so a relative
// "." inside the chroot still resolves once the root changes out from under
// it). A chdir failure and a chroot failure are reported through distinct
// exit codes per spec.md §6.
func chrootTo(dir string) {
	if err := os.Chdir(dir); err != nil {
		fmt.Fprintf(os.Stderr, "chdir %s: %v\n", dir, err)
		os.Exit(exitChdirFailure)
	}
	if err := unix.Chroot("."); err != nil {
		fmt.Fprintf(os.Stderr, "chroot %s: %v\n", dir, err)
		os.Exit(exitPrivilegeFailure)
	}
}

// dropPrivileges applies $UID (via setuid) then $GID (via setgroups+setgid),
// the order spec.md §6 mandates ("GID is applied after UID") and the order
// original_source/src/main.rs follows.
func dropPrivileges() {
	if raw, ok := os.LookupEnv("UID"); ok {
		uid, err := strconv.Atoi(raw)
		if err != nil {
			fmt.Fprintf(os.Stderr, "malformed UID %q: %v\n", raw, err)
			os.Exit(exitPrivilegeFailure)
		}
		if err := unix.Setuid(uid); err != nil {
			fmt.Fprintf(os.Stderr, "setuid %d: %v\n", uid, err)
			os.Exit(exitPrivilegeFailure)
		}
	}

	if raw, ok := os.LookupEnv("GID"); ok {
		gid, err := strconv.Atoi(raw)
		if err != nil {
			fmt.Fprintf(os.Stderr, "malformed GID %q: %v\n", raw, err)
			os.Exit(exitPrivilegeFailure)
		}
		if err := unix.Setgroups([]int{gid}); err != nil {
			fmt.Fprintf(os.Stderr, "setgroups %d: %v\n", gid, err)
			os.Exit(exitPrivilegeFailure)
		}
		if err := unix.Setgid(gid); err != nil {
			fmt.Fprintf(os.Stderr, "setgid %d: %v\n", gid, err)
			os.Exit(exitPrivilegeFailure)
		}
	}
}
