// Command oneshotd serves a single HTTP/1.x request-response connection
// over fd 0/1, as one invocation of a TCP superserver's per-connection
// process. See SPEC_FULL.md for the full process contract.
package main

import (
	"os"

	"oneshotd/httpd"
)

func main() {
	if len(os.Args) > 1 {
		chrootTo(os.Args[1])
	}
	dropPrivileges()

	remote := os.Getenv("TCPREMOTEIP")
	if remote == "" {
		remote = "0"
	}

	if err := httpd.Serve(remote); err != nil {
		os.Exit(exitServeFailure)
	}
}
