// Command tuoupdater finishes a launcher self-update.
//
// It is started by the launcher from a temporary copy with the launcher's pid,
// the downloaded archive, the install directory and the launcher executable.
package main

import (
	"os"

	"github.com/adamancini/tuolauncher/internal/helper"
)

func main() {
	os.Exit(helper.Main(os.Args[1:], os.Stderr))
}
