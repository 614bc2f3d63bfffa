// Command duskvault is the CLI surface over the repository: init,
// commit, checkout, delete, gc, ls and mount, each a thin layer over the
// core packages (backend, hashtree, walker, vfs, fuseadapter).
package main

import (
	"os"

	"github.com/sirupsen/logrus"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logrus.WithError(err).Error("duskvault: command failed")
		os.Exit(1)
	}
}
