package main

import (
	"fmt"

	"bazil.org/fuse"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cellstate/duskvault/fuseadapter"
	"github.com/cellstate/duskvault/hashtree"
)

func newMountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mount PATH",
		Short: "mount the repository's read-only snapshot view at PATH",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mountpoint := args[0]

			repo, err := openRepo(repoDir)
			if err != nil {
				return err
			}
			defer repo.Close()

			fetcher := hashtree.NewFetcher(repo.be, repo.masterKey)
			catalog := &indexCatalog{idx: repo.idx, fetcher: fetcher}

			adapter, err := fuseadapter.New(catalog, fetcher)
			if err != nil {
				return fmt.Errorf("duskvault: build filesystem view: %w", err)
			}

			conn, err := fuse.Mount(
				mountpoint,
				fuse.FSName("duskvault"),
				fuse.Subtype("duskvaultfs"),
				fuse.ReadOnly(),
			)
			if err != nil {
				return fmt.Errorf("duskvault: mount %s: %w", mountpoint, err)
			}
			defer conn.Close()

			logrus.WithField("mountpoint", mountpoint).Info("mounted, serving requests")
			return adapter.Serve(conn)
		},
	}
}
