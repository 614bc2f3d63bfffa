package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cellstate/duskvault/hashtree"
	"github.com/cellstate/duskvault/model"
	"github.com/cellstate/duskvault/walker"
)

// checkoutReadChunkSize bounds how much of a file is pulled into memory
// per FileReader.Read call while materializing it to local disk.
const checkoutReadChunkSize = 1 << 20

func newCheckoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "checkout NAME PATH",
		Short: "materialize family NAME's most recent snapshot into local directory PATH",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			family, dest := args[0], args[1]

			repo, err := openRepo(repoDir)
			if err != nil {
				return err
			}
			defer repo.Close()

			fetcher := hashtree.NewFetcher(repo.be, repo.masterKey)
			famRoot, ok := repo.idx.FamilyRoot(family)
			if !ok {
				return fmt.Errorf("duskvault: unknown family %q", family)
			}
			snapshots, err := walker.ReadSnapshotList(fetcher, famRoot)
			if err != nil {
				return fmt.Errorf("duskvault: read snapshots: %w", err)
			}
			if len(snapshots) == 0 {
				return fmt.Errorf("duskvault: family %q has no committed snapshots", family)
			}

			latest := snapshots[0]
			for _, s := range snapshots[1:] {
				if s.CreatedTSUTC > latest.CreatedTSUTC {
					latest = s
				}
			}

			if err := os.MkdirAll(dest, 0755); err != nil {
				return err
			}
			if err := checkoutTree(fetcher, latest.HashRef, dest); err != nil {
				return fmt.Errorf("duskvault: checkout: %w", err)
			}

			logrus.WithFields(logrus.Fields{"family": family, "snapshot": latest.ID, "path": dest}).Info("checked out")
			return nil
		},
	}
}

func checkoutTree(f *hashtree.Fetcher, root model.HashRef, dest string) error {
	entries, err := walker.ReadDirectory(f, root)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		name := entry.Info.Name.Utf8()
		target := filepath.Join(dest, name)

		switch entry.Content.Kind {
		case model.ContentDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
			if err := checkoutTree(f, entry.Content.HashRef, target); err != nil {
				return err
			}

		case model.ContentLink:
			if err := os.Symlink(string(entry.Content.LinkPath), target); err != nil && !os.IsExist(err) {
				return err
			}

		case model.ContentData:
			if err := checkoutFile(f, entry.Content.HashRef, target); err != nil {
				return err
			}
		}
	}
	return nil
}

func checkoutFile(f *hashtree.Fetcher, root model.HashRef, target string) error {
	out, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer out.Close()

	fr := hashtree.NewFileReader(f, root)
	var offset uint64
	for {
		chunk, err := fr.Read(offset, checkoutReadChunkSize)
		if err != nil {
			return err
		}
		if len(chunk) == 0 {
			return nil
		}
		if _, err := out.Write(chunk); err != nil {
			return err
		}
		offset += uint64(len(chunk))
		if len(chunk) < checkoutReadChunkSize {
			return nil
		}
	}
}
