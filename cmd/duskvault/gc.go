package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cellstate/duskvault/hashtree"
	"github.com/cellstate/duskvault/model"
	"github.com/cellstate/duskvault/walker"
)

func newGCCmd() *cobra.Command {
	var printOnly bool

	cmd := &cobra.Command{
		Use:   "gc",
		Short: "reclaim blobs unreachable from any family's snapshot roster",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := openRepo(repoDir)
			if err != nil {
				return err
			}
			defer repo.Close()

			fetcher := hashtree.NewFetcher(repo.be, repo.masterKey)

			reachable := make(map[string]struct{})
			for _, family := range repo.idx.FamilyNames() {
				famRoot, _ := repo.idx.FamilyRoot(family)
				if err := hashtree.CollectBlobNames(fetcher, famRoot, reachable); err != nil {
					return fmt.Errorf("duskvault: walk family %q: %w", family, err)
				}

				snapshots, err := walker.ReadSnapshotList(fetcher, famRoot)
				if err != nil {
					return fmt.Errorf("duskvault: read snapshots for %q: %w", family, err)
				}
				for _, s := range snapshots {
					if err := hashtree.CollectBlobNames(fetcher, s.HashRef, reachable); err != nil {
						return fmt.Errorf("duskvault: walk snapshot %d of %q: %w", s.ID, family, err)
					}
					err := walker.Walk(fetcher, s.HashRef, func(_ []model.FileName, file model.File) error {
						if file.Content.Kind == model.ContentData || file.Content.Kind == model.ContentDir {
							return hashtree.CollectBlobNames(fetcher, file.Content.HashRef, reachable)
						}
						return nil
					})
					if err != nil {
						return fmt.Errorf("duskvault: walk snapshot %d of %q: %w", s.ID, family, err)
					}
				}
			}

			all, err := repo.be.List()
			if err != nil {
				return fmt.Errorf("duskvault: list blobs: %w", err)
			}

			var reclaimed int
			for _, name := range all {
				if _, ok := reachable[string(name)]; ok {
					continue
				}
				if printOnly {
					logrus.WithField("blob", fmt.Sprintf("%x", name)).Info("gc: would delete")
					continue
				}
				if err := repo.be.Delete(name); err != nil {
					return fmt.Errorf("duskvault: delete blob %x: %w", name, err)
				}
				reclaimed++
			}

			logrus.WithFields(logrus.Fields{"examined": len(all), "reclaimed": reclaimed, "dry_run": printOnly}).Info("gc complete")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&printOnly, "print", "p", false, "print what would be deleted without deleting it")
	return cmd
}
