package main

import (
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cellstate/duskvault/hashtree"
	"github.com/cellstate/duskvault/model"
	"github.com/cellstate/duskvault/walker"
)

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete NAME ID",
		Short: "remove one snapshot from family NAME's roster",
		Long: `Removes a snapshot's entry from its family's SnapshotList. This only
un-roots the snapshot; the blobs it alone referenced are reclaimed by a
later gc, not by this command.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			family := args[0]
			id, err := strconv.ParseUint(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("duskvault: invalid snapshot id %q", args[1])
			}

			repo, err := openRepo(repoDir)
			if err != nil {
				return err
			}
			defer repo.Close()

			famRoot, ok := repo.idx.FamilyRoot(family)
			if !ok {
				return fmt.Errorf("duskvault: unknown family %q", family)
			}

			fetcher := hashtree.NewFetcher(repo.be, repo.masterKey)
			snapshots, err := walker.ReadSnapshotList(fetcher, famRoot)
			if err != nil {
				return fmt.Errorf("duskvault: read snapshots: %w", err)
			}

			remaining := make([]model.Snapshot, 0, len(snapshots))
			found := false
			for _, s := range snapshots {
				if s.ID == id {
					found = true
					continue
				}
				remaining = append(remaining, s)
			}
			if !found {
				return fmt.Errorf("duskvault: family %q has no snapshot %d", family, id)
			}

			w := hashtree.NewWriter(repo.be, repo.masterKey, hashtree.DefaultWriterConfig())
			newRoot, err := w.WriteSnapshotList(remaining)
			if err != nil {
				return fmt.Errorf("duskvault: write snapshot list: %w", err)
			}
			if err := w.Close(); err != nil {
				return err
			}

			repo.idx.SetFamilyRoot(family, newRoot)
			if err := repo.idx.Save(); err != nil {
				return err
			}

			logrus.WithFields(logrus.Fields{"family": family, "snapshot": id}).Info("deleted")
			return nil
		},
	}
}
