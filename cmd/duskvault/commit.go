package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cellstate/duskvault/hashtree"
	"github.com/cellstate/duskvault/model"
	"github.com/cellstate/duskvault/walker"
)

func newCommitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "commit NAME PATH",
		Short: "commit the directory tree at PATH as a new snapshot of family NAME",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			family, path := args[0], args[1]
			if family == model.RootFamilyName {
				return fmt.Errorf("duskvault: %q is a reserved family name", family)
			}

			repo, err := openRepo(repoDir)
			if err != nil {
				return err
			}
			defer repo.Close()

			w := hashtree.NewWriter(repo.be, repo.masterKey, hashtree.DefaultWriterConfig())
			treeRoot, err := commitTree(w, path)
			if err != nil {
				return fmt.Errorf("duskvault: commit %s: %w", path, err)
			}

			fetcher := hashtree.NewFetcher(repo.be, repo.masterKey)
			var existing []model.Snapshot
			if famRoot, ok := repo.idx.FamilyRoot(family); ok {
				existing, err = walker.ReadSnapshotList(fetcher, famRoot)
				if err != nil {
					return fmt.Errorf("duskvault: read existing snapshots: %w", err)
				}
			}

			snap := model.Snapshot{
				ID:           nextSnapshotID(existing),
				HashRef:      treeRoot,
				FamilyName:   family,
				CreatedTSUTC: time.Now().Unix(),
			}
			newFamilyRoot, err := w.WriteSnapshotList(append(existing, snap))
			if err != nil {
				return fmt.Errorf("duskvault: write snapshot list: %w", err)
			}

			if err := w.Close(); err != nil {
				return fmt.Errorf("duskvault: flush: %w", err)
			}

			repo.idx.SetFamilyRoot(family, newFamilyRoot)
			if err := repo.idx.Save(); err != nil {
				return err
			}

			logrus.WithFields(logrus.Fields{"family": family, "snapshot": snap.ID}).Info("committed")
			return nil
		},
	}
}

func nextSnapshotID(existing []model.Snapshot) uint64 {
	var max uint64
	for _, s := range existing {
		if s.ID > max {
			max = s.ID
		}
	}
	return max + 1
}

// commitTree recursively writes the local directory at path into the
// hash tree, returning the root of its TreeList. Regular files,
// subdirectories and symlinks are supported; other file types (device
// nodes, sockets, FIFOs) are skipped with a warning, matching this
// module's lowest-common-denominator attribute fidelity.
func commitTree(w *hashtree.Writer, path string) (model.HashRef, error) {
	dirEntries, err := os.ReadDir(path)
	if err != nil {
		return model.HashRef{}, err
	}

	files := make([]model.File, 0, len(dirEntries))
	for _, de := range dirEntries {
		childPath := filepath.Join(path, de.Name())
		info, err := os.Lstat(childPath)
		if err != nil {
			return model.HashRef{}, err
		}

		entry := entryFromFileInfo(info)
		entry.Name = model.FileNameFromString(de.Name())

		switch {
		case info.Mode()&os.ModeSymlink != 0:
			target, err := os.Readlink(childPath)
			if err != nil {
				return model.HashRef{}, err
			}
			files = append(files, model.File{Info: entry, Content: model.LinkContent([]byte(target))})

		case info.IsDir():
			root, err := commitTree(w, childPath)
			if err != nil {
				return model.HashRef{}, err
			}
			files = append(files, model.File{Info: entry, Content: model.DirContent(root)})

		case info.Mode().IsRegular():
			f, err := os.Open(childPath)
			if err != nil {
				return model.HashRef{}, err
			}
			root, err := w.WriteFile(f)
			closeErr := f.Close()
			if err != nil {
				return model.HashRef{}, err
			}
			if closeErr != nil {
				return model.HashRef{}, closeErr
			}
			files = append(files, model.File{Info: entry, Content: model.DataContent(root)})

		default:
			logrus.WithField("path", childPath).Warn("skipping non-regular, non-directory, non-symlink entry")
			continue
		}
	}

	return w.WriteDirectory(files)
}

func entryFromFileInfo(info os.FileInfo) model.Entry {
	entry := model.Entry{
		ModifiedTS:  info.ModTime().Unix(),
		Permissions: model.ModePermissions(uint32(info.Mode().Perm())),
	}
	if info.Mode().IsRegular() {
		entry.SetByteLength(info.Size(), true)
	} else {
		entry.SetByteLength(0, false)
	}
	return entry
}
