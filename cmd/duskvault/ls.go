package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cellstate/duskvault/hashtree"
	"github.com/cellstate/duskvault/vfs"
)

func newLsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls [PATH]",
		Short: "list families, snapshots, or a directory's entries",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path vfs.Path
			if len(args) == 1 {
				path = vfs.ParsePath(args[0])
			}

			repo, err := openRepo(repoDir)
			if err != nil {
				return err
			}
			defer repo.Close()

			fetcher := hashtree.NewFetcher(repo.be, repo.masterKey)
			fs := vfs.New(&indexCatalog{idx: repo.idx, fetcher: fetcher}, fetcher)

			result, found, err := fs.Ls(path)
			if err != nil {
				return fmt.Errorf("duskvault: ls: %w", err)
			}
			if !found {
				return fmt.Errorf("duskvault: no such path %q", args)
			}

			printLsResult(result)
			return nil
		},
	}
}

func printLsResult(result vfs.Result) {
	switch result.Kind {
	case vfs.KindRoot:
		for _, family := range result.Families {
			fmt.Println(family)
		}
	case vfs.KindSnapshots:
		for _, s := range result.Snapshots {
			fmt.Printf("%d\t%s\n", s.ID, s.Msg)
		}
	case vfs.KindDir:
		for _, e := range result.Entries {
			fmt.Println(e.Info.Name.Utf8())
		}
	case vfs.KindFile:
		fmt.Println(result.File.Info.Name.Utf8())
	}
}
