package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cellstate/duskvault/backend"
	"github.com/cellstate/duskvault/localindex"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init DIR",
		Short: "create a new, empty repository at DIR",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := args[0]
			if err := os.MkdirAll(dir, 0700); err != nil {
				return fmt.Errorf("duskvault: create %s: %w", dir, err)
			}

			keyPath := filepath.Join(dir, masterKeyFile)
			if _, err := os.Stat(keyPath); err == nil {
				return fmt.Errorf("duskvault: %s is already initialized", dir)
			}

			key, err := generateMasterKey()
			if err != nil {
				return err
			}
			if err := os.WriteFile(keyPath, key, 0600); err != nil {
				return fmt.Errorf("duskvault: write master key: %w", err)
			}

			bolt, err := backend.OpenBolt(filepath.Join(dir, blobFile), backend.DefaultConcurrency)
			if err != nil {
				return fmt.Errorf("duskvault: create blob store: %w", err)
			}
			if err := bolt.Close(); err != nil {
				return err
			}

			idx, err := localindex.Open(filepath.Join(dir, indexFile))
			if err != nil {
				return err
			}
			if err := idx.Save(); err != nil {
				return err
			}

			logrus.WithField("repo", dir).Info("repository initialized")
			return nil
		},
	}
}
