package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newResumeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resume",
		Short: "resume a commit interrupted mid-write",
		RunE: func(cmd *cobra.Command, args []string) error {
			// TODO: resuming requires the in-progress staging index (which
			// chunks were already chunked/stored before the interruption)
			// that the committer orchestrator owns; this module only
			// implements the hash-tree and backend primitives it would
			// call into.
			return fmt.Errorf("duskvault: resume is not implemented: requires the committer's staging index")
		},
	}
}
