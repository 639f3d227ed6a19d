package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Print the current deployment's metadata",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			name, meta, err := eng.Status()
			if err != nil {
				return err
			}
			if flagJSON {
				return printJSON(cmd.OutOrStdout(), struct {
					Name string      `json:"name"`
					Meta interface{} `json:"meta"`
				}{name, meta})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "deployment:     %s\n", name)
			fmt.Fprintf(out, "status:         %s\n", meta.Status)
			fmt.Fprintf(out, "created:        %s\n", meta.Created)
			fmt.Fprintf(out, "action:         %s\n", meta.Action)
			fmt.Fprintf(out, "parent:         %s\n", meta.Parent)
			fmt.Fprintf(out, "kernel:         %s\n", meta.Kernel)
			fmt.Fprintf(out, "system_version: %s\n", meta.SystemVersion)
			if meta.RollbackReason != "" {
				fmt.Fprintf(out, "rollback_reason: %s\n", meta.RollbackReason)
			}
			return nil
		},
	})
}
