package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nerrad567/gray-logic-profiler/internal/fingerprint"
)

func newRulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Work with fingerprint rule tables",
	}

	validate := &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a rule table and print its version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := fingerprint.LoadTable(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d rules, version %s\n", args[0], t.Len(), t.Version())
			return nil
		},
	}

	compile := &cobra.Command{
		Use:   "compile <in> <out.msgpack>",
		Short: "Compile a YAML or JSON rule table into a msgpack snapshot",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := fingerprint.LoadTable(args[0])
			if err != nil {
				return err
			}
			if err := fingerprint.WriteSnapshot(args[1], t); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s: %d rules, version %s\n", args[1], t.Len(), t.Version())
			return nil
		},
	}

	cmd.AddCommand(validate, compile)
	return cmd
}
