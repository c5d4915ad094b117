package main

import (
	"github.com/spf13/cobra"
)

var dateRangeCmd = &cobra.Command{
	Use:   "date-range",
	Short: "Print the first and last indexed alert dates",
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := datasetKind()
		if err != nil {
			return err
		}
		svc, err := newService(false)
		if err != nil {
			return err
		}
		doc, err := svc.DateRange(cmd.Context(), kind)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), doc)
	},
}

var latestCmd = &cobra.Command{
	Use:   "latest",
	Short: "Print the last indexed alert date",
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := datasetKind()
		if err != nil {
			return err
		}
		svc, err := newService(false)
		if err != nil {
			return err
		}
		doc, err := svc.Latest(cmd.Context(), kind)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), doc)
	},
}
