package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func EventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show the ledger event log",
		RunE: func(cmd *cobra.Command, args []string) error {
			after, _ := cmd.Flags().GetUint64("after")
			limit, _ := cmd.Flags().GetInt("limit")

			s, err := openLedger(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			events, err := s.ledger.Events(cmd.Context(), after, limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(events) == 0 {
				fmt.Fprintln(out, "No events.")
				return nil
			}

			fmt.Fprintf(out, "%-6s  %-24s  %-8s  %-9s  %-20s  %-10s  %s\n", "Seq", "Kind", "Property", "Agreement", "Principal", "Amount", "At")
			for _, e := range events {
				fmt.Fprintf(out, "%-6d  %-24s  %-8d  %-9d  %-20s  %-10d  %s\n",
					e.Sequence, e.Kind, e.PropertyID, e.AgreementID, e.Principal, e.Amount, e.CreatedAt.Format(time.RFC3339))
			}
			return nil
		},
	}

	addDebugFlag(cmd)
	cmd.Flags().Uint64("after", 0, "Only show events after this sequence number")
	cmd.Flags().Int("limit", 0, "Maximum number of events (0 for all)")
	return cmd
}
