package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func BalanceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Show the value held in escrow",
		RunE: func(cmd *cobra.Command, args []string) error {
			reconcile, _ := cmd.Flags().GetBool("reconcile")

			s, err := openLedger(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			var balance int64
			if reconcile {
				balance, err = s.ledger.Reconcile(cmd.Context())
			} else {
				balance, err = s.ledger.GetBalance(cmd.Context())
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Escrow balance: %d\n", balance)
			return nil
		},
	}

	addDebugFlag(cmd)
	cmd.Flags().Bool("reconcile", false, "Verify the balance against the escrow journal")
	return cmd
}
