package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sergiofdezfernandez/housing-rental-backend/internal/ledger"
)

func LeaseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lease",
		Short: "Propose, accept, pay and settle lease agreements",
	}
	addDebugFlag(cmd)

	cmd.AddCommand(
		leaseProposeCmd(),
		leaseAcceptCmd(),
		leasePayCmd(),
		leaseReturnCmd(),
		leaseWithdrawCmd(),
		leaseListCmd(),
	)
	return cmd
}

func leaseProposeCmd() *cobra.Command {
	var req ledger.LeaseRequest
	var amount int64

	cmd := &cobra.Command{
		Use:   "propose",
		Short: "Propose a lease for a property as the tenant",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openLedger(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			agreement, err := s.ledger.RentProperty(cmd.Context(), caller(cmd), req, amount)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Proposed lease agreement %d for property %d (%d months at %d)\n",
				agreement.ID, agreement.PropertyID, agreement.DurationMonths, agreement.RentPricePerPeriod)
			return nil
		},
	}

	callerFlag(cmd)
	cmd.Flags().Uint64Var(&req.PropertyID, "property", 0, "Property ID")
	cmd.Flags().Int64Var(&req.DurationMonths, "months", 0, "Number of rent periods")
	cmd.Flags().Int64Var(&req.DeclaredDeposit, "deposit", 0, "Deposit declared by the tenant")
	cmd.Flags().Int64Var(&amount, "amount", 0, "Value attached to the proposal (one period's rent)")
	cmd.Flags().StringVar(&req.Tenant.Name, "name", "", "Tenant name")
	cmd.Flags().StringVar(&req.Tenant.PhoneNumber, "phone", "", "Tenant phone number")
	cmd.Flags().StringVar(&req.Tenant.Email, "email", "", "Tenant email")
	_ = cmd.MarkFlagRequired("property")
	return cmd
}

func leaseAcceptCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accept [id]",
		Short: "Accept a proposed lease as the landlord",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			s, err := openLedger(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			agreement, err := s.ledger.AcceptLeaseAgreement(cmd.Context(), caller(cmd), id)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Lease agreement %d is %s\n", agreement.ID, agreement.State)
			return nil
		},
	}
	callerFlag(cmd)
	return cmd
}

func leasePayCmd() *cobra.Command {
	var amount int64

	cmd := &cobra.Command{
		Use:   "pay [id]",
		Short: "Pay one period's rent as the tenant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			s, err := openLedger(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			agreement, err := s.ledger.PayRent(cmd.Context(), caller(cmd), id, amount)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Paid %d on lease agreement %d (%d of %d)\n",
				amount, agreement.ID, agreement.TotalRentPaid, agreement.RentDue())
			return nil
		},
	}
	callerFlag(cmd)
	cmd.Flags().Int64Var(&amount, "amount", 0, "Value attached to the payment")
	return cmd
}

func leaseReturnCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "return [id]",
		Short: "Return the property of a fully paid lease",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			s, err := openLedger(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			agreement, err := s.ledger.ReturnProperty(cmd.Context(), caller(cmd), id)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Lease agreement %d is %s, refunded %d to %s\n",
				agreement.ID, agreement.State, agreement.HeldAtProposal, agreement.Tenant.ID)
			return nil
		},
	}
	callerFlag(cmd)
	return cmd
}

func leaseWithdrawCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "withdraw [id]",
		Short: "Collect paid rent as the landlord",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			s, err := openLedger(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			amount, err := s.ledger.WithdrawRent(cmd.Context(), caller(cmd), id)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Withdrew %d from lease agreement %d\n", amount, id)
			return nil
		},
	}
	callerFlag(cmd)
	return cmd
}

func leaseListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List lease agreements",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openLedger(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			agreements, err := s.ledger.GetRegisteredLeaseAgreement(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(agreements) == 0 {
				fmt.Fprintln(out, "No lease agreements yet.")
				return nil
			}

			fmt.Fprintf(out, "%-6s  %-8s  %-20s  %-10s  %-12s  %s\n", "ID", "Property", "Tenant", "State", "Paid", "Due")
			for _, a := range agreements {
				fmt.Fprintf(out, "%-6d  %-8d  %-20s  %-10s  %-12d  %d\n",
					a.ID, a.PropertyID, a.Tenant.ID, a.State, a.TotalRentPaid, a.RentDue())
			}
			return nil
		},
	}
}
