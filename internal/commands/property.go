package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sergiofdezfernandez/housing-rental-backend/internal/ledger"
)

func PropertyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "property",
		Short: "Register and list properties",
	}
	addDebugFlag(cmd)

	cmd.AddCommand(propertyRegisterCmd(), propertyListCmd())
	return cmd
}

func propertyRegisterCmd() *cobra.Command {
	var in ledger.PropertyInput

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a property owned by the caller",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openLedger(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			property, err := s.ledger.RegisterProperty(cmd.Context(), caller(cmd), in)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Registered property %d (price %d, deposit %d)\n",
				property.ID, property.Price, property.Deposit)
			return nil
		},
	}

	callerFlag(cmd)
	cmd.Flags().StringVar(&in.Address, "address", "", "Street address")
	cmd.Flags().StringVar(&in.Description, "description", "", "Free-form description")
	cmd.Flags().Int64Var(&in.Price, "price", 0, "Rent per period")
	cmd.Flags().Int64Var(&in.Deposit, "deposit", 0, "Deposit required from tenants")
	cmd.Flags().StringVar(&in.ContactName, "contact-name", "", "Contact name")
	cmd.Flags().StringVar(&in.ContactPhone, "contact-phone", "", "Contact phone")
	cmd.Flags().StringVar(&in.ContactEmail, "contact-email", "", "Contact email")
	return cmd
}

func propertyListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered properties",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openLedger(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			properties, err := s.ledger.GetRegisteredProperties(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(properties) == 0 {
				fmt.Fprintln(out, "No properties have been registered yet.")
				return nil
			}

			fmt.Fprintf(out, "%-6s  %-20s  %-10s  %-10s  %-8s  %s\n", "ID", "Landlord", "Price", "Deposit", "Rented", "Address")
			for _, p := range properties {
				fmt.Fprintf(out, "%-6d  %-20s  %-10d  %-10d  %-8t  %s\n", p.ID, p.Landlord, p.Price, p.Deposit, p.IsRented, p.Address)
			}
			return nil
		},
	}
}
