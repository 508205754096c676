package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sergiofdezfernandez/housing-rental-backend/internal/ledger"
)

// Snapshot is a point-in-time dump of the ledger.
type Snapshot struct {
	Balance    int64                   `json:"balance" yaml:"balance"`
	Properties []ledger.Property       `json:"properties" yaml:"properties"`
	Agreements []ledger.LeaseAgreement `json:"agreements" yaml:"agreements"`
	Escrow     []ledger.EscrowEntry    `json:"escrow" yaml:"escrow"`
	Events     []ledger.Event          `json:"events" yaml:"events"`
}

func SnapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Dump properties, agreements, escrow and events",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			if format != "yaml" && format != "json" {
				return fmt.Errorf("unsupported format %q (want yaml or json)", format)
			}

			s, err := openLedger(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			snap, err := takeSnapshot(cmd, s.ledger)
			if err != nil {
				return err
			}
			return writeSnapshot(cmd.OutOrStdout(), format, snap)
		},
	}

	addDebugFlag(cmd)
	cmd.Flags().String("format", "yaml", "Output format: yaml or json")
	return cmd
}

func takeSnapshot(cmd *cobra.Command, l *ledger.Ledger) (*Snapshot, error) {
	ctx := cmd.Context()
	var (
		snap Snapshot
		err  error
	)
	// reconciling first makes a broken journal fail the dump
	if snap.Balance, err = l.Reconcile(ctx); err != nil {
		return nil, err
	}
	if snap.Properties, err = l.GetRegisteredProperties(ctx); err != nil {
		return nil, err
	}
	if snap.Agreements, err = l.GetRegisteredLeaseAgreement(ctx); err != nil {
		return nil, err
	}
	if snap.Escrow, err = l.EscrowEntries(ctx, 0); err != nil {
		return nil, err
	}
	if snap.Events, err = l.Events(ctx, 0, 0); err != nil {
		return nil, err
	}
	return &snap, nil
}

func writeSnapshot(w io.Writer, format string, snap *Snapshot) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("failed to encode snapshot: %v", err)
	}
	return enc.Close()
}
