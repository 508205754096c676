package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/sergiofdezfernandez/housing-rental-backend/internal/config"
	"github.com/sergiofdezfernandez/housing-rental-backend/internal/database"
	"github.com/sergiofdezfernandez/housing-rental-backend/internal/ledger"
	"github.com/sergiofdezfernandez/housing-rental-backend/internal/logger"
	"github.com/sergiofdezfernandez/housing-rental-backend/internal/migration"
)

// ServiceName tags logs and is the default metrics prefix.
const ServiceName = "rental"

type session struct {
	cfg    *config.Config
	db     *gorm.DB
	log    *zap.Logger
	ledger *ledger.Ledger
}

// openDB loads the configuration and connects without touching the schema.
func openDB(cmd *cobra.Command) (*session, error) {
	cfg, err := config.Load(ServiceName)
	if err != nil {
		return nil, err
	}

	level := "warn"
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		level = "debug"
	}
	log, err := logger.New(logger.LogConfig{
		Level:       level,
		Environment: cfg.Server.Env,
		ServiceName: cfg.ServiceName,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %v", err)
	}

	db, err := database.Open(cfg.DB)
	if err != nil {
		return nil, err
	}

	return &session{cfg: cfg, db: db, log: log}, nil
}

// openLedger connects and migrates the schema to the latest version.
func openLedger(cmd *cobra.Command) (*session, error) {
	s, err := openDB(cmd)
	if err != nil {
		return nil, err
	}

	s.ledger, err = ledger.Open(s.db, ledger.WithLogger(s.log))
	if err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *session) Close() {
	_ = s.log.Sync()
	_ = database.Close(s.db)
}

func callerFlag(cmd *cobra.Command) {
	cmd.Flags().String("as", "", "Principal invoking the operation")
	_ = cmd.MarkFlagRequired("as")
}

func caller(cmd *cobra.Command) ledger.Principal {
	as, _ := cmd.Flags().GetString("as")
	return ledger.Principal(as)
}

func parseID(arg string) (uint64, error) {
	id, err := strconv.ParseUint(arg, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}

func addDebugFlag(cmd *cobra.Command) {
	cmd.PersistentFlags().Bool("debug", false, "Enable debug output")
}

func newMigrator(s *session) *migration.Migrator {
	return ledger.NewMigrator(s.db)
}
