package cli

import (
	"context"

	"github.com/m-mizutani/fireconf"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/tonecheck/pkg/cli/config"
	"github.com/secmon-lab/tonecheck/pkg/repository/firestore"
	"github.com/secmon-lab/tonecheck/pkg/repository/sheets"
	"github.com/secmon-lab/tonecheck/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdMigrate() *cli.Command {
	var ledgerCfg config.Ledger
	var dryRun bool

	flags := ledgerCfg.Flags()
	flags = append(flags, &cli.BoolFlag{
		Name:        "dry-run",
		Usage:       "Preview changes without applying",
		Destination: &dryRun,
	})

	return &cli.Command{
		Name:    "migrate",
		Aliases: []string{"m"},
		Usage:   "Prepare the ledger (Firestore indexes or the sheet header row)",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()
			logger.Info("Migrate configuration", "ledger", ledgerCfg, "dryRun", dryRun)

			switch ledgerCfg.Backend() {
			case config.LedgerFirestore:
				return migrateFirestore(ctx, &ledgerCfg, dryRun)
			case config.LedgerSheets:
				return migrateSheets(ctx, &ledgerCfg, dryRun)
			default:
				logger.Info("Nothing to migrate", "backend", ledgerCfg.Backend())
				return nil
			}
		},
	}
}

func migrateFirestore(ctx context.Context, ledgerCfg *config.Ledger, dryRun bool) error {
	logger := logging.Default()
	if ledgerCfg.ProjectID() == "" {
		return goerr.Wrap(config.ErrMissingSetting, "firestore project is required",
			goerr.V(config.FlagKey, "firestore-project-id"))
	}

	indexConfig := getIndexConfig(ledgerCfg.CollectionPrefix())

	client, err := fireconf.NewClient(ctx, ledgerCfg.ProjectID(), ledgerCfg.DatabaseID())
	if err != nil {
		return goerr.Wrap(err, "failed to create fireconf client")
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Error("failed to close fireconf client", "error", err.Error())
		}
	}()

	if dryRun {
		logger.Info("Dry run mode - previewing changes")
		plan, err := client.GetMigrationPlan(ctx, indexConfig)
		if err != nil {
			return goerr.Wrap(err, "failed to create migration plan")
		}

		if len(plan.Steps) == 0 {
			logger.Info("No changes required")
			return nil
		}

		for _, step := range plan.Steps {
			logger.Info("Migration step",
				"collection", step.Collection,
				"operation", step.Operation,
				"description", step.Description,
				"destructive", step.Destructive)
		}
		return nil
	}

	logger.Info("Applying migrations")
	if err := client.Migrate(ctx, indexConfig); err != nil {
		return goerr.Wrap(err, "failed to apply migrations")
	}
	logger.Info("Migrations applied successfully")
	return nil
}

func migrateSheets(ctx context.Context, ledgerCfg *config.Ledger, dryRun bool) error {
	logger := logging.Default()
	if dryRun {
		logger.Info("Dry run mode - the header row would be written when the sheet is empty")
		return nil
	}

	repo, err := ledgerCfg.Configure(ctx)
	if err != nil {
		return goerr.Wrap(err, "failed to initialize ledger")
	}
	defer func() {
		if err := repo.Close(); err != nil {
			logger.Error("failed to close ledger", "error", err)
		}
	}()

	ledger, ok := repo.(*sheets.Ledger)
	if !ok {
		return goerr.New("ledger is not backed by Google Sheets")
	}

	written, err := ledger.EnsureHeader(ctx)
	if err != nil {
		return err
	}
	if written {
		logger.Info("Ledger header row written", "url", ledger.URL())
	} else {
		logger.Info("Ledger header row already present", "url", ledger.URL())
	}
	return nil
}

// getIndexConfig returns the Firestore index configuration of the ledger
func getIndexConfig(prefix string) *fireconf.Config {
	return &fireconf.Config{
		Collections: []fireconf.Collection{
			{
				Name: firestore.CollectionName(prefix),
				Indexes: []fireconf.Index{
					// Lookup: ticket_id ASC, created_at DESC
					{
						Fields: []fireconf.IndexField{
							{Path: "ticket_id", Order: fireconf.OrderAscending},
							{Path: "created_at", Order: fireconf.OrderDescending},
						},
					},
				},
			},
		},
	}
}
