package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/tonecheck/pkg/domain/interfaces"
	"github.com/secmon-lab/tonecheck/pkg/repository/firestore"
	"github.com/secmon-lab/tonecheck/pkg/repository/memory"
	"github.com/secmon-lab/tonecheck/pkg/repository/sheets"
	"github.com/secmon-lab/tonecheck/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

const (
	LedgerSheets    = "sheets"
	LedgerFirestore = "firestore"
	LedgerMemory    = "memory"
)

// Ledger holds CLI flags for the durable evaluation ledger
type Ledger struct {
	backend string

	serviceAccountEmail string
	privateKey          string
	sheetID             string
	sheetName           string

	projectID        string
	databaseID       string
	collectionPrefix string
}

func (x *Ledger) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "ledger-backend",
			Usage:       "Ledger backend type [sheets|firestore|memory]",
			Category:    "Ledger",
			Value:       LedgerSheets,
			Sources:     cli.EnvVars("TONECHECK_LEDGER_BACKEND"),
			Destination: &x.backend,
		},
		&cli.StringFlag{
			Name:        "google-service-account-email",
			Usage:       "Service account email for Google Sheets",
			Category:    "Ledger",
			Sources:     cli.EnvVars("TONECHECK_GOOGLE_SERVICE_ACCOUNT_EMAIL", "GOOGLE_SERVICE_ACCOUNT_EMAIL"),
			Destination: &x.serviceAccountEmail,
		},
		&cli.StringFlag{
			Name:        "google-private-key",
			Usage:       "Service account private key (PEM, literal \\n accepted)",
			Category:    "Ledger",
			Sources:     cli.EnvVars("TONECHECK_GOOGLE_PRIVATE_KEY", "GOOGLE_PRIVATE_KEY"),
			Destination: &x.privateKey,
		},
		&cli.StringFlag{
			Name:        "google-sheet-id",
			Usage:       "Spreadsheet ID of the ledger",
			Category:    "Ledger",
			Sources:     cli.EnvVars("TONECHECK_GOOGLE_SHEET_ID", "GOOGLE_SHEET_ID"),
			Destination: &x.sheetID,
		},
		&cli.StringFlag{
			Name:        "google-sheet-name",
			Usage:       "Sheet (tab) name of the ledger",
			Category:    "Ledger",
			Value:       sheets.DefaultSheetName,
			Sources:     cli.EnvVars("TONECHECK_GOOGLE_SHEET_NAME", "GOOGLE_SHEET_NAME"),
			Destination: &x.sheetName,
		},
		&cli.StringFlag{
			Name:        "firestore-project-id",
			Usage:       "Firestore Project ID (required when using firestore backend)",
			Category:    "Ledger",
			Sources:     cli.EnvVars("TONECHECK_FIRESTORE_PROJECT_ID"),
			Destination: &x.projectID,
		},
		&cli.StringFlag{
			Name:        "firestore-database-id",
			Usage:       "Firestore Database ID",
			Category:    "Ledger",
			Sources:     cli.EnvVars("TONECHECK_FIRESTORE_DATABASE_ID"),
			Destination: &x.databaseID,
		},
		&cli.StringFlag{
			Name:        "firestore-collection-prefix",
			Usage:       "Prefix of the Firestore ledger collection",
			Category:    "Ledger",
			Sources:     cli.EnvVars("TONECHECK_FIRESTORE_COLLECTION_PREFIX"),
			Destination: &x.collectionPrefix,
		},
	}
}

func (x Ledger) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("backend", x.backend),
		slog.String("service_account_email", x.serviceAccountEmail),
		slog.Int("private_key.len", len(x.privateKey)),
		slog.String("sheet_id", x.sheetID),
		slog.String("sheet_name", x.sheetName),
		slog.String("firestore_project_id", x.projectID),
		slog.String("firestore_database_id", x.databaseID),
	)
}

// Backend returns the configured backend type
func (x *Ledger) Backend() string {
	return x.backend
}

// ProjectID returns the Firestore project ID
func (x *Ledger) ProjectID() string {
	return x.projectID
}

// DatabaseID returns the Firestore database ID
func (x *Ledger) DatabaseID() string {
	return x.databaseID
}

// CollectionPrefix returns the Firestore collection prefix
func (x *Ledger) CollectionPrefix() string {
	return x.collectionPrefix
}

// Missing lists the flags required by the selected backend that are empty
func (x *Ledger) Missing() []string {
	var missing []string
	switch x.backend {
	case LedgerSheets:
		if x.sheetID == "" {
			missing = append(missing, "google-sheet-id")
		}
		if x.serviceAccountEmail == "" {
			missing = append(missing, "google-service-account-email")
		}
		if x.privateKey == "" {
			missing = append(missing, "google-private-key")
		}
	case LedgerFirestore:
		if x.projectID == "" {
			missing = append(missing, "firestore-project-id")
		}
	}
	return missing
}

// Configure initializes the ledger for the configured backend.
// The caller is responsible for calling Close() on the returned repository.
func (x *Ledger) Configure(ctx context.Context) (interfaces.LedgerRepository, error) {
	if missing := x.Missing(); len(missing) > 0 {
		return nil, goerr.Wrap(ErrMissingSetting, "ledger is not fully configured",
			goerr.V(BackendKey, x.backend), goerr.V(FlagKey, missing))
	}

	switch x.backend {
	case LedgerSheets:
		repo, err := sheets.New(ctx, x.sheetID,
			sheets.WithSheetName(x.sheetName),
			sheets.WithServiceAccount(x.serviceAccountEmail, x.privateKey),
		)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize sheets ledger")
		}
		logging.From(ctx).Info("Using Google Sheets ledger", "sheet_id", x.sheetID, "sheet_name", x.sheetName)
		return repo, nil

	case LedgerFirestore:
		repo, err := firestore.New(ctx, x.projectID, x.databaseID, firestore.WithCollectionPrefix(x.collectionPrefix))
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize firestore ledger")
		}
		logging.From(ctx).Info("Using Firestore ledger",
			"project_id", x.projectID,
			"database_id", x.databaseID,
			"collection", repo.CollectionName(),
		)
		return repo, nil

	case LedgerMemory:
		logging.From(ctx).Warn("Using in-memory ledger (development mode), evaluations are lost on restart")
		return memory.New(), nil

	default:
		return nil, goerr.Wrap(ErrInvalidConfig, "invalid ledger backend", goerr.V(BackendKey, x.backend))
	}
}
