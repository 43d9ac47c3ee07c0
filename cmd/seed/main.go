package main

import (
	"context"
	_ "embed"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"formrelay/backend/internal/auth"
	"formrelay/backend/internal/config"
	"formrelay/backend/internal/logging"
	"formrelay/backend/internal/logic"
	"formrelay/backend/internal/repository"
	"formrelay/backend/pkg/models"
)

//go:embed forms.yaml
var demoForms []byte

func main() {
	var configFile, owner string

	cmd := &cobra.Command{
		Use:          "seed",
		Short:        "Load demo forms into the database",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			logger := logging.NewLogger(cfg.Log.Level)
			return seed(cmd.Context(), cfg, logger, owner)
		},
	}
	cmd.Flags().StringVar(&configFile, "config", "", "Path to config file")
	cmd.Flags().StringVar(&owner, "owner", auth.DevOwner, "Email of the account that owns the seeded forms")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadDemoForms decodes the embedded fixture and assigns owner to each form.
func loadDemoForms(owner string) ([]*models.Form, error) {
	var forms []*models.Form
	if err := yaml.Unmarshal(demoForms, &forms); err != nil {
		return nil, fmt.Errorf("decode demo forms: %w", err)
	}
	for _, f := range forms {
		if err := validateForm(f); err != nil {
			return nil, fmt.Errorf("demo form %q: %w", f.Title, err)
		}
		f.OwnerID = owner
	}
	return forms, nil
}

// validateForm rejects question types and condition operators the evaluator
// does not know, so a typo in the fixture fails the seed instead of failing open.
func validateForm(f *models.Form) error {
	for _, q := range f.Questions {
		if !logic.IsQuestionType(q.Type) {
			return fmt.Errorf("question %s: unknown type %q, want one of %v", q.ID, q.Type, logic.QuestionTypes())
		}
		if q.Logic == nil {
			continue
		}
		for _, c := range q.Logic.Conditions {
			if !logic.IsValidOperator(c.Operator) {
				return fmt.Errorf("question %s: unknown operator %q", q.ID, c.Operator)
			}
		}
	}
	return nil
}

func seed(ctx context.Context, cfg *config.Config, logger *logging.Logger, owner string) error {
	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		return fmt.Errorf("failed to connect to DB: %w", err)
	}
	defer pool.Close()

	if err := repository.Migrate(pool, repository.Up); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	forms, err := loadDemoForms(owner)
	if err != nil {
		return err
	}

	store := repository.NewPostgresStore(pool)
	for _, f := range forms {
		if err := store.SaveForm(ctx, f); err != nil {
			return fmt.Errorf("save form %q: %w", f.Title, err)
		}
		logger.Info("Seeded form", "id", f.ID, "title", f.Title, "questions", len(f.Questions), "webhooks", len(f.Settings.Webhooks))
	}
	logger.Info("Seeding complete!", "owner", owner)
	return nil
}
