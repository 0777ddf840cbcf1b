package cli

import (
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"quiz-arena/internal/config"
	"quiz-arena/internal/infra/postgres"
	redisinfra "quiz-arena/internal/infra/redis"
	"quiz-arena/internal/infra/sheet"
)

// NewImportCmd loads a spreadsheet into the question_records table.
func NewImportCmd(configPath *string) *cobra.Command {
	var bankID string
	cmd := &cobra.Command{
		Use:   "import <file.xlsx|file.csv>",
		Short: "Import a question spreadsheet into Postgres",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Postgres.URL == "" {
				return fmt.Errorf("postgres url not configured")
			}

			path := args[0]
			id := bankID
			if id == "" {
				id = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			}
			bank, err := sheet.LoadFile(id, path)
			if err != nil {
				return err
			}

			if err := runMigrationsWithConfig(ctx, cfg); err != nil {
				return err
			}
			b, err := openBackends(ctx, cfg)
			if err != nil {
				return err
			}
			defer b.Close()

			n, err := postgres.NewBankImporter(b.db).Import(ctx, bank)
			if err != nil {
				return err
			}
			if b.redis != nil {
				cache := redisinfra.NewBankRepository(b.redis, nil, 0)
				if err := cache.Invalidate(ctx, bank.ID); err != nil {
					log.Printf("invalidate cached bank %s: %v", bank.ID, err)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d questions into bank %q\n", n, bank.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&bankID, "bank", "", "bank id (defaults to the file name)")
	return cmd
}
