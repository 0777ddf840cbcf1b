package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"quiz-arena/internal/config"
)

// NewPlayerCmd groups player account commands.
func NewPlayerCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "player",
		Short: "Manage player accounts",
	}
	cmd.AddCommand(newPlayerAddCmd(configPath))
	return cmd
}

func newPlayerAddCmd(configPath *string) *cobra.Command {
	var name, password string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a player and print its token",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			b, err := openBackends(ctx, cfg)
			if err != nil {
				return err
			}
			defer b.Close()

			players := b.players(cfg)
			if players == nil {
				return fmt.Errorf("auth.jwtSecret not configured")
			}
			token, err := players.Register(ctx, name, password)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "player name")
	cmd.Flags().StringVar(&password, "password", "", "player password")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
