package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/andrescamacho/supplysim-go/internal/adapters/persistence"
	"github.com/andrescamacho/supplysim-go/internal/application/common"
	"github.com/andrescamacho/supplysim-go/internal/application/simulation/commands"
	"github.com/andrescamacho/supplysim-go/internal/infrastructure/config"
	"github.com/andrescamacho/supplysim-go/internal/infrastructure/database"
)

// NewSeedCommand creates the seed command group
func NewSeedCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Inspect the persisted world seeds",
	}
	cmd.AddCommand(newSeedListCommand())
	cmd.AddCommand(newSeedShowCommand())
	return cmd
}

func newSeedListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List persisted seeds",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}

			db, err := database.NewConnection(&cfg.Database)
			if err != nil {
				return fmt.Errorf("failed to open seed store: %w", err)
			}
			defer database.Close(db)

			m := common.NewMediator()
			if err := common.RegisterHandler[*commands.ListSeedsQuery](m,
				commands.NewListSeedsHandler(persistence.NewGormSeedRepository(db))); err != nil {
				return err
			}

			resp, err := m.Send(cmd.Context(), &commands.ListSeedsQuery{})
			if err != nil {
				return err
			}
			seeds := resp.(*commands.ListSeedsResponse).Seeds
			if len(seeds) == 0 {
				fmt.Println("No seeds persisted yet")
				return nil
			}
			for _, s := range seeds {
				fmt.Println(s)
			}
			return nil
		},
	}
}

func newSeedShowCommand() *cobra.Command {
	var seed int64

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the cost matrix persisted under a seed",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}

			db, err := database.NewConnection(&cfg.Database)
			if err != nil {
				return fmt.Errorf("failed to open seed store: %w", err)
			}
			defer database.Close(db)

			m := common.NewMediator()
			if err := common.RegisterHandler[*commands.ShowSeedQuery](m,
				commands.NewShowSeedHandler(persistence.NewGormSeedRepository(db))); err != nil {
				return err
			}

			resp, err := m.Send(cmd.Context(), &commands.ShowSeedQuery{Seed: seed})
			if err != nil {
				return err
			}
			matrix := resp.(*commands.ShowSeedResponse).Matrix
			for _, row := range matrix {
				for i, w := range row {
					if i > 0 {
						fmt.Print(" ")
					}
					fmt.Printf("%g", w)
				}
				fmt.Println()
			}
			return nil
		},
	}
	cmd.Flags().Int64Var(&seed, "seed", 0, "seed to show")
	_ = cmd.MarkFlagRequired("seed")
	return cmd
}
