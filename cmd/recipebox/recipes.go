package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"recipebox/internal/app"
	"recipebox/internal/config"
	"recipebox/internal/database"
	"recipebox/internal/database/migration"
	"recipebox/internal/service"
	"recipebox/internal/validation"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or upgrade the Postgres recipe schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.DocStore.Driver != config.DocStorePostgres {
			log.Info("migration_skipped", zap.String("docstore", cfg.DocStore.Driver))
			return nil
		}
		db, err := database.NewPostgres(cmd.Context(), cfg.DocStore.Database)
		if err != nil {
			return err
		}
		defer db.Close()
		return migration.EnsureMigrated(cmd.Context(), db, log, cfg.DocStore.Database.Host)
	},
}

// recipesCmd groups read-only recipe commands.
var recipesCmd = &cobra.Command{
	Use:   "recipes",
	Short: "Inspect stored recipes",
}

var recipesListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print every recipe as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd.Context(), func(svc service.RecipeService) error {
			return listRecipes(cmd.Context(), svc, cmd.OutOrStdout())
		})
	},
}

var recipesGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Print one recipe as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd.Context(), func(svc service.RecipeService) error {
			return getRecipe(cmd.Context(), svc, args[0], cmd.OutOrStdout())
		})
	},
}

func init() {
	recipesCmd.AddCommand(recipesListCmd)
	recipesCmd.AddCommand(recipesGetCmd)
}

func withService(ctx context.Context, fn func(service.RecipeService) error) error {
	backends, err := app.OpenBackends(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = backends.Close(context.Background()) }()
	return fn(app.NewRecipeService(cfg, backends, validation.New()))
}

func listRecipes(ctx context.Context, svc service.RecipeService, w io.Writer) error {
	res, err := svc.List(ctx)
	if err != nil {
		return err
	}
	return printJSON(w, res)
}

func getRecipe(ctx context.Context, svc service.RecipeService, id string, w io.Writer) error {
	rec, err := svc.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("recipe %s: %w", id, err)
	}
	return printJSON(w, rec)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
