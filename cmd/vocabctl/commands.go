package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"vocab-backend/internal/app"
	"vocab-backend/internal/database"
	"vocab-backend/internal/importer"
	"vocab-backend/internal/repository"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.close()

		dir, _ := cmd.Flags().GetString("dir")
		if dir == "" {
			dir = e.cfg.MigrationsDir
		}
		if err := database.RunMigrations(cmd.Context(), e.pool, dir, e.log); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		fmt.Println("✓ migrations applied")
		return nil
	},
}

var importWordsCmd = &cobra.Command{
	Use:   "import-words <file>",
	Short: "Load dictionary words from an .xlsx or .csv file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.close()

		cfg := importer.DefaultConfig()
		cfg.SheetName, _ = cmd.Flags().GetString("sheet")
		noHeader, _ := cmd.Flags().GetBool("no-header")
		cfg.SkipHeader = !noHeader

		result, err := importer.ImportFile(cmd.Context(), repository.NewWordRepo(e.pool), args[0], cfg)
		if err != nil {
			return fmt.Errorf("import: %w", err)
		}

		fmt.Printf("rows: %d  imported: %d  skipped: %d\n", result.Rows, result.Imported, result.Skipped)
		for _, msg := range result.Errors {
			fmt.Println("  " + msg)
		}
		return nil
	},
}

var resetReviewsCmd = &cobra.Command{
	Use:   "reset-reviews",
	Short: "Restart the review ladder of every word with a missed review",
	RunE: func(cmd *cobra.Command, args []string) error {
		date, _ := cmd.Flags().GetString("date")
		return withServices(cmd, func(ctx context.Context, c *app.Container, _ *env) error {
			result, err := c.SRS.ResetMissedReviews(ctx, date)
			if err != nil {
				return err
			}
			fmt.Printf("%s: reset %d words for %d students\n", result.Date, result.Words, result.Students)
			return nil
		})
	},
}

var cleanupGhostsCmd = &cobra.Command{
	Use:   "cleanup-ghosts",
	Short: "Remove words that are no longer in the dictionary from every student",
	RunE: func(cmd *cobra.Command, args []string) error {
		word, _ := cmd.Flags().GetString("word")
		return withServices(cmd, func(ctx context.Context, c *app.Container, _ *env) error {
			var (
				removed int64
				err     error
			)
			if word != "" {
				removed, err = c.Mastery.CleanupGhostWord(ctx, word)
			} else {
				removed, err = c.Mastery.CleanupGhostWords(ctx)
			}
			if err != nil {
				return err
			}
			fmt.Printf("removed %d tracked entries\n", removed)
			return nil
		})
	},
}

var createStudentCmd = &cobra.Command{
	Use:   "create-student",
	Short: "Create a login account",
	RunE: func(cmd *cobra.Command, args []string) error {
		username, _ := cmd.Flags().GetString("username")
		password, _ := cmd.Flags().GetString("password")
		role, _ := cmd.Flags().GetString("role")

		return withServices(cmd, func(ctx context.Context, c *app.Container, _ *env) error {
			s, err := c.Auth.CreateStudent(ctx, username, password, role)
			if err != nil {
				return describe(err)
			}
			fmt.Printf("created %s %s (%s)\n", s.Role, s.Username, s.ID)
			return nil
		})
	},
}

func init() {
	migrateCmd.Flags().String("dir", "", "Migrations directory (defaults to MIGRATIONS_DIR)")

	importWordsCmd.Flags().String("sheet", "", "Sheet name for Excel files (defaults to the first sheet)")
	importWordsCmd.Flags().Bool("no-header", false, "Treat the first row as data")

	resetReviewsCmd.Flags().String("date", "", "Reference date YYYY-MM-DD (defaults to today)")

	cleanupGhostsCmd.Flags().String("word", "", "Delete this word from the dictionary first")

	createStudentCmd.Flags().String("username", "", "Login name")
	createStudentCmd.Flags().String("password", "", "Initial password")
	createStudentCmd.Flags().String("role", "student", "student, teacher or admin")
	createStudentCmd.MarkFlagRequired("username")
	createStudentCmd.MarkFlagRequired("password")
}
