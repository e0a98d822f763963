package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xaenox/pocket-therapy/internal/models"
	"github.com/xaenox/pocket-therapy/internal/seed"
)

var (
	forceSeed bool
	failStale bool
)

var validateResourcesCmd = &cobra.Command{
	Use:   "validate-resources",
	Short: "List crisis resources due for re-verification",
	Long: `Reports every crisis resource last verified more than six months ago,
oldest first. With --fail the command exits non-zero when any are found,
which suits a scheduled CI job.`,
	RunE: runValidateResources,
}

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete mood entries older than the retention window",
	RunE:  runPurge,
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the embedded exercise and crisis-resource catalogs",
	Long: `Loads the embedded catalogs into storage when the stored seed version
differs from ` + seed.Version + ` or the stored catalogs are empty. --force
reloads unconditionally.`,
	RunE: runSeed,
}

func init() {
	validateResourcesCmd.Flags().BoolVar(&failStale, "fail", false, "exit non-zero when stale resources are found")
	seedCmd.Flags().BoolVar(&forceSeed, "force", false, "reload even when the seed version matches")
}

func runValidateResources(cmd *cobra.Command, args []string) error {
	a, err := buildApp(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	stale, err := a.locator.ValidateResources(cmd.Context())
	if err != nil {
		return err
	}
	printStale(cmd.OutOrStdout(), stale)
	if failStale && len(stale) > 0 {
		return fmt.Errorf("%d crisis resources need re-verification", len(stale))
	}
	return nil
}

func printStale(w io.Writer, stale []models.StaleResource) {
	if len(stale) == 0 {
		fmt.Fprintln(w, "All crisis resources were verified within the last six months.")
		return
	}
	for _, s := range stale {
		fmt.Fprintf(w, "%-28s %-36s verified %s (%d days ago)\n",
			s.Resource.ID, s.Resource.Name,
			s.LastVerified.Format(time.DateOnly), int(s.Age.Hours()/24))
	}
}

func runPurge(cmd *cobra.Command, args []string) error {
	a, err := buildApp(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	n, err := a.checkin.PurgeExpired(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d mood entries older than %d days.\n", n, cfg.Retention.Days)
	return nil
}

func runSeed(cmd *cobra.Command, args []string) error {
	a, err := buildApp(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if forceSeed {
		return a.seeder.Apply(cmd.Context())
	}
	seeded, err := a.seeder.Ensure(cmd.Context())
	if err != nil {
		return err
	}
	if !seeded {
		logger.Info("Catalogs already at current seed version", zap.String("version", seed.Version))
	}
	return nil
}
