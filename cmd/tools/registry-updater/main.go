// cmd/tools/registry-updater/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"migration-assessment/internal/common/config"
	"migration-assessment/internal/common/database"
	"migration-assessment/internal/common/logger"
	"migration-assessment/internal/models"
	"migration-assessment/internal/policy"
	"migration-assessment/internal/store"
	"migration-assessment/pkg/registry"
)

// publisher stores a compiled snapshot.
type publisher interface {
	Publish(ctx context.Context, snapshot *models.PolicySnapshot) error
}

// invalidator drops cached rulesets of a snapshot.
type invalidator interface {
	Invalidate(ctx context.Context, snapshotID string) error
}

func main() {
	publishCmd := flag.NewFlagSet("publish", flag.ExitOnError)
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)

	publishPath := publishCmd.String("path", "", "Snapshot file to publish (e.g., configs/policies/au-2026-01-01.yaml)")
	publishTimeout := publishCmd.Duration("timeout", 30*time.Second, "Timeout for the database work")

	validatePath := validateCmd.String("path", "configs/policies", "Snapshot file or directory of snapshot files")

	if len(os.Args) < 2 {
		help(os.Stdout)
		os.Exit(1)
	}

	switch os.Args[1] {
	case "publish":
		publishCmd.Parse(os.Args[2:])
		if *publishPath == "" {
			fmt.Println("Error: path is required for publish.")
			publishCmd.Usage()
			os.Exit(1)
		}
		if err := runPublish(*publishPath, *publishTimeout); err != nil {
			fmt.Printf("Error publishing snapshot: %v\n", err)
			os.Exit(1)
		}

	case "validate":
		validateCmd.Parse(os.Args[2:])
		snapshots, err := validatePolicies(*validatePath)
		if err != nil {
			fmt.Printf("Policy validation failed: %v\n", err)
			os.Exit(1)
		}
		for _, s := range snapshots {
			fmt.Printf("  %s (effective %s): %d rulesets\n", s.ID, s.EffectiveDate, len(s.Rulesets))
		}
		fmt.Printf("Policy validation passed. Found %d snapshots.\n", len(snapshots))

	case "help":
		fallthrough
	default:
		help(os.Stdout)
	}
}

func runPublish(path string, timeout time.Duration) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log := logger.NewStructured(cfg.Logging.Level, "console")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		return err
	}
	defer pg.Close()
	if err := pg.Migrate(ctx); err != nil {
		return err
	}

	repo := store.NewRulesetRepository(pg.DB)

	var cache invalidator
	if rdb := database.NewRedis(cfg.Database.Redis); rdb != nil {
		defer rdb.Close()
		cache = store.NewRulesetCache(repo, rdb.Client, config.GetDuration(cfg.Policy.CacheTTL), log)
	}

	snapshot, err := publishSnapshot(ctx, path, repo, cache)
	if err != nil {
		return err
	}
	fmt.Printf("Published snapshot %s with %d rulesets\n", snapshot.ID, len(snapshot.Rulesets))
	return nil
}

// publishSnapshot loads and compiles the file before anything is written.
// The cache entry is dropped so workers pick up the stored rulesets.
func publishSnapshot(ctx context.Context, path string, repo publisher, cache invalidator) (*models.PolicySnapshot, error) {
	snapshot, err := registry.LoadSnapshot(path)
	if err != nil {
		return nil, err
	}
	if err := repo.Publish(ctx, snapshot); err != nil {
		return nil, err
	}
	if cache != nil {
		if err := cache.Invalidate(ctx, snapshot.ID); err != nil {
			return snapshot, fmt.Errorf("snapshot %s published but cache not invalidated: %w", snapshot.ID, err)
		}
	}
	return snapshot, nil
}

// validatePolicies accepts a single file or a directory. A directory must
// not publish the same snapshot id twice.
func validatePolicies(path string) ([]*models.PolicySnapshot, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	var snapshots []*models.PolicySnapshot
	if info.IsDir() {
		if snapshots, err = registry.LoadDir(path); err != nil {
			return nil, err
		}
	} else {
		snapshot, err := registry.LoadSnapshot(path)
		if err != nil {
			return nil, err
		}
		snapshots = []*models.PolicySnapshot{snapshot}
	}

	if len(snapshots) == 0 {
		return nil, fmt.Errorf("no snapshot files in %s", path)
	}
	if _, err := policy.NewStatic(snapshots...); err != nil {
		return nil, err
	}
	return snapshots, nil
}

func help(w io.Writer) {
	fmt.Fprint(w, `
Usage: registry-updater <command> [flags]

Commands:
  publish   Store a policy snapshot file in the database
  validate  Schema-check and compile policy snapshot files
  help      Show this help message

Examples:
  registry-updater validate -path configs/policies
  registry-updater publish -path configs/policies/au-2026-01-01.yaml

Use 'registry-updater <command> -h' for more information about a command.
`)
}
