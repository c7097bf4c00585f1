// cmd/tools/assess/commands.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"migration-assessment/internal/assessment/audit"
	"migration-assessment/internal/assessment/pipeline"
	"migration-assessment/internal/assessment/risk"
	"migration-assessment/internal/common/logger"
	"migration-assessment/internal/models"
	"migration-assessment/internal/policy"
	"migration-assessment/internal/store"
	runassessment "migration-assessment/internal/workers/assessment/run-assessment"
	"migration-assessment/pkg/registry"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

type runFlags struct {
	profile      string
	snapshot     string
	now          string
	timezone     string
	assessmentID string
	tenantID     string
	logLevel     string
}

type checksumFlags struct {
	profile string
}

type validateFlags struct {
	snapshot string
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "assess",
		Short:         "Run migration eligibility assessments against local files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd(), newChecksumCmd(), newValidateSnapshotCmd())
	return root
}

// =============================================================================
// RUN COMMAND
// =============================================================================

func newRunCmd() *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Assess a profile against a policy snapshot",
		Long: `Assess a profile document against every ruleset in a policy snapshot.
Without --snapshot the builtin snapshot is used.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAssessment(cmd.Context(), cmd.OutOrStdout(), f)
		},
	}
	cmd.Flags().StringVar(&f.profile, "profile", "", "profile document (JSON)")
	cmd.Flags().StringVar(&f.snapshot, "snapshot", "", "policy snapshot file (YAML or JSON)")
	cmd.Flags().StringVar(&f.now, "now", "", "evaluation instant, RFC 3339 (default: current time)")
	cmd.Flags().StringVar(&f.timezone, "timezone", "UTC", "timezone that decides the evaluation calendar day")
	cmd.Flags().StringVar(&f.assessmentID, "assessment-id", "", "assessment id (default: random)")
	cmd.Flags().StringVar(&f.tenantID, "tenant", "", "tenant id (default: the profile's tenant)")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "warn", "log level for stderr")
	_ = cmd.MarkFlagRequired("profile")
	return cmd
}

func runAssessment(ctx context.Context, out io.Writer, f *runFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}

	raw, err := os.ReadFile(f.profile)
	if err != nil {
		return fmt.Errorf("read profile: %w", err)
	}

	snapshot := policy.Builtin()
	if f.snapshot != "" {
		if snapshot, err = registry.LoadSnapshot(f.snapshot); err != nil {
			return err
		}
	}
	provider, err := policy.NewStatic(snapshot)
	if err != nil {
		return err
	}

	loc, err := time.LoadLocation(f.timezone)
	if err != nil {
		return fmt.Errorf("timezone: %w", err)
	}

	assessmentID := f.assessmentID
	if assessmentID == "" {
		assessmentID = uuid.NewString()
	}

	handler := runassessment.NewHandler(
		&runassessment.Config{
			Timeout:           30 * time.Second,
			DefaultSnapshotID: snapshot.ID,
			Location:          loc,
		},
		pipeline.New(provider, risk.New(risk.DefaultPolicy())),
		store.NewAuditMemory(),
		nil, nil,
		logger.NewStructured(f.logLevel, "console"),
	)

	output, err := handler.Execute(ctx, &runassessment.Input{
		AssessmentID: assessmentID,
		TenantID:     f.tenantID,
		EvaluatedAt:  f.now,
		Profile:      raw,
	})
	if err != nil {
		return err
	}
	return writeJSON(out, output)
}

// =============================================================================
// CHECKSUM COMMAND
// =============================================================================

func newChecksumCmd() *cobra.Command {
	f := &checksumFlags{}
	cmd := &cobra.Command{
		Use:   "checksum",
		Short: "Print the audit checksum of a profile document's data section",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(f.profile)
			if err != nil {
				return fmt.Errorf("read profile: %w", err)
			}
			sum, err := audit.ProfileDocumentChecksum(raw)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), sum)
			return err
		},
	}
	cmd.Flags().StringVar(&f.profile, "profile", "", "profile document (JSON)")
	_ = cmd.MarkFlagRequired("profile")
	return cmd
}

// =============================================================================
// VALIDATE-SNAPSHOT COMMAND
// =============================================================================

type snapshotSummary struct {
	ID            string            `json:"id"`
	EffectiveDate string            `json:"effectiveDate"`
	References    int               `json:"references"`
	Rulesets      map[string]string `json:"rulesets"`
}

func newValidateSnapshotCmd() *cobra.Command {
	f := &validateFlags{}
	cmd := &cobra.Command{
		Use:   "validate-snapshot",
		Short: "Schema-check and compile every ruleset in a snapshot file",
		RunE: func(cmd *cobra.Command, args []string) error {
			snapshot, err := registry.LoadSnapshot(f.snapshot)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), summarize(snapshot))
		},
	}
	cmd.Flags().StringVar(&f.snapshot, "snapshot", "", "policy snapshot file (YAML or JSON)")
	_ = cmd.MarkFlagRequired("snapshot")
	return cmd
}

func summarize(snapshot *models.PolicySnapshot) snapshotSummary {
	s := snapshotSummary{
		ID:            snapshot.ID,
		EffectiveDate: snapshot.EffectiveDate.String(),
		References:    len(snapshot.References),
		Rulesets:      make(map[string]string, len(snapshot.Rulesets)),
	}
	for _, rs := range snapshot.Rulesets {
		s.Rulesets[rs.Visa] = rs.Version
	}
	return s
}

func writeJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
