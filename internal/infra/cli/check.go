package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"peptrack_reminders/internal/infra/scheduler"

	"github.com/spf13/cobra"
)

// checkResult is the JSON form of a cycle report.
type checkResult struct {
	Enabled     bool      `json:"enabled"`
	CheckedAt   time.Time `json:"checked_at"`
	Fetched     int       `json:"fetched"`
	Dispatched  int       `json:"dispatched"`
	Suppressed  int       `json:"suppressed"`
	Undelivered int       `json:"undelivered"`
	Error       string    `json:"error,omitempty"`
}

func newCheckCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run a single reminder check and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			backend, closeBackend, err := openBackend(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeBackend()

			native, _, closeNative := nativeChannel(cfg)
			defer closeNative()

			sched := newScheduler(cfg, backend, native, cmd.OutOrStdout())
			sched.Start(ctx)
			status := sched.Status()
			sched.Stop()

			res := toCheckResult(status)
			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderCheckResult(res))
			if res.Error != "" {
				return fmt.Errorf("check failed: %s", res.Error)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func toCheckResult(st scheduler.Status) checkResult {
	res := checkResult{Enabled: st.Enabled}
	if !st.Enabled {
		return res
	}
	r := st.LastCycle
	res.CheckedAt = st.LastCheckTime
	res.Fetched = r.Fetched
	res.Dispatched = r.Dispatched
	res.Suppressed = r.Suppressed
	res.Undelivered = r.Undelivered
	if r.Err != nil {
		res.Error = r.Err.Error()
	}
	return res
}
