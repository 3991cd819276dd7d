package cli

import (
	"encoding/json"
	"fmt"

	"peptrack_reminders/internal/app"
	"peptrack_reminders/internal/domain/schedule"

	"github.com/spf13/cobra"
)

func newScheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Manage dose schedules",
	}
	cmd.AddCommand(newScheduleAddCmd())
	cmd.AddCommand(newScheduleListCmd())
	cmd.AddCommand(newScheduleRemoveCmd())
	cmd.AddCommand(newScheduleToggleCmd("enable", "Enable a dose schedule", true))
	cmd.AddCommand(newScheduleToggleCmd("disable", "Pause a dose schedule", false))
	return cmd
}

func newScheduleAddCmd() *cobra.Command {
	var (
		in         app.NewSchedule
		days       string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a dose schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			parsed, err := schedule.ParseDays(days)
			if err != nil {
				return err
			}
			in.DaysOfWeek = parsed

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			backend, closeBackend, err := openBackend(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeBackend()

			created, err := backend.AddSchedule(cmd.Context(), in)
			if err != nil {
				return fmt.Errorf("add schedule: %w", err)
			}
			if jsonOutput {
				return writeJSON(cmd, created)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added schedule %s\n", created.ID)
			fmt.Fprint(cmd.OutOrStdout(), renderSchedules([]*schedule.DoseSchedule{created}))
			return nil
		},
	}

	cmd.Flags().StringVar(&in.ProtocolID, "protocol-id", "", "Protocol id (required)")
	cmd.Flags().StringVar(&in.ProtocolName, "protocol", "", "Protocol name")
	cmd.Flags().StringVar(&in.PeptideName, "peptide", "", "Peptide name")
	cmd.Flags().Float64Var(&in.AmountMg, "amount", 0, "Dose amount in mg")
	cmd.Flags().StringVar(&in.Site, "site", "", "Injection site")
	cmd.Flags().StringVar(&in.TimeOfDay, "time", "", "Time of day, HH:MM (required)")
	cmd.Flags().StringVar(&days, "days", "daily", "Days: daily, weekdays, weekends or a list like mon,wed,fri / 1,3,5")
	cmd.Flags().StringVar(&in.Notes, "notes", "", "Free-form notes")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	_ = cmd.MarkFlagRequired("protocol-id")
	_ = cmd.MarkFlagRequired("time")
	return cmd
}

func newScheduleListCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List dose schedules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			backend, closeBackend, err := openBackend(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeBackend()

			list, err := backend.ListSchedules(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput {
				if list == nil {
					list = []*schedule.DoseSchedule{}
				}
				return writeJSON(cmd, list)
			}
			fmt.Fprint(cmd.OutOrStdout(), renderSchedules(list))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newScheduleRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a dose schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			backend, closeBackend, err := openBackend(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeBackend()

			if err := backend.RemoveSchedule(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("remove schedule: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed schedule %s\n", args[0])
			return nil
		},
	}
}

func newScheduleToggleCmd(use, short string, enabled bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			backend, closeBackend, err := openBackend(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeBackend()

			updated, err := backend.SetEnabled(cmd.Context(), args[0], enabled)
			if err != nil {
				return fmt.Errorf("%s schedule: %w", use, err)
			}
			fmt.Fprint(cmd.OutOrStdout(), renderSchedules([]*schedule.DoseSchedule{updated}))
			return nil
		},
	}
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
