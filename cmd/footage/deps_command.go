package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"footage/internal/deps"
	"footage/internal/preflight"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Check the external metadata tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.loadConfig()
			if err != nil {
				return err
			}
			statuses := preflight.CheckSystemDeps(cfg)
			missing := deps.MissingRequired(statuses)

			if ctx.JSONMode() {
				if err := writeJSON(cmd, map[string]any{"dependencies": statuses, "missing": missing}); err != nil {
					return err
				}
			} else {
				rows := make([][]string, 0, len(statuses))
				for _, status := range statuses {
					state := "ok"
					switch {
					case !status.Available && status.Optional:
						state = "missing (optional)"
					case !status.Available:
						state = "MISSING"
					}
					detail := status.Version
					if detail == "" {
						detail = status.Detail
					}
					rows = append(rows, []string{status.Name, status.Command, state, detail})
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable(
					[]string{"Tool", "Command", "State", "Version"},
					rows,
					nil,
					nil,
				))
			}
			if len(missing) > 0 {
				return fmt.Errorf("required tools missing: %s", strings.Join(missing, ", "))
			}
			return nil
		},
	}
}
