package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"curator/internal/backend"
)

func newTechCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tech",
		Short: "Show and edit technique difficulties and showcase videos",
	}
	cmd.AddCommand(newTechListCommand(ctx))
	cmd.AddCommand(newTechSetCommand(ctx))
	return cmd
}

func newTechListCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List techniques",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.backendClient()
			if err != nil {
				return err
			}
			tech, err := client.ListTech(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, tech)
			}
			rows := make([][]string, 0, len(tech))
			for _, t := range tech {
				rows = append(rows, []string{strconv.Itoa(t.TechID), t.Name, optionalString(t.Difficulty), optionalInt(t.VideoID)})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Tech", "Difficulty", "Video"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight},
			))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON output")
	return cmd
}

func newTechSetCommand(ctx *commandContext) *cobra.Command {
	var (
		techID     int
		difficulty string
		videoID    int
	)

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Set the difficulty and showcase video of one technique",
		RunE: func(cmd *cobra.Command, args []string) error {
			if techID <= 0 {
				return fmt.Errorf("--id is required")
			}
			difficulty = strings.TrimSpace(difficulty)
			if difficulty == "" {
				return fmt.Errorf("--difficulty is required")
			}
			client, err := ctx.backendClient()
			if err != nil {
				return err
			}
			update := backend.TechUpdate{TechID: techID, Difficulty: difficulty}
			if videoID > 0 {
				update.VideoID = backend.IntPtr(videoID)
			}
			if err := client.UpdateTech(cmd.Context(), []backend.TechUpdate{update}); err != nil {
				if backend.IsUnauthorized(err) {
					return fmt.Errorf("updating tech requires an editor account: %w", err)
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated tech %d\n", techID)
			return nil
		},
	}
	cmd.Flags().IntVar(&techID, "id", 0, "Tech id")
	cmd.Flags().StringVar(&difficulty, "difficulty", "", "Difficulty name")
	cmd.Flags().IntVar(&videoID, "video", 0, "Showcase video id (0 clears it)")
	return cmd
}
