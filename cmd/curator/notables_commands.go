package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"curator/internal/backend"
)

func newNotablesCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notables",
		Short: "Show and edit notable strat difficulties and showcase videos",
	}
	cmd.AddCommand(newNotablesListCommand(ctx))
	cmd.AddCommand(newNotablesSetCommand(ctx))
	cmd.AddCommand(newNotablesAutofillCommand(ctx))
	return cmd
}

func newNotablesListCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List notable strats",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.backendClient()
			if err != nil {
				return err
			}
			notables, err := client.ListNotables(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, notables)
			}
			rows := make([][]string, 0, len(notables))
			for _, n := range notables {
				rows = append(rows, []string{
					strconv.Itoa(n.RoomID),
					strconv.Itoa(n.NotableID),
					n.RoomName,
					n.Name,
					optionalString(n.Difficulty),
					optionalInt(n.VideoID),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Room", "ID", "Room name", "Notable", "Difficulty", "Video"},
				rows,
				[]columnAlignment{alignRight, alignRight, alignLeft, alignLeft, alignLeft, alignRight},
			))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON output")
	return cmd
}

func newNotablesSetCommand(ctx *commandContext) *cobra.Command {
	var (
		roomID     int
		notableID  int
		difficulty string
		videoID    int
	)

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Set the difficulty and showcase video of one notable strat",
		RunE: func(cmd *cobra.Command, args []string) error {
			if roomID <= 0 || notableID <= 0 {
				return fmt.Errorf("--room and --notable are required")
			}
			difficulty = strings.TrimSpace(difficulty)
			if difficulty == "" {
				return fmt.Errorf("--difficulty is required")
			}
			client, err := ctx.backendClient()
			if err != nil {
				return err
			}
			update := backend.NotableUpdate{RoomID: roomID, NotableID: notableID, Difficulty: difficulty}
			if videoID > 0 {
				update.VideoID = backend.IntPtr(videoID)
			}
			if err := client.UpdateNotables(cmd.Context(), []backend.NotableUpdate{update}); err != nil {
				if backend.IsUnauthorized(err) {
					return fmt.Errorf("updating notables requires an editor account: %w", err)
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated notable %d in room %d\n", notableID, roomID)
			return nil
		},
	}
	cmd.Flags().IntVar(&roomID, "room", 0, "Room id")
	cmd.Flags().IntVar(&notableID, "notable", 0, "Notable id within the room")
	cmd.Flags().StringVar(&difficulty, "difficulty", "", "Difficulty name")
	cmd.Flags().IntVar(&videoID, "video", 0, "Showcase video id (0 clears it)")
	return cmd
}

type notableKey struct{ room, notable int }

func newNotablesAutofillCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "autofill",
		Short: "Assign suggested showcase videos to notables that have none",
		Long: "Ask the server for a showcase video per notable and assign it to every notable\n" +
			"that does not have one yet. Existing assignments and difficulties are kept.",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.backendClient()
			if err != nil {
				return err
			}
			notables, err := client.ListNotables(cmd.Context())
			if err != nil {
				return err
			}
			picks, err := client.AutoPickNotableVideos(cmd.Context())
			if err != nil {
				return err
			}
			byKey := make(map[notableKey]backend.Notable, len(notables))
			for _, n := range notables {
				byKey[notableKey{n.RoomID, n.NotableID}] = n
			}

			var updates []backend.NotableUpdate
			for _, pick := range picks {
				n, ok := byKey[notableKey{pick.RoomID, pick.NotableID}]
				if !ok || n.VideoID != nil || pick.VideoID <= 0 {
					continue
				}
				update := backend.NotableUpdate{
					RoomID:    n.RoomID,
					NotableID: n.NotableID,
					VideoID:   backend.IntPtr(pick.VideoID),
				}
				if n.Difficulty != nil {
					update.Difficulty = *n.Difficulty
				}
				updates = append(updates, update)
			}

			out := cmd.OutOrStdout()
			if dryRun {
				for _, u := range updates {
					fmt.Fprintf(out, "Would assign video %d to notable %d in room %d\n", *u.VideoID, u.NotableID, u.RoomID)
				}
				return nil
			}
			if err := client.UpdateNotables(cmd.Context(), updates); err != nil {
				if backend.IsUnauthorized(err) {
					return fmt.Errorf("updating notables requires an editor account: %w", err)
				}
				return err
			}
			fmt.Fprintf(out, "Assigned %d notable videos\n", len(updates))
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show the assignments without saving them")
	return cmd
}
