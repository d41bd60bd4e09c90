package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"curator/internal/backend"
)

func newVideoCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "video",
		Short: "Inspect and manage submitted videos",
	}
	cmd.AddCommand(newVideoListCommand(ctx))
	cmd.AddCommand(newVideoGetCommand(ctx))
	cmd.AddCommand(newVideoEditCommand(ctx))
	cmd.AddCommand(newVideoDeleteCommand(ctx))
	cmd.AddCommand(newVideoPreviewCommand(ctx))
	return cmd
}

func parseVideoID(arg string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid video id %q", arg)
	}
	return id, nil
}

func newVideoListCommand(ctx *commandContext) *cobra.Command {
	var (
		req        backend.ListVideosRequest
		statuses   []string
		sortBy     string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List submitted videos",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, value := range statuses {
				status, ok := backend.ParseVideoStatus(value)
				if !ok {
					return fmt.Errorf("unknown video status %q", value)
				}
				req.Statuses = append(req.Statuses, status)
			}
			switch strings.ToLower(strings.TrimSpace(sortBy)) {
			case "", "submitted":
				req.SortBy = backend.SortSubmitted
			case "updated":
				req.SortBy = backend.SortUpdated
			default:
				return fmt.Errorf("invalid --sort %q (want submitted or updated)", sortBy)
			}

			client, err := ctx.backendClient()
			if err != nil {
				return err
			}
			videos, err := client.ListVideos(cmd.Context(), req)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, videos)
			}
			out := cmd.OutOrStdout()
			if len(videos) == 0 {
				fmt.Fprintln(out, "No videos")
				return nil
			}
			colorize := shouldColorize(out)
			rows := make([][]string, 0, len(videos))
			for _, v := range videos {
				rows = append(rows, []string{
					strconv.Itoa(v.ID),
					statusLabel(string(v.Status), colorize),
					optionalString(v.RoomName),
					optionalString(v.FromNodeName) + " -> " + optionalString(v.ToNodeName),
					optionalString(v.StratName),
					formatUnix(v.SubmittedTS),
					formatUnix(v.UpdatedTS),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Status", "Room", "Nodes", "Strat", "Submitted", "Updated"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}
	flags := cmd.Flags()
	flags.IntVar(&req.RoomID, "room", 0, "Filter by room id")
	flags.IntVar(&req.FromNodeID, "from-node", 0, "Filter by entry node id")
	flags.IntVar(&req.ToNodeID, "to-node", 0, "Filter by exit node id")
	flags.IntVar(&req.StratID, "strat", 0, "Filter by strat id")
	flags.IntVar(&req.UserID, "user", 0, "Filter by submitting user id")
	flags.IntVar(&req.VideoID, "id", 0, "Filter by video id")
	flags.StringSliceVar(&statuses, "status", nil, "Filter by status (pending, incomplete, complete, approved, disabled)")
	flags.StringVar(&sortBy, "sort", "submitted", "Sort order: submitted or updated")
	flags.IntVar(&req.Limit, "limit", 50, "Maximum rows")
	flags.IntVar(&req.Offset, "offset", 0, "Rows to skip")
	flags.BoolVar(&jsonOutput, "json", false, "Emit JSON output")
	return cmd
}

func newVideoGetCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "get <video id>",
		Short: "Show the metadata of one video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseVideoID(args[0])
			if err != nil {
				return err
			}
			client, err := ctx.backendClient()
			if err != nil {
				return err
			}
			video, err := client.GetVideo(cmd.Context(), id)
			if err != nil {
				if backend.IsNotFound(err) {
					return fmt.Errorf("video %d not found", id)
				}
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, video)
			}
			out := cmd.OutOrStdout()
			rows := [][]string{
				{"Status", statusLabel(string(video.Status), shouldColorize(out))},
				{"Parts", strconv.Itoa(video.NumParts)},
				{"Room", optionalInt(video.RoomID)},
				{"From node", optionalInt(video.FromNodeID)},
				{"To node", optionalInt(video.ToNodeID)},
				{"Strat", optionalInt(video.StratID)},
				{"Crop", fmt.Sprintf("%d at (%d, %d)", video.CropSize, video.CropCenterX, video.CropCenterY)},
				{"Thumbnail", strconv.Itoa(video.ThumbnailT)},
				{"Highlight", fmt.Sprintf("%d-%d", video.HighlightStartT, video.HighlightEndT)},
				{"Permanent", yesNo(video.Permanent)},
				{"Note", video.Note},
			}
			fmt.Fprintf(out, "Video %d\n", id)
			fmt.Fprintln(out, renderTable([]string{"Field", "Value"}, rows, []columnAlignment{alignLeft, alignLeft}))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON output")
	return cmd
}

func newVideoEditCommand(ctx *commandContext) *cobra.Command {
	var (
		placement placementFlags
		note      string
		devNote   string
		status    string
		priority  int
		crop      [3]int
		frames    [3]int
	)

	cmd := &cobra.Command{
		Use:   "edit <video id>",
		Short: "Change the metadata of a submitted video",
		Long: `Edit fetches the current metadata, applies the flags that were given and
sends the result back. Changing any crop or frame value asks the server to
regenerate previews.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseVideoID(args[0])
			if err != nil {
				return err
			}
			client, err := ctx.backendClient()
			if err != nil {
				return err
			}
			if !client.HasCredentials() {
				return backend.ErrNoCredentials
			}
			current, err := client.GetVideo(cmd.Context(), id)
			if err != nil {
				return err
			}

			req := backend.EditRequest{
				VideoID:   id,
				Placement: current.Placement,
				Note:      current.Note,
				DevNote:   devNote,
				Controls:  current.Controls,
				Status:    current.Status,
			}
			flags := cmd.Flags()
			overrides := map[string]**int{
				"room":      &req.RoomID,
				"from-node": &req.FromNodeID,
				"to-node":   &req.ToNodeID,
				"strat":     &req.StratID,
			}
			wanted := placement.placement()
			values := map[string]*int{
				"room":      wanted.RoomID,
				"from-node": wanted.FromNodeID,
				"to-node":   wanted.ToNodeID,
				"strat":     wanted.StratID,
			}
			for name, dst := range overrides {
				if flags.Changed(name) {
					*dst = values[name]
				}
			}
			if flags.Changed("note") {
				req.Note = note
			}
			if flags.Changed("status") {
				parsed, ok := backend.ParseVideoStatus(status)
				if !ok {
					return fmt.Errorf("unknown video status %q", status)
				}
				req.Status = parsed
			}
			if flags.Changed("priority") {
				req.Priority = &priority
			}
			controls := []struct {
				name   string
				target *int
				value  int
			}{
				{"crop-size", &req.CropSize, crop[0]},
				{"center-x", &req.CropCenterX, crop[1]},
				{"center-y", &req.CropCenterY, crop[2]},
				{"thumbnail", &req.ThumbnailT, frames[0]},
				{"highlight-start", &req.HighlightStartT, frames[1]},
				{"highlight-end", &req.HighlightEndT, frames[2]},
			}
			for _, c := range controls {
				if flags.Changed(c.name) && *c.target != c.value {
					*c.target = c.value
					req.ControlsUpdated = true
				}
			}
			if req.HighlightStartT > req.HighlightEndT {
				return errors.New("highlight start must not be after highlight end")
			}

			if err := client.EditVideo(cmd.Context(), req); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated video %d\n", id)
			return nil
		},
	}
	placement.register(cmd)
	flags := cmd.Flags()
	flags.StringVar(&note, "note", "", "Public note")
	flags.StringVar(&devNote, "dev-note", "", "Note for editors")
	flags.StringVar(&status, "status", "", "Review status (pending, incomplete, complete, approved, disabled)")
	flags.IntVar(&priority, "priority", 0, "Listing priority")
	flags.IntVar(&crop[0], "crop-size", 0, "Crop window edge in pixels")
	flags.IntVar(&crop[1], "center-x", 0, "Crop centre column")
	flags.IntVar(&crop[2], "center-y", 0, "Crop centre row")
	flags.IntVar(&frames[0], "thumbnail", 0, "Thumbnail frame index")
	flags.IntVar(&frames[1], "highlight-start", 0, "First highlight frame")
	flags.IntVar(&frames[2], "highlight-end", 0, "Last highlight frame")
	return cmd
}

func newVideoDeleteCommand(ctx *commandContext) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <video id>",
		Short: "Delete a submitted video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseVideoID(args[0])
			if err != nil {
				return err
			}
			if !yes {
				return fmt.Errorf("refusing to delete video %d without --yes", id)
			}
			client, err := ctx.backendClient()
			if err != nil {
				return err
			}
			if err := client.DeleteVideo(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted video %d\n", id)
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm deletion")
	return cmd
}
