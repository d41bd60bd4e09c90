package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"curator/internal/backend"
	"curator/internal/config"
	"curator/internal/journal"
	"curator/internal/logging"
	"curator/internal/notifications"
	"curator/internal/upload"
)

func (c *commandContext) withRunner(fn func(*config.Config, *journal.Store, *upload.Runner) error) error {
	client, err := c.backendClient()
	if err != nil {
		return err
	}
	if !client.HasCredentials() {
		return fmt.Errorf("no credentials configured: set server.username/server.token or %s/%s", config.EnvUsername, config.EnvToken)
	}
	return c.withJournal(func(cfg *config.Config, store *journal.Store) error {
		runner, err := upload.NewRunner(client, store, upload.OptionsFromConfig(cfg), c.loggerValue())
		if err != nil {
			return err
		}
		return fn(cfg, store, runner)
	})
}

func newUploadCommand(ctx *commandContext) *cobra.Command {
	var resumeKey string

	cmd := &cobra.Command{
		Use:   "upload [capture.avi...]",
		Short: "Upload capture parts without submitting metadata",
		RunE: func(cmd *cobra.Command, args []string) error {
			key := strings.TrimSpace(resumeKey)
			if key == "" && len(args) == 0 {
				return fmt.Errorf("give capture files or --resume <upload key>")
			}
			if key == "" {
				// Parse first so malformed captures never reach the server.
				_, _, closeAll, err := ctx.parseCaptures(cmd.Context(), args)
				closeAll()
				if err != nil {
					return err
				}
			}
			return ctx.withRunner(func(_ *config.Config, _ *journal.Store, runner *upload.Runner) error {
				var (
					up  *journal.Upload
					err error
				)
				if key != "" {
					up, err = runner.Resume(cmd.Context(), key)
				} else {
					up, err = runner.Start(cmd.Context(), args)
				}
				if err != nil {
					return ctx.uploadFailed(cmd, up, err)
				}
				ctx.notify(cmd.Context(), func(svc notifications.Service) error {
					return svc.NotifyUploadCompleted(cmd.Context(), up.Key, up.NumParts, up.VideoID)
				})
				fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %d/%d parts as video %d (upload key %s)\n", up.PartsSent, up.NumParts, up.VideoID, up.Key)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&resumeKey, "resume", "", "Continue a previous upload by key")
	return cmd
}

// uploadFailed announces a failed transfer and points at the resume key.
func (c *commandContext) uploadFailed(cmd *cobra.Command, up *journal.Upload, err error) error {
	if up != nil {
		err = fmt.Errorf("upload %s: %w (resume with --resume %s)", up.Key, err, up.Key)
	}
	if errors.Is(err, upload.ErrBusy) {
		return err
	}
	c.notify(cmd.Context(), func(svc notifications.Service) error {
		return svc.NotifyError(cmd.Context(), err, "upload")
	})
	return err
}

type placementFlags struct {
	room     int
	fromNode int
	toNode   int
	strat    int
}

// register adds the placement flags. Negative ids leave a field unset.
func (f *placementFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.room, "room", -1, "Room id")
	cmd.Flags().IntVar(&f.fromNode, "from-node", -1, "Entry node id")
	cmd.Flags().IntVar(&f.toNode, "to-node", -1, "Exit node id")
	cmd.Flags().IntVar(&f.strat, "strat", -1, "Strat id")
}

func (f *placementFlags) placement() backend.Placement {
	return backend.Placement{
		RoomID:     backend.IntPtr(f.room),
		FromNodeID: backend.IntPtr(f.fromNode),
		ToNodeID:   backend.IntPtr(f.toNode),
		StratID:    backend.IntPtr(f.strat),
	}
}

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var (
		controls  controlFlags
		placement placementFlags
		note      string
		devNote   string
		waiver    bool
		resumeKey string
	)

	cmd := &cobra.Command{
		Use:   "submit <capture.avi>...",
		Short: "Upload captures and submit them with crop, timing and strat metadata",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			result, _, closeAll, err := ctx.parseCaptures(cmd.Context(), args)
			closeAll()
			if err != nil {
				return err
			}
			c := controls.resolve(cmd, cfg)
			if err := c.Validate(result.Geometry, result.Table.Len()); err != nil {
				return fmt.Errorf("invalid preview controls: %w", err)
			}
			if !waiver {
				return fmt.Errorf("submission requires --copyright-waiver")
			}
			req := backend.SubmitRequest{
				Placement: placement.placement(),
				Note:      note,
				DevNote:   devNote,
				Controls: backend.Controls{
					CropSize:        c.CropSize,
					CropCenterX:     c.CenterX,
					CropCenterY:     c.CenterY,
					ThumbnailT:      c.Thumbnail,
					HighlightStartT: c.HighlightStart,
					HighlightEndT:   c.HighlightEnd,
				},
				CopyrightWaiver: waiver,
			}

			return ctx.withRunner(func(_ *config.Config, _ *journal.Store, runner *upload.Runner) error {
				key := strings.TrimSpace(resumeKey)
				var up *journal.Upload
				if key != "" {
					up, err = runner.Resume(cmd.Context(), key)
				} else {
					up, err = runner.Start(cmd.Context(), args)
				}
				if err != nil {
					return ctx.uploadFailed(cmd, up, err)
				}
				submitted, err := runner.Submit(cmd.Context(), up.Key, req)
				if err != nil {
					err = fmt.Errorf("submit upload %s: %w", up.Key, err)
					ctx.notify(cmd.Context(), func(svc notifications.Service) error {
						return svc.NotifyError(cmd.Context(), err, "submission")
					})
					return err
				}
				ctx.notify(cmd.Context(), func(svc notifications.Service) error {
					return svc.NotifyVideoSubmitted(cmd.Context(), submitted.VideoID, req.Note)
				})
				ctx.loggerValue().Info("video submitted",
					logging.String(logging.FieldUploadKey, submitted.Key),
					logging.Int64("video_id", submitted.VideoID),
				)
				fmt.Fprintf(cmd.OutOrStdout(), "Submitted video %d (%d parts, upload key %s)\n", submitted.VideoID, submitted.NumParts, submitted.Key)
				return nil
			})
		},
	}
	controls.registerCrop(cmd)
	controls.registerFrames(cmd)
	placement.register(cmd)
	cmd.Flags().StringVar(&note, "note", "", "Public note")
	cmd.Flags().StringVar(&devNote, "dev-note", "", "Note for editors")
	cmd.Flags().BoolVar(&waiver, "copyright-waiver", false, "Confirm the footage may be published")
	cmd.Flags().StringVar(&resumeKey, "resume", "", "Finish a previous upload by key instead of starting a new one")
	return cmd
}

func newUploadsCommand(ctx *commandContext) *cobra.Command {
	var (
		statuses   []string
		limit      int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "uploads",
		Short: "List journaled uploads",
		RunE: func(cmd *cobra.Command, args []string) error {
			filters, err := parseJournalStatuses(statuses)
			if err != nil {
				return err
			}
			return ctx.withJournal(func(_ *config.Config, store *journal.Store) error {
				uploads, err := store.List(cmd.Context(), limit, filters...)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, uploads)
				}
				out := cmd.OutOrStdout()
				if len(uploads) == 0 {
					fmt.Fprintln(out, "No uploads")
					return nil
				}
				colorize := shouldColorize(out)
				rows := make([][]string, 0, len(uploads))
				for _, up := range uploads {
					video := "-"
					if up.VideoID != 0 {
						video = strconv.FormatInt(up.VideoID, 10)
					}
					rows = append(rows, []string{
						up.Key,
						statusLabel(string(up.Status), colorize),
						fmt.Sprintf("%d/%d", up.PartsSent, up.NumParts),
						video,
						formatTime(up.UpdatedAt),
						up.ErrorMessage,
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Key", "Status", "Parts", "Video", "Updated", "Error"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVar(&statuses, "status", nil, "Filter by status (pending, uploading, uploaded, submitted, failed)")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum rows (0 for all)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON output")

	cmd.AddCommand(newUploadsPruneCommand(ctx))
	cmd.AddCommand(newUploadsShowCommand(ctx))
	return cmd
}

func newUploadsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <upload key>",
		Short: "Show the parts of one upload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withJournal(func(_ *config.Config, store *journal.Store) error {
				up, err := store.GetByKey(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				parts, err := store.Parts(cmd.Context(), up.ID)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Upload %s: %s, %d/%d parts, video %d\n", up.Key, statusLabel(string(up.Status), shouldColorize(out)), up.PartsSent, up.NumParts, up.VideoID)
				sent := make(map[int]*journal.Part, len(parts))
				for _, part := range parts {
					sent[part.PartNum] = part
				}
				rows := make([][]string, 0, len(up.Captures))
				for i, capture := range up.Captures {
					row := []string{strconv.Itoa(i), capture, "-", "-", "-", "-"}
					if part, ok := sent[i]; ok {
						row[2] = formatBytes(part.RawBytes)
						row[3] = formatBytes(part.CompressedBytes)
						row[4] = shortHash(part.SHA256)
						row[5] = formatTime(part.SentAt)
					}
					rows = append(rows, row)
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Part", "Capture", "Raw", "Compressed", "SHA256", "Sent"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}
}

func newUploadsPruneCommand(ctx *commandContext) *cobra.Command {
	var includeFailed bool

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove submitted uploads from the journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses := []journal.Status{journal.StatusSubmitted}
			if includeFailed {
				statuses = append(statuses, journal.StatusFailed)
			}
			return ctx.withJournal(func(_ *config.Config, store *journal.Store) error {
				removed, err := store.Remove(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d uploads\n", removed)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&includeFailed, "failed", false, "Also remove failed uploads")
	return cmd
}

func parseJournalStatuses(values []string) ([]journal.Status, error) {
	out := make([]journal.Status, 0, len(values))
	for _, value := range values {
		status, ok := journal.ParseStatus(strings.ToLower(strings.TrimSpace(value)))
		if !ok {
			return nil, fmt.Errorf("unknown upload status %q", value)
		}
		out = append(out, status)
	}
	return out, nil
}

func shortHash(sum string) string {
	if len(sum) > 12 {
		return sum[:12]
	}
	return sum
}
