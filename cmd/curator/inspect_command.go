package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"curator/internal/avi"
)

type inspectPart struct {
	Name         string `json:"name"`
	IndexedCount int    `json:"indexed_frames"`
	FirstFrame   int    `json:"first_frame"`
	TotalFrames  uint32 `json:"declared_frames"`
}

type inspectOutput struct {
	Width       uint32        `json:"width"`
	Height      uint32        `json:"height"`
	FrameRate   float64       `json:"frame_rate"`
	TotalFrames uint32        `json:"declared_frames"`
	Frames      int           `json:"frames"`
	FrameBytes  int           `json:"frame_bytes"`
	Parts       []inspectPart `json:"parts"`
	Warnings    []string      `json:"warnings"`
}

func newInspectOutput(result *avi.Result) inspectOutput {
	out := inspectOutput{
		Width:       result.Geometry.Width,
		Height:      result.Geometry.Height,
		FrameRate:   result.Geometry.FrameRate,
		TotalFrames: result.Geometry.TotalFrames,
		Frames:      result.Table.Len(),
		FrameBytes:  result.Geometry.FrameBytes(),
		Parts:       make([]inspectPart, 0, len(result.Parts)),
		Warnings:    append([]string{}, result.Warnings...),
	}
	for _, part := range result.Parts {
		out.Parts = append(out.Parts, inspectPart{
			Name:         part.Name,
			IndexedCount: part.IndexedCount,
			FirstFrame:   part.FirstFrame,
			TotalFrames:  part.Geometry.TotalFrames,
		})
	}
	return out
}

func newInspectCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "inspect <capture.avi>...",
		Short: "Validate captures and summarize their frame index",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, _, closeAll, err := ctx.parseCaptures(cmd.Context(), args)
			defer closeAll()
			if err != nil {
				return err
			}
			summary := newInspectOutput(result)
			if jsonOutput {
				return writeJSON(cmd, summary)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Geometry:    %dx%d, 24-bit\n", summary.Width, summary.Height)
			fmt.Fprintf(out, "Frame rate:  %.3f fps\n", summary.FrameRate)
			fmt.Fprintf(out, "Frames:      %s indexed (%s declared)\n", formatCount(int64(summary.Frames)), formatCount(int64(summary.TotalFrames)))
			if summary.FrameRate > 0 {
				fmt.Fprintf(out, "Duration:    %.1fs\n", float64(summary.Frames)/summary.FrameRate)
			}
			rows := make([][]string, 0, len(summary.Parts))
			for i, part := range summary.Parts {
				rows = append(rows, []string{
					strconv.Itoa(i),
					part.Name,
					formatCount(int64(part.IndexedCount)),
					formatCount(int64(part.TotalFrames)),
					strconv.Itoa(part.FirstFrame),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Part", "File", "Indexed", "Declared", "First Frame"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignRight},
			))
			colorize := shouldColorize(out)
			for _, warning := range summary.Warnings {
				line := "warning: " + warning
				if colorize {
					line = ansiYellow + line + ansiReset
				}
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON output")
	return cmd
}
