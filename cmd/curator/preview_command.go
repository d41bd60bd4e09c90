package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"curator/internal/frames"
	"curator/internal/preview"
)

// previewFlags are the output options shared by preview and video preview.
type previewFlags struct {
	dir      string
	scale    int
	animate  bool
	duration time.Duration
	keep     bool
	controls controlFlags
}

func (f *previewFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.dir, "dir", "d", "preview", "Output directory")
	cmd.Flags().IntVar(&f.scale, "scale", 2, "Integer upscale factor")
	cmd.Flags().BoolVar(&f.animate, "animate", false, "Cycle the thumbnail through the highlight range")
	cmd.Flags().DurationVar(&f.duration, "duration", 3*time.Second, "How long to animate")
	cmd.Flags().BoolVar(&f.keep, "keep-frames", false, "Keep every animated thumbnail frame as a numbered PNG")
	f.controls.registerCrop(cmd)
	f.controls.registerFrames(cmd)
}

func newPreviewCommand(ctx *commandContext) *cobra.Command {
	var opts previewFlags

	cmd := &cobra.Command{
		Use:   "preview <capture.avi>...",
		Short: "Render thumbnail and highlight previews into a directory",
		Long: "Render the thumbnail and both highlight frames as PNG files. With --animate the\n" +
			"thumbnail cycles through the highlight range for --duration before the static\n" +
			"previews are restored.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return runPreview(cmd, ctx, args, opts.controls.resolve(cmd, cfg), &opts)
		},
	}
	opts.register(cmd)
	return cmd
}

// runPreview loads paths into a preview session starting from controls,
// renders the static previews and optionally animates the thumbnail.
func runPreview(cmd *cobra.Command, ctx *commandContext, paths []string, controls preview.Controls, opts *previewFlags) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	parser, err := ctx.newParser()
	if err != nil {
		return err
	}
	sources, closeAll, err := openCaptures(paths)
	defer closeAll()
	if err != nil {
		return err
	}

	logger := ctx.loggerValue()
	renderer := &preview.DirRenderer{Dir: opts.dir, Scale: opts.scale, KeepAnimation: opts.keep}
	session := preview.NewSession(parser, frames.NewAccessor(logger), renderer, controls, logger)
	result, err := session.Load(cmd.Context(), sources)
	if err != nil {
		return err
	}
	c := session.Controls()
	if err := session.Refresh(cmd.Context()); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Loaded %s frames; crop %d at %d,%d\n", formatCount(int64(result.Table.Len())), c.CropSize, c.CenterX, c.CenterY)
	if !opts.animate {
		fmt.Fprintf(out, "Wrote %d previews to %s\n", renderer.Written(), opts.dir)
		return nil
	}

	animator := preview.NewAnimator(session, cfg.Preview.AnimationStep, logger)
	animator.Enable(c.HighlightStart, c.HighlightEnd)
	runCtx, cancel := context.WithTimeout(cmd.Context(), opts.duration)
	err = animator.RunTicker(runCtx)
	cancel()
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if err := animator.Disable(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintf(out, "Animated %d..%d: %d ticks rendered, %d skipped, %d stale reads discarded\n",
		c.HighlightStart, c.HighlightEnd, animator.Rendered(), animator.Skipped(), session.StaleDiscards())
	fmt.Fprintf(out, "Wrote %d previews to %s\n", renderer.Written(), opts.dir)
	return nil
}
