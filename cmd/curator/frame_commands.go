package main

import (
	"fmt"
	"image"
	"io"

	"github.com/spf13/cobra"

	"curator/internal/fileutil"
	"curator/internal/frames"
	"curator/internal/logging"
	"curator/internal/preview"
)

func newFrameCommand(ctx *commandContext) *cobra.Command {
	var (
		index    int
		output   string
		scale    int
		controls controlFlags
	)

	cmd := &cobra.Command{
		Use:   "frame <capture.avi>...",
		Short: "Export one cropped frame as PNG or BMP",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			result, _, closeAll, err := ctx.parseCaptures(cmd.Context(), args)
			defer closeAll()
			if err != nil {
				return err
			}
			target := output
			if target == "" {
				target = fmt.Sprintf("frame-%06d.png", index)
			}
			format, err := frames.FormatForPath(target)
			if err != nil {
				return err
			}

			c := controls.resolve(cmd, cfg).Clamp(result.Geometry, result.Table.Len())
			accessor := frames.NewAccessor(ctx.loggerValue())
			frame, err := accessor.GetFrame(cmd.Context(), result.Table, index)
			if err != nil {
				return err
			}
			img, err := frames.RenderCrop(frame, c.CropSize, c.CenterX, c.CenterY)
			if err != nil {
				return err
			}
			if err := fileutil.WriteFileAtomic(target, 0o644, func(w io.Writer) error {
				return frames.Encode(w, img, format, scale)
			}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote frame %d (%dx%d crop at %d,%d) to %s\n", index, c.CropSize, c.CropSize, c.CenterX, c.CenterY, target)
			return nil
		},
	}
	cmd.Flags().IntVarP(&index, "index", "i", 0, "Frame index across all parts")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output image path (.png or .bmp)")
	cmd.Flags().IntVar(&scale, "scale", 1, "Integer upscale factor")
	controls.registerCrop(cmd)
	return cmd
}

func newAnimateCommand(ctx *commandContext) *cobra.Command {
	var (
		start    int
		end      int
		step     int
		output   string
		scale    int
		controls controlFlags
	)

	cmd := &cobra.Command{
		Use:   "animate <capture.avi>...",
		Short: "Export a frame range as an animated GIF",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			result, _, closeAll, err := ctx.parseCaptures(cmd.Context(), args)
			defer closeAll()
			if err != nil {
				return err
			}

			c := controls.resolve(cmd, cfg)
			if cmd.Flags().Changed("start") {
				c.HighlightStart = start
			}
			if cmd.Flags().Changed("end") {
				c.HighlightEnd = end
			}
			c = c.Clamp(result.Geometry, result.Table.Len())
			if c.HighlightEnd < c.HighlightStart {
				return fmt.Errorf("animation range %d..%d is empty", c.HighlightStart, c.HighlightEnd)
			}
			if !cmd.Flags().Changed("step") {
				step = cfg.Preview.AnimationStep
			}
			if step < 1 {
				return fmt.Errorf("step must be at least 1, got %d", step)
			}

			accessor := frames.NewAccessor(ctx.loggerValue())
			var images []*image.RGBA
			for i := c.HighlightStart; i <= c.HighlightEnd; i += step {
				frame, err := accessor.GetFrame(cmd.Context(), result.Table, i)
				if err != nil {
					return err
				}
				img, err := frames.RenderCrop(frame, c.CropSize, c.CenterX, c.CenterY)
				if err != nil {
					return err
				}
				images = append(images, img)
			}

			target := output
			if target == "" {
				target = fmt.Sprintf("highlight-%06d-%06d.gif", c.HighlightStart, c.HighlightEnd)
			}
			if err := fileutil.WriteFileAtomic(target, 0o644, func(w io.Writer) error {
				return frames.EncodeGIF(w, images, preview.TickInterval(step), scale)
			}); err != nil {
				return err
			}
			ctx.loggerValue().Info("animation exported",
				logging.String("path", target),
				logging.Int("frames", len(images)),
				logging.Int("step", step),
			)
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d frames (%d..%d, step %d) to %s\n", len(images), c.HighlightStart, c.HighlightEnd, step, target)
			return nil
		},
	}
	cmd.Flags().IntVar(&start, "start", 0, "First frame (defaults to the configured highlight start)")
	cmd.Flags().IntVar(&end, "end", 0, "Last frame (defaults to the configured highlight end)")
	cmd.Flags().IntVar(&step, "step", preview.DefaultStep, "Frames advanced per animation tick")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output GIF path")
	cmd.Flags().IntVar(&scale, "scale", 1, "Integer upscale factor")
	controls.registerCrop(cmd)
	return cmd
}
