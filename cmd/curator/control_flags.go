package main

import (
	"github.com/spf13/cobra"

	"curator/internal/config"
	"curator/internal/preview"
)

// controlFlags overrides the configured preview controls for one command.
type controlFlags struct {
	cropSize       int
	centerX        int
	centerY        int
	thumbnail      int
	highlightStart int
	highlightEnd   int
}

func (f *controlFlags) registerCrop(cmd *cobra.Command) {
	defaults := config.Default().Preview
	cmd.Flags().IntVar(&f.cropSize, "crop-size", defaults.CropSize, "Crop window edge in pixels")
	cmd.Flags().IntVar(&f.centerX, "center-x", defaults.CenterX, "Crop centre column")
	cmd.Flags().IntVar(&f.centerY, "center-y", defaults.CenterY, "Crop centre row, counted from the top")
}

func (f *controlFlags) registerFrames(cmd *cobra.Command) {
	defaults := config.Default().Preview
	cmd.Flags().IntVar(&f.thumbnail, "thumbnail", defaults.ThumbnailFrame, "Thumbnail frame index")
	cmd.Flags().IntVar(&f.highlightStart, "highlight-start", defaults.HighlightStart, "First frame of the highlight range")
	cmd.Flags().IntVar(&f.highlightEnd, "highlight-end", defaults.HighlightEnd, "Last frame of the highlight range")
}

// resolve starts from the configured controls and applies explicitly set flags.
func (f *controlFlags) resolve(cmd *cobra.Command, cfg *config.Config) preview.Controls {
	return f.apply(cmd, preview.ControlsFromConfig(cfg.Preview))
}

// apply overrides c with the flags the user set explicitly.
func (f *controlFlags) apply(cmd *cobra.Command, c preview.Controls) preview.Controls {
	flags := cmd.Flags()
	for name, dst := range map[string]struct {
		target *int
		value  int
	}{
		"crop-size":       {&c.CropSize, f.cropSize},
		"center-x":        {&c.CenterX, f.centerX},
		"center-y":        {&c.CenterY, f.centerY},
		"thumbnail":       {&c.Thumbnail, f.thumbnail},
		"highlight-start": {&c.HighlightStart, f.highlightStart},
		"highlight-end":   {&c.HighlightEnd, f.highlightEnd},
	} {
		if flags.Lookup(name) != nil && flags.Changed(name) {
			*dst.target = dst.value
		}
	}
	return c
}
