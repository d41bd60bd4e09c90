package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"curator/internal/backend"
	"curator/internal/preview"
	"curator/internal/upload"
)

func newVideoPreviewCommand(ctx *commandContext) *cobra.Command {
	var (
		opts     previewFlags
		cacheDir string
		refresh  bool
	)

	cmd := &cobra.Command{
		Use:   "preview <video id>",
		Short: "Download a submitted video and render its previews",
		Long: "Download every part of a submitted video, then render its previews starting\n" +
			"from the crop and frame values stored on the server. Crop and frame flags\n" +
			"override the stored values.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseVideoID(args[0])
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
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
			video, err := client.GetVideo(cmd.Context(), id)
			if err != nil {
				if backend.IsNotFound(err) {
					return fmt.Errorf("video %d not found", id)
				}
				return err
			}
			if cacheDir == "" {
				cacheDir = cfg.DownloadDir()
			}
			paths, err := upload.DownloadVideo(cmd.Context(), client, id, video.NumParts,
				upload.DownloadOptions{Dir: cacheDir, Refresh: refresh}, ctx.loggerValue())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Downloaded %d parts of video %d to %s\n", len(paths), id, cacheDir)
			return runPreview(cmd, ctx, paths, opts.controls.apply(cmd, storedControls(video.Controls)), &opts)
		},
	}
	opts.register(cmd)
	cmd.Flags().StringVar(&cacheDir, "cache-dir", "", "Where downloaded parts are kept (default <state_dir>/downloads)")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Download parts again even when cached")
	return cmd
}

// storedControls maps the server's preview values onto session controls.
func storedControls(c backend.Controls) preview.Controls {
	return preview.Controls{
		CropSize:       c.CropSize,
		CenterX:        c.CropCenterX,
		CenterY:        c.CropCenterY,
		Thumbnail:      c.ThumbnailT,
		HighlightStart: c.HighlightStartT,
		HighlightEnd:   c.HighlightEndT,
	}
}
