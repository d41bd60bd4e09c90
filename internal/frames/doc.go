// Package frames reads single raw frames from a parsed capture and turns them
// into display-ready crops.
//
// Capture frames are stored bottom-up with three bytes per pixel. GetFrame
// fetches exactly one frame with a single range read; RenderCrop flips the
// requested window upright and reorders the channels into RGBA. Export helpers
// write crops as PNG, BMP or an animated GIF.
package frames
