package preview_test

import (
	"context"
	"testing"
	"time"

	"curator/internal/avi"
	"curator/internal/preview"
)

func TestTickInterval(t *testing.T) {
	if got := preview.TickInterval(3); got != 50*time.Millisecond {
		t.Fatalf("unexpected interval: got %v want 50ms", got)
	}
	if got := preview.TickInterval(0); got != time.Second/60 {
		t.Fatalf("unexpected interval for zero step: %v", got)
	}
}

func loadedSession(t *testing.T, renderer preview.Renderer, frameCount int) *preview.Session {
	t.Helper()
	defaults := preview.Controls{CropSize: 32, CenterX: 64, CenterY: 64, Thumbnail: 0, HighlightStart: 0, HighlightEnd: 1}
	session := newSession(t, renderer, defaults)
	if _, err := session.Load(context.Background(), []avi.Source{fixtureSource("a.avi", frameCount, 0)}); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	return session
}

func TestAnimatorCursorWraps(t *testing.T) {
	renderer := &recordingRenderer{}
	session := loadedSession(t, renderer, 20)
	animator := preview.NewAnimator(session, 3, nil)

	if err := animator.Tick(context.Background()); err != nil {
		t.Fatalf("Tick while disabled returned error: %v", err)
	}
	if len(renderer.snapshot()) != 0 {
		t.Fatal("disabled animator must not render")
	}

	animator.Enable(4, 12)
	for i := 0; i < 7; i++ {
		if err := animator.Tick(context.Background()); err != nil {
			t.Fatalf("Tick returned error: %v", err)
		}
	}
	var got []int
	for _, call := range renderer.snapshot() {
		if call.region != preview.RegionThumbnail {
			t.Fatalf("animation should paint the thumbnail, got %s", call.region)
		}
		got = append(got, call.frame)
	}
	want := []int{4, 7, 10, 4, 7, 10, 4}
	if len(got) != len(want) {
		t.Fatalf("unexpected frames: got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected frames: got %v want %v", got, want)
		}
	}
}

func TestAnimatorResetsWhenRangeMoves(t *testing.T) {
	session := loadedSession(t, &recordingRenderer{}, 40)
	animator := preview.NewAnimator(session, 3, nil)
	animator.Enable(0, 30)
	for i := 0; i < 4; i++ {
		_ = animator.Tick(context.Background())
	}
	if animator.Cursor() != 12 {
		t.Fatalf("unexpected cursor: %d", animator.Cursor())
	}
	animator.Enable(20, 30)
	_ = animator.Tick(context.Background())
	if animator.Cursor() != 23 {
		t.Fatalf("cursor below start should restart at start: got %d", animator.Cursor())
	}
}

func TestAnimatorSkipsTicksWhileReadInFlight(t *testing.T) {
	renderer := &recordingRenderer{block: make(chan struct{})}
	session := loadedSession(t, renderer, 20)
	animator := preview.NewAnimator(session, 3, nil)
	animator.Enable(0, 18)

	ticks := make(chan time.Time)
	done := make(chan error, 1)
	go func() {
		done <- animator.Run(context.Background(), ticks)
	}()

	ticks <- time.Now() // starts the first read, which blocks in Render
	ticks <- time.Now() // skipped
	ticks <- time.Now() // skipped
	close(renderer.block)
	close(ticks)

	if err := <-done; err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if animator.Skipped() != 2 {
		t.Fatalf("unexpected skipped ticks: got %d want 2", animator.Skipped())
	}
	if animator.Rendered() != 1 {
		t.Fatalf("unexpected rendered ticks: got %d want 1", animator.Rendered())
	}
	calls := renderer.snapshot()
	if len(calls) != 1 || calls[0].frame != 0 {
		t.Fatalf("unexpected renders: %+v", calls)
	}
}

func TestAnimatorRunStopsOnCancel(t *testing.T) {
	session := loadedSession(t, &recordingRenderer{}, 10)
	animator := preview.NewAnimator(session, 3, nil)
	animator.Enable(0, 9)

	ctx, cancel := context.WithCancel(context.Background())
	ticks := make(chan time.Time)
	done := make(chan error, 1)
	go func() {
		done <- animator.Run(ctx, ticks)
	}()
	ticks <- time.Now()
	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestAnimatorDisableRepaintsThumbnail(t *testing.T) {
	renderer := &recordingRenderer{}
	session := loadedSession(t, renderer, 10)
	session.SetControls(preview.Controls{CropSize: 32, CenterX: 64, CenterY: 64, Thumbnail: 5, HighlightStart: 2, HighlightEnd: 8})
	animator := preview.NewAnimator(session, 3, nil)

	animator.Enable(2, 8)
	if err := session.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh returned error: %v", err)
	}
	for _, call := range renderer.snapshot() {
		if call.region == preview.RegionThumbnail {
			t.Fatal("refresh must leave the thumbnail to the animation")
		}
	}

	if err := animator.Disable(context.Background()); err != nil {
		t.Fatalf("Disable returned error: %v", err)
	}
	if animator.Enabled() {
		t.Fatal("animator should be disabled")
	}
	var thumbnail []int
	for _, call := range renderer.snapshot() {
		if call.region == preview.RegionThumbnail {
			thumbnail = append(thumbnail, call.frame)
		}
	}
	if len(thumbnail) != 1 || thumbnail[0] != 5 {
		t.Fatalf("Disable should repaint the static thumbnail once, got %v", thumbnail)
	}
}

func TestAnimatorDisableDropsInFlightFrame(t *testing.T) {
	renderer := &recordingRenderer{}
	defaults := preview.Controls{CropSize: 32, CenterX: 64, CenterY: 64, Thumbnail: 5, HighlightStart: 2, HighlightEnd: 8}
	session := newSession(t, renderer, defaults)
	gated := newGatedSource(fixtureSource("a.avi", 10, 0))
	if _, err := session.Load(context.Background(), []avi.Source{gated}); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	animator := preview.NewAnimator(session, 3, nil)
	animator.Enable(2, 8)
	gated.arm()

	ticks := make(chan time.Time)
	done := make(chan error, 1)
	go func() {
		done <- animator.Run(context.Background(), ticks)
	}()
	ticks <- time.Now()
	select {
	case <-gated.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the animation read")
	}

	gated.disarm()
	if err := animator.Disable(context.Background()); err != nil {
		t.Fatalf("Disable returned error: %v", err)
	}
	close(gated.gate)
	close(ticks)
	if err := <-done; err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	var thumbnail []int
	for _, call := range renderer.snapshot() {
		if call.region == preview.RegionThumbnail {
			thumbnail = append(thumbnail, call.frame)
		}
	}
	if len(thumbnail) != 1 || thumbnail[0] != 5 {
		t.Fatalf("thumbnail after Disable should show static frame 5 only, got %v", thumbnail)
	}
}
