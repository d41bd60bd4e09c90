package main

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"image/gif"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"curator/internal/config"
	"curator/internal/testsupport"
)

const (
	testUser    = "sam"
	testToken   = "secret"
	testVideoID = 77
)

// fakeBackend records what the CLI sends and answers like the video server.
type fakeBackend struct {
	t *testing.T

	mu        sync.Mutex
	parts     []http.Header
	submitted map[string]any
	edited    map[string]any
	tech      []map[string]any
	notables  []map[string]any
	deleted   []string
	downloads []string
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	user, token, hasAuth := r.BasicAuth()
	authorized := hasAuth && user == testUser && token == testToken
	requireAuth := func() bool {
		if !authorized {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return false
		}
		return true
	}
	decode := func(v any) bool {
		if err := json.NewDecoder(r.Body).Decode(v); err != nil {
			f.t.Errorf("decode %s body: %v", r.URL.Path, err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return false
		}
		return true
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case r.URL.Path == "/sign-in":
		if !requireAuth() {
			return
		}
		_, _ = io.WriteString(w, `{"user_id":7,"permission":"Editor"}`)
	case r.URL.Path == "/upload-video":
		if !requireAuth() {
			return
		}
		_, _ = io.Copy(io.Discard, r.Body)
		f.parts = append(f.parts, r.Header.Clone())
		_, _ = io.WriteString(w, "77")
	case r.URL.Path == "/submit-video":
		if !requireAuth() {
			return
		}
		var body map[string]any
		if decode(&body) {
			f.submitted = body
		}
	case r.URL.Path == "/list-users":
		_, _ = io.WriteString(w, `[{"id":7,"username":"sam"}]`)
	case r.URL.Path == "/get-video":
		_, _ = io.WriteString(w, `{"num_parts":2,"room_id":3,"from_node_id":1,"to_node_id":2,"strat_id":9,"note":"keep me",`+
			`"crop_size":64,"crop_center_x":100,"crop_center_y":90,"thumbnail_t":5,"highlight_start_t":2,"highlight_end_t":9,`+
			`"status":"Pending","permanent":false}`)
	case r.URL.Path == "/edit-video":
		if !requireAuth() {
			return
		}
		var body map[string]any
		if decode(&body) {
			f.edited = body
		}
	case r.URL.Path == "/list-videos":
		_, _ = io.WriteString(w, `[{"id":77,"created_user_id":7,"submitted_ts":1700000000,"updated_user_id":7,"updated_ts":1700000100,`+
			`"room_id":3,"from_node_id":1,"to_node_id":2,"strat_id":9,"note":"","status":"Complete",`+
			`"room_name":"Landing Site","from_node_name":"Left Door","to_node_name":"Ship","strat_name":"Base"}]`)
	case r.URL.Path == "/tech" && r.Method == http.MethodPost:
		if !requireAuth() {
			return
		}
		var body []map[string]any
		if decode(&body) {
			f.tech = body
		}
	case r.URL.Path == "/tech":
		_, _ = io.WriteString(w, `[{"tech_id":4,"name":"canWalljump","difficulty":null,"video_id":null}]`)
	case r.URL.Path == "/download-video":
		if !requireAuth() {
			return
		}
		f.downloads = append(f.downloads, r.URL.Query().Get("part_num"))
		zw := gzip.NewWriter(w)
		_, _ = zw.Write(testsupport.BuildAVI(testsupport.AVIFixture{Frames: 10}))
		_ = zw.Close()
	case r.URL.Path == "/notables" && r.Method == http.MethodPost:
		if !requireAuth() {
			return
		}
		var body []map[string]any
		if decode(&body) {
			f.notables = body
		}
	case r.URL.Path == "/notables":
		_, _ = io.WriteString(w, `[{"room_id":3,"notable_id":1,"room_name":"Landing Site","name":"Gauntlet Skip","difficulty":"Hard","video_id":null},`+
			`{"room_id":3,"notable_id":2,"room_name":"Landing Site","name":"Ceiling Clip","difficulty":null,"video_id":12}]`)
	case r.URL.Path == "/auto-pick-notable-videos":
		_, _ = io.WriteString(w, `[{"room_id":3,"notable_id":1,"video_id":77},{"room_id":3,"notable_id":2,"video_id":78},`+
			`{"room_id":9,"notable_id":1,"video_id":79}]`)
	case r.URL.Path == "/" && r.Method == http.MethodDelete:
		if !requireAuth() {
			return
		}
		f.deleted = append(f.deleted, r.URL.Query().Get("video_id"))
	default:
		http.NotFound(w, r)
	}
}

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
	captureDir string
	backend    *fakeBackend
}

func setupCLITestEnv(t *testing.T, withCredentials bool) *cliTestEnv {
	t.Helper()

	homeDir := filepath.Join(t.TempDir(), "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv(config.EnvUsername, "")
	t.Setenv(config.EnvToken, "")
	t.Setenv(config.EnvServerURL, "")

	backend := &fakeBackend{t: t}
	server := httptest.NewServer(backend)
	t.Cleanup(server.Close)

	username, token := "", ""
	if withCredentials {
		username, token = testUser, testToken
	}
	cfg := testsupport.NewConfig(t, testsupport.WithServer(server.URL, username, token))
	cfg.Upload.Retries = 0

	base := testsupport.BaseDir(cfg)
	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{
		cfg:        cfg,
		configPath: configPath,
		baseDir:    base,
		captureDir: filepath.Join(base, "captures"),
		backend:    backend,
	}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

// enableNotifications points the config at a fake ntfy topic and returns the
// titles it receives.
func (env *cliTestEnv) enableNotifications(t *testing.T) func() []string {
	t.Helper()
	var (
		mu     sync.Mutex
		titles []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		titles = append(titles, r.Header.Get("Title"))
		mu.Unlock()
	}))
	t.Cleanup(srv.Close)
	env.cfg.Notifications.NtfyTopic = srv.URL + "/captures"
	writeTestConfig(t, env.configPath, env.cfg)
	return func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), titles...)
	}
}

func (env *cliTestEnv) capture(t *testing.T, name string, frames int) string {
	t.Helper()
	return testsupport.WriteAVI(t, env.captureDir, name, testsupport.AVIFixture{Frames: frames})
}

func (env *cliTestEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return runCLI(t, args, env.configPath)
}

func runCLI(t *testing.T, args []string, configPath string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q\n%s", needle, haystack)
	}
}

func TestConfigInitShowAndValidate(t *testing.T) {
	env := setupCLITestEnv(t, true)

	target := filepath.Join(t.TempDir(), "curator.toml")
	out, err := runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}
	if _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected config init to refuse overwriting")
	}

	out, err = env.run(t, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "[server]")
	requireContains(t, out, "********")
	if strings.Contains(out, testToken) {
		t.Fatalf("config show leaked the token:\n%s", out)
	}

	out, err = env.run(t, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
}

func TestInspectJSON(t *testing.T) {
	env := setupCLITestEnv(t, false)
	first := env.capture(t, "run-001.avi", 4)
	second := env.capture(t, "run-002.avi", 3)

	// Parts are ordered by name regardless of argument order.
	out, err := env.run(t, "inspect", "--json", second, first)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	var summary inspectOutput
	if err := json.Unmarshal([]byte(out), &summary); err != nil {
		t.Fatalf("decode inspect output: %v\n%s", err, out)
	}
	if summary.Width != 256 || summary.Height != 224 {
		t.Fatalf("unexpected geometry %dx%d", summary.Width, summary.Height)
	}
	if summary.Frames != 7 {
		t.Fatalf("unexpected frame count %d", summary.Frames)
	}
	if len(summary.Parts) != 2 || summary.Parts[0].Name != "run-001.avi" || summary.Parts[1].FirstFrame != 4 {
		t.Fatalf("unexpected parts %+v", summary.Parts)
	}
}

func TestInspectRejectsCompressedCapture(t *testing.T) {
	env := setupCLITestEnv(t, false)
	path := testsupport.WriteAVI(t, env.captureDir, "bad.avi", testsupport.AVIFixture{Frames: 2, Compression: 1})

	if _, err := env.run(t, "inspect", path); err == nil {
		t.Fatal("expected inspect to reject a compressed capture")
	}
}

func TestFrameAndAnimateExports(t *testing.T) {
	env := setupCLITestEnv(t, false)
	capture := env.capture(t, "run.avi", 12)
	outDir := t.TempDir()

	pngPath := filepath.Join(outDir, "frame.png")
	out, err := env.run(t, "frame", "--index", "3", "--crop-size", "64", "-o", pngPath, capture)
	if err != nil {
		t.Fatalf("frame: %v", err)
	}
	requireContains(t, out, "Wrote frame 3")
	f, err := os.Open(pngPath)
	if err != nil {
		t.Fatalf("open png: %v", err)
	}
	img, err := png.Decode(f)
	f.Close()
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 64 || b.Dy() != 64 {
		t.Fatalf("unexpected frame size %v", b)
	}

	if _, err := env.run(t, "frame", "--index", "12", "-o", pngPath, capture); err == nil {
		t.Fatal("expected out of range frame index to fail")
	}

	gifPath := filepath.Join(outDir, "anim.gif")
	out, err = env.run(t, "animate", "--start", "2", "--end", "10", "--step", "4", "--crop-size", "32", "-o", gifPath, capture)
	if err != nil {
		t.Fatalf("animate: %v", err)
	}
	requireContains(t, out, "Wrote 3 frames")
	f, err = os.Open(gifPath)
	if err != nil {
		t.Fatalf("open gif: %v", err)
	}
	anim, err := gif.DecodeAll(f)
	f.Close()
	if err != nil {
		t.Fatalf("decode gif: %v", err)
	}
	if len(anim.Image) != 3 {
		t.Fatalf("unexpected gif frame count %d", len(anim.Image))
	}
}

func TestPreviewWritesRegions(t *testing.T) {
	env := setupCLITestEnv(t, false)
	capture := env.capture(t, "run.avi", 10)
	dir := filepath.Join(t.TempDir(), "preview")

	out, err := env.run(t, "preview", "--dir", dir, "--scale", "1", "--thumbnail", "4", "--highlight-start", "1", "--highlight-end", "8", capture)
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	requireContains(t, out, "Loaded 10 frames")
	requireContains(t, out, "Wrote 3 previews")
	for _, name := range []string{"thumbnail.png", "highlight-start.png", "highlight-end.png"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("expected %s: %v", name, err)
		}
	}
}

func TestLoginWhoamiLogout(t *testing.T) {
	env := setupCLITestEnv(t, true)

	out, err := env.run(t, "whoami")
	if err != nil {
		t.Fatalf("whoami: %v", err)
	}
	requireContains(t, out, "Not signed in")

	out, err = env.run(t, "login")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	requireContains(t, out, "Signed in as sam (user 7, Editor)")

	out, err = env.run(t, "whoami", "--verify")
	if err != nil {
		t.Fatalf("whoami --verify: %v", err)
	}
	requireContains(t, out, "sam (user 7, Editor)")
	requireContains(t, out, "Credentials verified")

	if _, err := env.run(t, "login", "--token", "wrong"); err == nil || !strings.Contains(err.Error(), "incorrect username or token") {
		t.Fatalf("expected bad token to fail sign in, got %v", err)
	}

	if _, err := env.run(t, "logout"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	out, err = env.run(t, "whoami")
	if err != nil {
		t.Fatalf("whoami after logout: %v", err)
	}
	requireContains(t, out, "Not signed in")
}

func TestSubmitUploadsPartsAndMetadata(t *testing.T) {
	env := setupCLITestEnv(t, true)
	notified := env.enableNotifications(t)
	first := env.capture(t, "run-001.avi", 6)
	second := env.capture(t, "run-002.avi", 6)

	out, err := env.run(t, "submit",
		"--crop-size", "64", "--center-x", "100", "--center-y", "90",
		"--thumbnail", "5", "--highlight-start", "2", "--highlight-end", "9",
		"--room", "3", "--from-node", "1", "--to-node", "2", "--strat", "9",
		"--note", "first try", "--copyright-waiver",
		second, first,
	)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	requireContains(t, out, "Submitted video 77 (2 parts")
	if titles := notified(); len(titles) != 1 || titles[0] != "curator - Video Submitted" {
		t.Fatalf("unexpected notifications %v", titles)
	}

	env.backend.mu.Lock()
	parts := env.backend.parts
	submitted := env.backend.submitted
	env.backend.mu.Unlock()

	if len(parts) != 2 {
		t.Fatalf("expected 2 uploaded parts, got %d", len(parts))
	}
	if got := parts[0].Get("X-MapRandoVideos-VideoId"); got != "" {
		t.Fatalf("first part carried a video id %q", got)
	}
	if got := parts[1].Get("X-MapRandoVideos-VideoId"); got != "77" {
		t.Fatalf("second part video id = %q, want 77", got)
	}
	if got := parts[1].Get("X-MapRandoVideos-PartNum"); got != "1" {
		t.Fatalf("second part number = %q", got)
	}
	if submitted == nil {
		t.Fatal("expected submit-video request")
	}
	for key, want := range map[string]float64{
		"video_id":          testVideoID,
		"room_id":           3,
		"strat_id":          9,
		"crop_size":         64,
		"crop_center_x":     100,
		"crop_center_y":     90,
		"thumbnail_t":       5,
		"highlight_start_t": 2,
		"highlight_end_t":   9,
	} {
		if got, _ := submitted[key].(float64); got != want {
			t.Fatalf("submit %s = %v, want %v", key, submitted[key], want)
		}
	}
	if submitted["copyright_waiver"] != true || submitted["note"] != "first try" {
		t.Fatalf("unexpected submit body %+v", submitted)
	}

	out, err = env.run(t, "uploads", "--json")
	if err != nil {
		t.Fatalf("uploads: %v", err)
	}
	var uploads []map[string]any
	if err := json.Unmarshal([]byte(out), &uploads); err != nil {
		t.Fatalf("decode uploads: %v\n%s", err, out)
	}
	if len(uploads) != 1 || uploads[0]["Status"] != "submitted" || uploads[0]["VideoID"] != float64(testVideoID) {
		t.Fatalf("unexpected journal %+v", uploads)
	}

	out, err = env.run(t, "uploads", "prune")
	if err != nil {
		t.Fatalf("uploads prune: %v", err)
	}
	requireContains(t, out, "Removed 1 uploads")
}

func TestSubmitValidatesBeforeUploading(t *testing.T) {
	env := setupCLITestEnv(t, true)
	capture := env.capture(t, "run.avi", 6)

	_, err := env.run(t, "submit", "--thumbnail", "2", "--highlight-start", "1", "--highlight-end", "4", capture)
	if err == nil || !strings.Contains(err.Error(), "copyright-waiver") {
		t.Fatalf("expected missing waiver error, got %v", err)
	}
	// The configured highlight range runs past a six frame capture.
	if _, err := env.run(t, "submit", "--copyright-waiver", capture); err == nil {
		t.Fatal("expected out of range controls to fail")
	}

	env.backend.mu.Lock()
	defer env.backend.mu.Unlock()
	if len(env.backend.parts) != 0 {
		t.Fatalf("expected no uploads, got %d", len(env.backend.parts))
	}
}

func TestSubmitWithoutCredentials(t *testing.T) {
	env := setupCLITestEnv(t, false)
	capture := env.capture(t, "run.avi", 6)

	_, err := env.run(t, "submit", "--thumbnail", "2", "--highlight-start", "1", "--highlight-end", "4", "--copyright-waiver", capture)
	if err == nil || !strings.Contains(err.Error(), "no credentials") {
		t.Fatalf("expected credentials error, got %v", err)
	}
}

func TestVideoCommands(t *testing.T) {
	env := setupCLITestEnv(t, true)

	out, err := env.run(t, "video", "list", "--status", "complete")
	if err != nil {
		t.Fatalf("video list: %v", err)
	}
	requireContains(t, out, "Landing Site")
	requireContains(t, out, "Left Door -> Ship")

	out, err = env.run(t, "video", "edit", "77", "--crop-size", "96", "--status", "approved")
	if err != nil {
		t.Fatalf("video edit: %v", err)
	}
	requireContains(t, out, "Updated video 77")

	env.backend.mu.Lock()
	edited := env.backend.edited
	env.backend.mu.Unlock()
	if edited["crop_size"] != float64(96) || edited["controls_updated"] != true {
		t.Fatalf("unexpected edit controls %+v", edited)
	}
	if edited["status"] != "Approved" || edited["note"] != "keep me" || edited["room_id"] != float64(3) {
		t.Fatalf("edit did not preserve metadata %+v", edited)
	}

	if _, err := env.run(t, "video", "delete", "77"); err == nil {
		t.Fatal("expected delete without --yes to fail")
	}
	if _, err := env.run(t, "video", "delete", "77", "--yes"); err != nil {
		t.Fatalf("video delete: %v", err)
	}
	env.backend.mu.Lock()
	deleted := env.backend.deleted
	env.backend.mu.Unlock()
	if len(deleted) != 1 || deleted[0] != "77" {
		t.Fatalf("unexpected deletes %v", deleted)
	}
}

func TestTechCommands(t *testing.T) {
	env := setupCLITestEnv(t, true)

	out, err := env.run(t, "tech", "list")
	if err != nil {
		t.Fatalf("tech list: %v", err)
	}
	requireContains(t, out, "canWalljump")

	if _, err := env.run(t, "tech", "set", "--id", "4", "--difficulty", "Hard", "--video", "77"); err != nil {
		t.Fatalf("tech set: %v", err)
	}
	env.backend.mu.Lock()
	defer env.backend.mu.Unlock()
	if len(env.backend.tech) != 1 {
		t.Fatalf("unexpected tech update %+v", env.backend.tech)
	}
	update := env.backend.tech[0]
	if update["tech_id"] != float64(4) || update["difficulty"] != "Hard" || update["video_id"] != float64(testVideoID) {
		t.Fatalf("unexpected tech update %+v", update)
	}
}

func TestVideoPreviewDownloadsParts(t *testing.T) {
	env := setupCLITestEnv(t, true)
	dir := filepath.Join(t.TempDir(), "preview")
	cache := filepath.Join(t.TempDir(), "cache")

	out, err := env.run(t, "video", "preview", "77", "--cache-dir", cache, "--dir", dir, "--scale", "1", "--thumbnail", "12")
	if err != nil {
		t.Fatalf("video preview: %v", err)
	}
	requireContains(t, out, "Downloaded 2 parts of video 77")
	requireContains(t, out, "Loaded 20 frames; crop 64 at 100,90")
	requireContains(t, out, "Wrote 3 previews")
	for _, name := range []string{"77-000.avi", "77-001.avi"} {
		if _, err := os.Stat(filepath.Join(cache, name)); err != nil {
			t.Fatalf("expected cached part %s: %v", name, err)
		}
	}

	// Cached parts are reused.
	if _, err := env.run(t, "video", "preview", "77", "--cache-dir", cache, "--dir", dir, "--scale", "1"); err != nil {
		t.Fatalf("video preview again: %v", err)
	}
	env.backend.mu.Lock()
	downloads := append([]string(nil), env.backend.downloads...)
	env.backend.mu.Unlock()
	if strings.Join(downloads, ",") != "0,1" {
		t.Fatalf("unexpected part downloads %v", downloads)
	}
}

func TestVideoPreviewWithoutCredentials(t *testing.T) {
	env := setupCLITestEnv(t, false)
	_, err := env.run(t, "video", "preview", "77", "--cache-dir", t.TempDir())
	if err == nil || !strings.Contains(err.Error(), "username and token required") {
		t.Fatalf("expected credentials error, got %v", err)
	}
}

func TestNotablesCommands(t *testing.T) {
	env := setupCLITestEnv(t, true)

	out, err := env.run(t, "notables", "list")
	if err != nil {
		t.Fatalf("notables list: %v", err)
	}
	requireContains(t, out, "Gauntlet Skip")
	requireContains(t, out, "Ceiling Clip")

	if _, err := env.run(t, "notables", "set", "--room", "3", "--notable", "2", "--difficulty", "Expert", "--video", "77"); err != nil {
		t.Fatalf("notables set: %v", err)
	}
	env.backend.mu.Lock()
	set := env.backend.notables
	env.backend.notables = nil
	env.backend.mu.Unlock()
	if len(set) != 1 || set[0]["room_id"] != float64(3) || set[0]["notable_id"] != float64(2) ||
		set[0]["difficulty"] != "Expert" || set[0]["video_id"] != float64(testVideoID) {
		t.Fatalf("unexpected notable update %+v", set)
	}

	out, err = env.run(t, "notables", "autofill", "--dry-run")
	if err != nil {
		t.Fatalf("notables autofill --dry-run: %v", err)
	}
	requireContains(t, out, "Would assign video 77 to notable 1 in room 3")
	env.backend.mu.Lock()
	saved := env.backend.notables
	env.backend.mu.Unlock()
	if saved != nil {
		t.Fatalf("dry run saved %+v", saved)
	}

	out, err = env.run(t, "notables", "autofill")
	if err != nil {
		t.Fatalf("notables autofill: %v", err)
	}
	requireContains(t, out, "Assigned 1 notable videos")
	env.backend.mu.Lock()
	defer env.backend.mu.Unlock()
	// Notables that already have a video and unknown notables are left alone.
	if len(env.backend.notables) != 1 {
		t.Fatalf("unexpected autofill updates %+v", env.backend.notables)
	}
	update := env.backend.notables[0]
	if update["notable_id"] != float64(1) || update["video_id"] != float64(testVideoID) || update["difficulty"] != "Hard" {
		t.Fatalf("unexpected autofill update %+v", update)
	}
}

func TestNotablesSetRequiresIDs(t *testing.T) {
	env := setupCLITestEnv(t, true)
	if _, err := env.run(t, "notables", "set", "--difficulty", "Hard"); err == nil {
		t.Fatal("expected missing --room and --notable to fail")
	}
}

func TestDoctorReportsChecks(t *testing.T) {
	env := setupCLITestEnv(t, true)

	out, err := env.run(t, "doctor")
	if err != nil {
		t.Fatalf("doctor: %v\n%s", err, out)
	}
	requireContains(t, out, "State directory")
	requireContains(t, out, "reachable, 1 users")
	requireContains(t, out, "sam (user 7, Editor)")

	out, err = env.run(t, "users")
	if err != nil {
		t.Fatalf("users: %v", err)
	}
	requireContains(t, out, "sam")
}

func TestConfigTestNotify(t *testing.T) {
	env := setupCLITestEnv(t, false)

	out, err := env.run(t, "config", "test-notify")
	if err != nil {
		t.Fatalf("test-notify without topic: %v", err)
	}
	requireContains(t, out, "Notifications disabled")

	notified := env.enableNotifications(t)
	out, err = env.run(t, "config", "test-notify")
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	requireContains(t, out, "Sent test notification")
	if titles := notified(); len(titles) != 1 || titles[0] != "curator - Test" {
		t.Fatalf("unexpected notifications %v", titles)
	}
}

func TestLogsFiltersByUpload(t *testing.T) {
	env := setupCLITestEnv(t, false)
	if err := os.MkdirAll(env.cfg.Paths.LogDir, 0o755); err != nil {
		t.Fatalf("mkdir logs: %v", err)
	}
	content := "2026-01-01T00:00:00Z INFO upload [upload_key=aaa part=0]: part sent\n" +
		"2026-01-01T00:00:01Z INFO upload [upload_key=bbb part=0]: part sent\n" +
		"2026-01-01T00:00:02Z INFO upload [upload_key=aaa]: upload complete\n"
	if err := os.WriteFile(env.cfg.LogPath(), []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	out, err := env.run(t, "logs", "--upload", "aaa")
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	requireContains(t, out, "upload [upload_key=aaa]: upload complete")
	if strings.Contains(out, "bbb") {
		t.Fatalf("filter leaked other uploads:\n%s", out)
	}
}
