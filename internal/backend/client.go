package backend

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"curator/internal/config"
	"curator/internal/logging"
)

const (
	defaultHTTPTimeout = 5 * time.Minute
	maxErrorBody       = 4096

	headerNumParts = "X-MapRandoVideos-NumParts"
	headerPartNum  = "X-MapRandoVideos-PartNum"
	headerVideoID  = "X-MapRandoVideos-VideoId"
)

// Config describes the client configuration.
type Config struct {
	BaseURL    string
	Username   string
	Token      string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client wraps the curation server API.
type Client struct {
	baseURL  *url.URL
	username string
	token    string
	http     *http.Client
	logger   *slog.Logger
}

// New creates a Client from the supplied configuration.
func New(cfg Config) (*Client, error) {
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		return nil, errors.New("backend: base url is required")
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("backend: parse base url: %w", err)
	}
	if baseURL.Scheme != "http" && baseURL.Scheme != "https" {
		return nil, fmt.Errorf("backend: base url %q must be http or https", base)
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &Client{
		baseURL:  baseURL,
		username: strings.TrimSpace(cfg.Username),
		token:    strings.TrimSpace(cfg.Token),
		http:     client,
		logger:   logging.NewComponentLogger(cfg.Logger, "backend"),
	}, nil
}

// NewFromConfig builds a client for the configured server and credentials.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("backend: config is nil")
	}
	return New(Config{
		BaseURL:    cfg.Server.URL,
		Username:   cfg.Server.Username,
		Token:      cfg.Server.Token,
		HTTPClient: &http.Client{Timeout: cfg.RequestTimeout()},
		Logger:     logger,
	})
}

// WithCredentials returns a copy of the client that authenticates as username.
func (c *Client) WithCredentials(username, token string) *Client {
	clone := *c
	clone.username = strings.TrimSpace(username)
	clone.token = strings.TrimSpace(token)
	return &clone
}

// Username returns the account the client authenticates as.
func (c *Client) Username() string {
	return c.username
}

// BaseURL returns the server root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// HasCredentials reports whether authenticated calls can be made.
func (c *Client) HasCredentials() bool {
	return c.username != "" && c.token != ""
}

// SignIn verifies the credentials and returns the account details.
func (c *Client) SignIn(ctx context.Context) (Account, error) {
	var account Account
	err := c.doJSON(ctx, "sign in", http.MethodGet, "sign-in", nil, nil, true, &account)
	return account, err
}

// PartUpload is one gzip-compressed part of a capture.
type PartUpload struct {
	NumParts int
	PartNum  int
	// VideoID is the id returned for part 0; it must be zero for part 0 and
	// set for every later part.
	VideoID int
	Body    io.Reader
	// Size is the compressed length; zero sends a chunked body.
	Size int64
}

// UploadPart sends one compressed part and returns the server's video id.
func (c *Client) UploadPart(ctx context.Context, part PartUpload) (int, error) {
	if part.NumParts < 1 || part.PartNum < 0 || part.PartNum >= part.NumParts {
		return 0, fmt.Errorf("backend: part %d of %d out of range", part.PartNum, part.NumParts)
	}
	if part.PartNum == 0 && part.VideoID != 0 {
		return 0, errors.New("backend: first part must not carry a video id")
	}
	if part.PartNum > 0 && part.VideoID == 0 {
		return 0, fmt.Errorf("backend: part %d requires the video id from part 0", part.PartNum)
	}
	req, err := c.newRequest(ctx, http.MethodPost, "upload-video", nil, part.Body, true)
	if err != nil {
		return 0, err
	}
	if part.Size > 0 {
		req.ContentLength = part.Size
	}
	req.Header.Set("Content-Type", "video/avi")
	req.Header.Set("Content-Encoding", "gzip")
	req.Header.Set(headerNumParts, strconv.Itoa(part.NumParts))
	req.Header.Set(headerPartNum, strconv.Itoa(part.PartNum))
	if part.VideoID != 0 {
		req.Header.Set(headerVideoID, strconv.Itoa(part.VideoID))
	}

	body, err := c.do(req, "upload part")
	if err != nil {
		return 0, err
	}
	id, err := strconv.Atoi(strings.TrimSpace(string(body)))
	if err != nil {
		return 0, fmt.Errorf("backend: upload part: parse video id %q: %w", strings.TrimSpace(string(body)), err)
	}
	c.logger.Debug("part uploaded",
		logging.Int("video_id", id),
		logging.Part(part.PartNum),
		logging.Int("num_parts", part.NumParts),
	)
	return id, nil
}

// SubmitVideo finalizes an uploaded video with its metadata.
func (c *Client) SubmitVideo(ctx context.Context, req SubmitRequest) error {
	if req.VideoID <= 0 {
		return errors.New("backend: submit requires a video id")
	}
	return c.doJSON(ctx, "submit video", http.MethodPost, "submit-video", nil, req, true, nil)
}

// EditVideo replaces the metadata of an existing video.
func (c *Client) EditVideo(ctx context.Context, req EditRequest) error {
	if req.VideoID <= 0 {
		return errors.New("backend: edit requires a video id")
	}
	return c.doJSON(ctx, "edit video", http.MethodPost, "edit-video", nil, req, true, nil)
}

// DeleteVideo removes a non-permanent video.
func (c *Client) DeleteVideo(ctx context.Context, videoID int) error {
	query := url.Values{"video_id": {strconv.Itoa(videoID)}}
	return c.doJSON(ctx, "delete video", http.MethodDelete, "", query, nil, true, nil)
}

// GetVideo fetches the metadata of one video.
func (c *Client) GetVideo(ctx context.Context, videoID int) (Video, error) {
	var video Video
	query := url.Values{"video_id": {strconv.Itoa(videoID)}}
	err := c.doJSON(ctx, "get video", http.MethodGet, "get-video", query, nil, false, &video)
	return video, err
}

// ListVideos returns submitted videos matching req.
func (c *Client) ListVideos(ctx context.Context, req ListVideosRequest) ([]VideoListing, error) {
	query := url.Values{}
	setPositive(query, "room_id", req.RoomID)
	setPositive(query, "from_node_id", req.FromNodeID)
	setPositive(query, "to_node_id", req.ToNodeID)
	setPositive(query, "strat_id", req.StratID)
	setPositive(query, "user_id", req.UserID)
	setPositive(query, "video_id", req.VideoID)
	setPositive(query, "limit", req.Limit)
	setPositive(query, "offset", req.Offset)
	statuses := req.Statuses
	if len(statuses) == 0 {
		statuses = AllVideoStatuses
	}
	names := make([]string, len(statuses))
	for i, status := range statuses {
		names[i] = string(status)
	}
	query.Set("status_list", strings.Join(names, ","))
	sortBy := req.SortBy
	if sortBy == "" {
		sortBy = SortSubmitted
	}
	query.Set("sort_by", string(sortBy))

	var videos []VideoListing
	err := c.doJSON(ctx, "list videos", http.MethodGet, "list-videos", query, nil, false, &videos)
	return videos, err
}

// ListUsers returns the active accounts.
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	err := c.doJSON(ctx, "list users", http.MethodGet, "list-users", nil, nil, false, &users)
	return users, err
}

// RoomsByArea returns every room grouped by area.
func (c *Client) RoomsByArea(ctx context.Context) ([]Area, error) {
	var overview struct {
		Areas []Area `json:"areas"`
	}
	err := c.doJSON(ctx, "list rooms", http.MethodGet, "rooms-by-area", nil, nil, false, &overview)
	return overview.Areas, err
}

// Nodes returns the nodes of a room.
func (c *Client) Nodes(ctx context.Context, roomID int) ([]Node, error) {
	var nodes []Node
	query := url.Values{"room_id": {strconv.Itoa(roomID)}}
	err := c.doJSON(ctx, "list nodes", http.MethodGet, "nodes", query, nil, false, &nodes)
	return nodes, err
}

// Strats returns the strats of a room between two nodes.
func (c *Client) Strats(ctx context.Context, roomID, fromNodeID, toNodeID int) ([]Strat, error) {
	var strats []Strat
	query := url.Values{
		"room_id":      {strconv.Itoa(roomID)},
		"from_node_id": {strconv.Itoa(fromNodeID)},
		"to_node_id":   {strconv.Itoa(toNodeID)},
	}
	err := c.doJSON(ctx, "list strats", http.MethodGet, "strats", query, nil, false, &strats)
	return strats, err
}

// ListTech returns every technique with its settings.
func (c *Client) ListTech(ctx context.Context) ([]Tech, error) {
	var tech []Tech
	err := c.doJSON(ctx, "list tech", http.MethodGet, "tech", nil, nil, false, &tech)
	return tech, err
}

// UpdateTech applies technique settings. Editor permission is required.
func (c *Client) UpdateTech(ctx context.Context, updates []TechUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	return c.doJSON(ctx, "update tech", http.MethodPost, "tech", nil, updates, true, nil)
}

// DownloadPart streams one stored part of a video into w. The server sends
// the part gzip-compressed; w receives the raw AVI bytes.
func (c *Client) DownloadPart(ctx context.Context, videoID, partNum int, w io.Writer) (int64, error) {
	if videoID <= 0 || partNum < 0 {
		return 0, fmt.Errorf("backend: download part %d of video %d out of range", partNum, videoID)
	}
	query := url.Values{
		"video_id": {strconv.Itoa(videoID)},
		"part_num": {strconv.Itoa(partNum)},
	}
	req, err := c.newRequest(ctx, http.MethodGet, "download-video", query, nil, true)
	if err != nil {
		return 0, err
	}
	resp, err := c.open(req, "download part")
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	zr, err := gzip.NewReader(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("backend: download part: open gzip stream: %w", err)
	}
	defer zr.Close()
	n, err := io.Copy(w, zr)
	if err != nil {
		return n, fmt.Errorf("backend: download part: decompress: %w", err)
	}
	c.logger.Debug("part downloaded",
		logging.Int("video_id", videoID),
		logging.Part(partNum),
		logging.Int64("bytes", n),
	)
	return n, nil
}

// ListNotables returns every notable strat with its difficulty and showcase video.
func (c *Client) ListNotables(ctx context.Context) ([]Notable, error) {
	var notables []Notable
	err := c.doJSON(ctx, "list notables", http.MethodGet, "notables", nil, nil, false, &notables)
	return notables, err
}

// UpdateNotables applies notable settings. Editor permission is required.
func (c *Client) UpdateNotables(ctx context.Context, updates []NotableUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	return c.doJSON(ctx, "update notables", http.MethodPost, "notables", nil, updates, true, nil)
}

// AutoPickNotableVideos returns the server's suggested showcase video for each
// notable it can match.
func (c *Client) AutoPickNotableVideos(ctx context.Context) ([]NotablePick, error) {
	var picks []NotablePick
	err := c.doJSON(ctx, "pick notable videos", http.MethodGet, "auto-pick-notable-videos", nil, nil, false, &picks)
	return picks, err
}

func setPositive(query url.Values, key string, value int) {
	if value > 0 {
		query.Set(key, strconv.Itoa(value))
	}
}

func (c *Client) doJSON(ctx context.Context, op, method, path string, query url.Values, payload any, auth bool, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("backend: %s: encode request: %w", op, err)
		}
		body = bytes.NewReader(data)
	}
	req, err := c.newRequest(ctx, method, path, query, body, auth)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if out != nil {
		req.Header.Set("Accept", "application/json")
	}
	data, err := c.do(req, op)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("backend: %s: decode response: %w", op, err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader, auth bool) (*http.Request, error) {
	if auth && !c.HasCredentials() {
		return nil, ErrNoCredentials
	}
	endpoint := c.baseURL.JoinPath("/")
	if path != "" {
		endpoint = c.baseURL.JoinPath(path)
	}
	if len(query) > 0 {
		endpoint.RawQuery = query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), body)
	if err != nil {
		return nil, fmt.Errorf("backend: build %s %s request: %w", method, path, err)
	}
	if c.HasCredentials() {
		req.SetBasicAuth(c.username, c.token)
	}
	return req, nil
}

// open sends req and returns the response for a 2xx status. The caller closes
// the body.
func (c *Client) open(req *http.Request, op string) (*http.Response, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("backend: %s request failed: %w", op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{Op: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return resp, nil
}

func (c *Client) do(req *http.Request, op string) ([]byte, error) {
	start := time.Now()
	resp, err := c.open(req, op)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("backend: %s: read response: %w", op, err)
	}
	c.logger.Debug("request complete",
		logging.String("op", op),
		logging.String("method", req.Method),
		logging.String("path", req.URL.Path),
		logging.Int("status", resp.StatusCode),
		logging.Duration("elapsed", time.Since(start)),
	)
	return data, nil
}
