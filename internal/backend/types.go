package backend

import "strings"

// Permission is the account role reported at sign-in.
type Permission string

const (
	PermissionDefault Permission = "Default"
	PermissionEditor  Permission = "Editor"
)

// Account is the sign-in response.
type Account struct {
	UserID     int        `json:"user_id"`
	Permission Permission `json:"permission"`
}

// VideoStatus is the review state of a submitted video.
type VideoStatus string

const (
	StatusPending    VideoStatus = "Pending"
	StatusIncomplete VideoStatus = "Incomplete"
	StatusComplete   VideoStatus = "Complete"
	StatusApproved   VideoStatus = "Approved"
	StatusDisabled   VideoStatus = "Disabled"
)

// AllVideoStatuses lists every status in review order.
var AllVideoStatuses = []VideoStatus{StatusPending, StatusIncomplete, StatusComplete, StatusApproved, StatusDisabled}

// ParseVideoStatus matches s case-insensitively against the known statuses.
func ParseVideoStatus(s string) (VideoStatus, bool) {
	for _, status := range AllVideoStatuses {
		if strings.EqualFold(string(status), strings.TrimSpace(s)) {
			return status, true
		}
	}
	return "", false
}

// SortBy selects the ordering of ListVideos.
type SortBy string

const (
	SortSubmitted SortBy = "SubmittedTimestamp"
	SortUpdated   SortBy = "UpdatedTimestamp"
)

// Controls are the crop and frame selections stored with a video.
type Controls struct {
	CropSize        int `json:"crop_size"`
	CropCenterX     int `json:"crop_center_x"`
	CropCenterY     int `json:"crop_center_y"`
	ThumbnailT      int `json:"thumbnail_t"`
	HighlightStartT int `json:"highlight_start_t"`
	HighlightEndT   int `json:"highlight_end_t"`
}

// Placement ties a video to a strat between two nodes of a room. Nil fields
// are sent as null.
type Placement struct {
	RoomID     *int `json:"room_id"`
	FromNodeID *int `json:"from_node_id"`
	ToNodeID   *int `json:"to_node_id"`
	StratID    *int `json:"strat_id"`
}

// SubmitRequest finalizes an uploaded video.
type SubmitRequest struct {
	VideoID int `json:"video_id"`
	Placement
	Note    string `json:"note"`
	DevNote string `json:"dev_note,omitempty"`
	Controls
	CopyrightWaiver bool `json:"copyright_waiver"`
}

// EditRequest replaces the metadata of an existing video.
type EditRequest struct {
	VideoID int `json:"video_id"`
	Placement
	Note    string `json:"note"`
	DevNote string `json:"dev_note,omitempty"`
	Controls
	Status   VideoStatus `json:"status"`
	Priority *int        `json:"priority,omitempty"`
	// ControlsUpdated asks the server to regenerate previews.
	ControlsUpdated bool `json:"controls_updated"`
}

// Video is the full metadata record of one video.
type Video struct {
	NumParts int `json:"num_parts"`
	Placement
	Note string `json:"note"`
	Controls
	Status    VideoStatus `json:"status"`
	Permanent bool        `json:"permanent"`
}

// VideoListing is one row of ListVideos.
type VideoListing struct {
	ID            int         `json:"id"`
	CreatedUserID int         `json:"created_user_id"`
	SubmittedTS   int64       `json:"submitted_ts"`
	UpdatedUserID int         `json:"updated_user_id"`
	UpdatedTS     int64       `json:"updated_ts"`
	RoomID        *int        `json:"room_id"`
	FromNodeID    *int        `json:"from_node_id"`
	ToNodeID      *int        `json:"to_node_id"`
	StratID       *int        `json:"strat_id"`
	Note          string      `json:"note"`
	Status        VideoStatus `json:"status"`
	RoomName      *string     `json:"room_name"`
	FromNodeName  *string     `json:"from_node_name"`
	ToNodeName    *string     `json:"to_node_name"`
	StratName     *string     `json:"strat_name"`
}

// ListVideosRequest filters ListVideos. Zero values are omitted from the query.
type ListVideosRequest struct {
	RoomID     int
	FromNodeID int
	ToNodeID   int
	StratID    int
	UserID     int
	VideoID    int
	// Statuses defaults to every status.
	Statuses []VideoStatus
	// SortBy defaults to SortSubmitted.
	SortBy SortBy
	Limit  int
	Offset int
}

// User is one active account.
type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
}

// Room is one room within an area.
type Room struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Area groups rooms by game area.
type Area struct {
	Name  string `json:"name"`
	Rooms []Room `json:"rooms"`
}

// Node is a room entry or exit point.
type Node struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Strat is a named technique for traversing a room between two nodes.
type Strat struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Tech is one technique with its configured difficulty and showcase video.
type Tech struct {
	TechID     int     `json:"tech_id"`
	Name       string  `json:"name"`
	Difficulty *string `json:"difficulty"`
	VideoID    *int    `json:"video_id"`
}

// TechUpdate sets the difficulty and showcase video of one technique.
type TechUpdate struct {
	TechID     int    `json:"tech_id"`
	Difficulty string `json:"difficulty"`
	VideoID    *int   `json:"video_id"`
}

// Notable is one notable strat with its configured difficulty and showcase video.
type Notable struct {
	RoomID     int     `json:"room_id"`
	NotableID  int     `json:"notable_id"`
	RoomName   string  `json:"room_name"`
	Name       string  `json:"name"`
	Difficulty *string `json:"difficulty"`
	VideoID    *int    `json:"video_id"`
}

// NotableUpdate sets the difficulty and showcase video of one notable.
type NotableUpdate struct {
	RoomID     int    `json:"room_id"`
	NotableID  int    `json:"notable_id"`
	Difficulty string `json:"difficulty"`
	VideoID    *int   `json:"video_id"`
}

// NotablePick is a suggested showcase video for a notable.
type NotablePick struct {
	RoomID    int `json:"room_id"`
	NotableID int `json:"notable_id"`
	VideoID   int `json:"video_id"`
}

// IntPtr returns a pointer to v, or nil when v is negative.
func IntPtr(v int) *int {
	if v < 0 {
		return nil
	}
	return &v
}
