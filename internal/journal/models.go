package journal

import "time"

// Status represents the lifecycle of an upload.
type Status string

const (
	StatusPending   Status = "pending"
	StatusUploading Status = "uploading"
	StatusUploaded  Status = "uploaded"
	StatusSubmitted Status = "submitted"
	StatusFailed    Status = "failed"
)

var allStatuses = []Status{
	StatusPending,
	StatusUploading,
	StatusUploaded,
	StatusSubmitted,
	StatusFailed,
}

// AllStatuses returns every known status in lifecycle order.
func AllStatuses() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses)
	return out
}

// ParseStatus maps a user supplied string to a Status.
func ParseStatus(value string) (Status, bool) {
	for _, status := range allStatuses {
		if string(status) == value {
			return status, true
		}
	}
	return "", false
}

// Upload is one multi-part capture transfer.
type Upload struct {
	ID           int64
	Key          string
	Captures     []string
	NumParts     int
	PartsSent    int
	VideoID      int64
	Status       Status
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	SubmittedAt  time.Time
}

// Complete reports whether every part reached the backend.
func (u *Upload) Complete() bool {
	return u != nil && u.NumParts > 0 && u.PartsSent >= u.NumParts
}

// Part records one transferred capture file.
type Part struct {
	UploadID        int64
	PartNum         int
	FileName        string
	SHA256          string
	RawBytes        int64
	CompressedBytes int64
	SentAt          time.Time
}

// Account is the signed-in backend user.
type Account struct {
	Username   string
	UserID     int64
	Permission string
	SignedInAt time.Time
}
