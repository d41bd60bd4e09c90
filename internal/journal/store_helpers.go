package journal

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

const uploadColumns = "id, upload_key, captures_json, num_parts, parts_sent, video_id, status, error_message, created_at, updated_at, submitted_at"

func scanUpload(scanner interface{ Scan(dest ...any) error }) (*Upload, error) {
	var (
		id           int64
		key          string
		capturesRaw  string
		numParts     int
		partsSent    int
		videoID      sql.NullInt64
		statusStr    string
		errorMessage sql.NullString
		createdRaw   string
		updatedRaw   string
		submittedRaw sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&key,
		&capturesRaw,
		&numParts,
		&partsSent,
		&videoID,
		&statusStr,
		&errorMessage,
		&createdRaw,
		&updatedRaw,
		&submittedRaw,
	); err != nil {
		return nil, err
	}

	upload := &Upload{
		ID:           id,
		Key:          key,
		NumParts:     numParts,
		PartsSent:    partsSent,
		VideoID:      videoID.Int64,
		Status:       Status(statusStr),
		ErrorMessage: errorMessage.String,
		CreatedAt:    parseTime(createdRaw),
		UpdatedAt:    parseTime(updatedRaw),
	}
	if submittedRaw.Valid {
		upload.SubmittedAt = parseTime(submittedRaw.String)
	}
	if err := json.Unmarshal([]byte(capturesRaw), &upload.Captures); err != nil {
		return nil, fmt.Errorf("decode captures for upload %d: %w", id, err)
	}
	return upload, nil
}

func scanPart(scanner interface{ Scan(dest ...any) error }) (*Part, error) {
	var (
		part    Part
		sentRaw string
	)
	if err := scanner.Scan(
		&part.UploadID,
		&part.PartNum,
		&part.FileName,
		&part.SHA256,
		&part.RawBytes,
		&part.CompressedBytes,
		&sentRaw,
	); err != nil {
		return nil, err
	}
	part.SentAt = parseTime(sentRaw)
	return &part, nil
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	ts, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return ts
}

func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableInt64(value int64) any {
	if value == 0 {
		return nil
	}
	return value
}
