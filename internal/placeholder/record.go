package placeholder

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"footage/internal/media"
	"footage/internal/metadata"
	"footage/internal/timestamp"
)

// FormatVersion is written into every record.
const FormatVersion = "1.0"

// Extension is appended to the planned media file name.
const Extension = ".json"

// Record is the sidecar written for each planned file. Sections other than
// Info and File may be empty; readers must tolerate their absence.
type Record struct {
	Info       Info                `json:"placeholder_info"`
	File       FileInfo            `json:"file_info"`
	Timestamps Timestamps          `json:"timestamps"`
	Video      *metadata.Technical `json:"video_metadata,omitempty"`
	Raw        map[string]any      `json:"raw_metadata,omitempty"`
	Transfer   *TransferInfo       `json:"transfer_info,omitempty"`
}

// Info identifies the original file.
type Info struct {
	CreatedAt        time.Time `json:"created_at"`
	OriginalFilename string    `json:"original_filename"`
	OriginalPath     string    `json:"original_path"`
	OriginalSize     int64     `json:"original_size_bytes"`
	FormatVersion    string    `json:"format_version"`
	RunID            string    `json:"run_id,omitempty"`
}

// FileInfo records the classification of the original file.
type FileInfo struct {
	Group               string     `json:"group"`
	Kind                media.Kind `json:"kind"`
	Extension           string     `json:"extension"`
	ModTime             time.Time  `json:"mtime"`
	Drone               bool       `json:"drone,omitempty"`
	Stabilized          bool       `json:"stabilized,omitempty"`
	TimestampSourcePath string     `json:"timestamp_source_path,omitempty"`
	Note                string     `json:"note,omitempty"`
}

// Timestamps carries the resolved local time and how it was derived. Local is
// stored as naive wall-clock text in Timezone.
type Timestamps struct {
	Local       string              `json:"local,omitempty"`
	Date        string              `json:"date,omitempty"`
	Source      timestamp.Source    `json:"source"`
	Valid       bool                `json:"valid"`
	Candidate   string              `json:"candidate,omitempty"`
	Adjustment  string              `json:"adjustment,omitempty"`
	MetadataUTC string              `json:"metadata_utc,omitempty"`
	Timezone    string              `json:"timezone"`
	Trail       []timestamp.Attempt `json:"trail,omitempty"`
}

// TransferInfo is appended once the media file exists at NewLocation.
type TransferInfo struct {
	TransferredAt time.Time `json:"transferred_at"`
	NewLocation   string    `json:"new_location"`
	Mode          string    `json:"mode"`
	SHA256        string    `json:"sha256,omitempty"`
	SizeBytes     int64     `json:"size_bytes"`
	Adopted       bool      `json:"adopted,omitempty"`
}

const wallClock = "2006-01-02T15:04:05"

// NewRecord assembles a record for a planned file.
func NewRecord(file media.File, res timestamp.Resolution, tech *metadata.Technical, runID string, now time.Time) Record {
	rec := Record{
		Info: Info{
			CreatedAt:        now.UTC(),
			OriginalFilename: file.Name,
			OriginalPath:     file.Path,
			OriginalSize:     file.Size,
			FormatVersion:    FormatVersion,
			RunID:            runID,
		},
		File: FileInfo{
			Group:      file.Class.Group,
			Kind:       file.Class.Kind,
			Extension:  strings.ToLower(file.Ext),
			ModTime:    file.ModTime.UTC(),
			Drone:      file.Class.Drone,
			Stabilized: file.Stabilized(),
			Note:       file.Note,
		},
		Timestamps: Timestamps{
			Source:     res.Source,
			Valid:      res.Valid,
			Adjustment: res.Adjustment,
			Timezone:   res.Local.Location().String(),
			Trail:      res.Trail,
		},
		Video: tech,
	}
	if res.SourcePath != "" && res.SourcePath != file.Path {
		rec.File.TimestampSourcePath = res.SourcePath
	}
	if res.Valid {
		rec.Timestamps.Local = res.Local.Format(wallClock)
		rec.Timestamps.Date = res.Date()
		rec.Timestamps.Candidate = res.Candidate.Format(wallClock)
	}
	if !res.UTC.IsZero() {
		rec.Timestamps.MetadataUTC = res.UTC.UTC().Format(time.RFC3339)
	}
	return rec
}

// Transferred reports whether the record carries a transfer record.
func (r Record) Transferred() bool {
	return r.Transfer != nil && r.Transfer.NewLocation != ""
}

// ColorProfile returns the recorded profile, deriving it from the stream
// fields when the record predates classification.
func (r Record) ColorProfile() media.ColorProfile {
	if r.Video == nil {
		return media.ColorSDR
	}
	if r.Video.ColorProfile != "" {
		return r.Video.ColorProfile
	}
	return media.ClassifyColor(r.Video.ColorInfo())
}

// Validate checks the fields transfer depends on.
func (r Record) Validate() error {
	if strings.TrimSpace(r.Info.OriginalPath) == "" {
		return fmt.Errorf("placeholder_info.original_path is empty")
	}
	if r.Info.OriginalSize < 0 {
		return fmt.Errorf("placeholder_info.original_size_bytes is negative")
	}
	return nil
}

// Encode renders the record as indented JSON with a trailing newline.
func (r Record) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Decode parses a record.
func Decode(data []byte) (Record, error) {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}
