package model

import "time"

// UnresolvedSpace is the sentinel resolved-space value for photos that
// matched no geofence and carry no override.
const UnresolvedSpace = "unresolved"

// Coordinate is a WGS84 point with the reported GPS accuracy radius in meters.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy"`
}

// SmartLocation is the automatic geofence-match result stored on a photo.
type SmartLocation struct {
	DetectedSpaceID string  `json:"detected_space_id"`
	Confidence      float64 `json:"confidence"`
}

// WorkerOverride records a worker's manual space assignment for a photo.
// Once present it permanently wins over automatic matching.
type WorkerOverride struct {
	SpaceID string `json:"space_id"`
	Note    string `json:"note,omitempty"`
}

// PhotoEvidence is a captured photo tied to a building, with the GPS fix
// taken at capture time. Version supports optimistic concurrency on writes.
type PhotoEvidence struct {
	ID               string          `json:"id"`
	BuildingID       string          `json:"building_id"`
	WorkerID         string          `json:"worker_id"`
	ImageRef         string          `json:"image_ref"`
	ThumbnailRef     string          `json:"thumbnail_ref,omitempty"`
	CaptureTimestamp time.Time       `json:"capture_timestamp"`
	GPS              Coordinate      `json:"gps"`
	Tags             []string        `json:"tags,omitempty"`
	SmartLocation    *SmartLocation  `json:"smart_location,omitempty"`
	WorkerOverride   *WorkerOverride `json:"worker_override,omitempty"`
	Version          int64           `json:"version"`
}

// ResolvedSpace returns the space the photo is attributed to: the worker
// override if present, then the automatic detection, then UnresolvedSpace.
func (p PhotoEvidence) ResolvedSpace() string {
	if p.WorkerOverride != nil && p.WorkerOverride.SpaceID != "" {
		return p.WorkerOverride.SpaceID
	}
	if p.SmartLocation != nil && p.SmartLocation.DetectedSpaceID != "" {
		return p.SmartLocation.DetectedSpaceID
	}
	return UnresolvedSpace
}
