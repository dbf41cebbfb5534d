package model

import "time"

// Geofence is a circular zone around a space's center, radius in meters.
type Geofence struct {
	Center Coordinate `json:"center"`
	Radius float64    `json:"radius"`
}

// BuildingSpace is a registered physical location within a building.
// Reference data owned by building configuration; read-only to the engine.
type BuildingSpace struct {
	ID         string    `json:"id"`
	BuildingID string    `json:"building_id"`
	Name       string    `json:"name"`
	Category   string    `json:"category,omitempty"`
	Floor      string    `json:"floor,omitempty"`
	Geofence   *Geofence `json:"geofence,omitempty"`
	AccessType string    `json:"access_type,omitempty"`
}

// SpaceStats is the per-space photo rollup recomputed after every photo
// resolution change, consumed by space-listing screens.
type SpaceStats struct {
	SpaceID     string     `json:"space_id"`
	BuildingID  string     `json:"building_id"`
	PhotoCount  int        `json:"photo_count"`
	LastPhotoAt *time.Time `json:"last_photo_at,omitempty"`
}
