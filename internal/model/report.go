package model

import "time"

// Report is the stored export of an instance's responses. There is at most one per instance.
type Report struct {
	ID          string    `json:"id"`
	InstanceID  string    `json:"instance_id"`
	Date        time.Time `json:"date"`
	Summary     string    `json:"summary"`
	StoragePath string    `json:"storage_path"`
}
