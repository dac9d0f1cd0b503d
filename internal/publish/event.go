// Package publish ships finished document sets to S3 compatible storage
// and announces runs over NATS.
package publish

import (
	"encoding/json"
	"time"
)

// RunEvent announces the end of a run.
type RunEvent struct {
	RunID         string    `json:"run_id"`
	SourceURL     string    `json:"source_url"`
	State         string    `json:"state"`
	Outcome       string    `json:"outcome"`
	StructureHash string    `json:"structure_hash,omitempty"`
	OutputDir     string    `json:"output_dir,omitempty"`
	Documents     int       `json:"documents"`
	Stubs         int       `json:"stubs"`
	Changed       int       `json:"changed"`
	Error         string    `json:"error,omitempty"`
	Time          time.Time `json:"time"`
}

// Encode returns the wire form of the event.
func (e RunEvent) Encode() ([]byte, error) { return json.Marshal(e) }
