package entities

import "time"

// ParseStats counts what happened to each line of a registry file
type ParseStats struct {
	TotalLines     int `json:"totalLines"`
	EmptyLines     int `json:"emptyLines"`
	MissingColumns int `json:"missingColumns"`
	Records        int `json:"records"`
}

// BuildReport summarizes a catalog build
type BuildReport struct {
	HeaderStats      ParseStats
	CompositionStats ParseStats
	// Paths of registry files that did not exist
	MissingSources []string
	Duplicates     []DuplicateRecord
	SkippedHeaders int
	DrugCount      int
	Duration       time.Duration
}
