package dto

import "time"

type UploadResult struct {
	Created int
	Failed  int
}

type SyncSummary struct {
	RunID      string
	SourceFile string
	Extracted  int
	Existing   int
	Candidates int
	Created    int
	Failed     int
	DryRun     bool
	StartedAt  time.Time
	FinishedAt time.Time
}
