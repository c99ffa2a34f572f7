package entity

import "time"

type SyncRun struct {
	ID         uint64
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
