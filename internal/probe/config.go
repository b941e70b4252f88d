package probe

import "time"

// Config holds configuration for a probe run.
type Config struct {
	BaseURL    string        // Base URL of the service
	Selections int           // Number of random selections to request
	Workers    int           // Number of concurrent workers
	Timeout    time.Duration // HTTP request timeout
	Years      []int         // Candidate years
	Seed       uint64        // Seed of the selection generator; 0 picks one
	Verbose    bool          // Log every failed request
}

// Selection is one set of dashboard filters.
type Selection struct {
	Reporter string
	Partner  string
	Year     int
}

// Stats holds probe statistics.
type Stats struct {
	RunID             string
	Reporters         int
	Partners          int
	Selections        int
	Requested         int
	Succeeded         int
	UpstreamFailed    int
	Failed            int
	PanelsReceived    int
	DistinctFetched   int
	StartTime         time.Time
	EndTime           time.Time
	Duration          time.Duration
	SlowestSelection  Selection
	SlowestRequestDur time.Duration
}
