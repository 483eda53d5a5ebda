// Package viewmodel defines presentation-ready structs for the HTML pages.
// View models decouple page rendering from domain model types.
package viewmodel

// RunSummaryViewModel holds the fields shown for a run in a list.
type RunSummaryViewModel struct {
	ID          int64
	HeadSHA     string // Abbreviated to 7 characters.
	CheckName   string
	Format      string
	Conclusion  string
	Counts      string // e.g. "11 tests, 1 failures, 0 errors, 0 skipped"
	CompletedAt string
	DetailPath  string
}

// RunDetailViewModel holds presentation-ready data for a single run page.
type RunDetailViewModel struct {
	RunSummaryViewModel

	Repository   string
	RepoPath     string
	FullSHA      string
	Title        string
	Summary      string
	Duration     string
	Annotations  int
	Dropped      int
	CheckRunURL  string // Empty when the run was not published.
	DigestHTML   string // Sanitized HTML rendered from the markdown digest.
	HasDigest    bool
	HasCheckRun  bool
	ShowsDropped bool
}

// RunListViewModel holds the run history of one repository.
type RunListViewModel struct {
	Repository string
	BadgePath  string
	Runs       []RunSummaryViewModel
}
