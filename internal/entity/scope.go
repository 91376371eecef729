package entity

// ScopeConfig is the immutable per-run crawl scope.
type ScopeConfig struct {
	Seed       string
	OnlyHost   string // substring filter for page links and scripts; empty disables it
	OutputRoot string
}
