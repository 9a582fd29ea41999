package tui

type View int

const (
	ViewFeed View = iota
	ViewSources
	ViewFilters
	ViewReader
	ViewSearch
	ViewExtraRSS
)
