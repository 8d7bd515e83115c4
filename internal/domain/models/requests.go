package models

// Requests for the dashboard HTTP endpoints. Defined in domain for consistency and reuse.

type SeriesRequest struct {
	// Days is a trailing window size, or "all" for the full history.
	Days string `query:"days" json:"days" default:"365" validate:"omitempty"`
}

type ExtremesRequest struct {
	K int `query:"k" json:"k" default:"10" validate:"gte=1,lte=100"`
}

type UpdateRequest struct {
	// Force bypasses the cached-result window and runs a fresh cycle.
	Force bool `query:"force" json:"force"`
}
