package analysis

import "context"

// Analyzer sends one request to the external analysis service
type Analyzer interface {
	Analyze(ctx context.Context, req Request) (Report, error)
}

// Archive keeps a copy of successful reports
type Archive interface {
	Store(ctx context.Context, userID, id string, report Report) (string, error)
}
