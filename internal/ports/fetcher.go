package ports

import "context"

// FetchRequest describes a single pip download.
type FetchRequest struct {
	Requirement  string
	Python       string
	DownloadOnly bool
	Isolated     bool
	ExtraArgs    []string
	Env          map[string]string
	WorkDir      string
}

type FetcherPort interface {
	// Fetch downloads or builds exactly one wheel and returns its path.
	Fetch(ctx context.Context, request FetchRequest) (string, error)
}
