package ports

import "context"

// Archive is an opened wheel archive.
type Archive interface {
	// Entries lists member names in archive order.
	Entries() []string
	ReadEntry(name string) ([]byte, error)
	Close() error
}

type ArchivePort interface {
	Open(path string) (Archive, error)
	// Unzip extracts every member below dest. Members that would escape
	// dest are rejected before anything is written.
	Unzip(ctx context.Context, path string, dest string) error
}
