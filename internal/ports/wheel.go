package ports

import (
	"context"

	"wheel-installer/internal/types"
)

type WheelReaderPort interface {
	Read(ctx context.Context, path string) (types.WheelRecord, error)
}

type NamespacePort interface {
	ImplicitNamespacePackages(ctx context.Context, root string) ([]types.NamespacePackageDir, error)
	AddPkgutilMarker(ctx context.Context, dir string) error
	Normalize(ctx context.Context, root string) ([]types.NamespacePackageDir, error)
}

type MetadataPort interface {
	WriteMetadata(ctx context.Context, dir string, doc types.MetadataDocument) (string, error)
	ReadMetadata(ctx context.Context, dir string) (types.MetadataDocument, error)
}
