package app

import (
	"github.com/spf13/afero"

	"wheel-installer/internal/adapters"
	"wheel-installer/internal/policies"
	"wheel-installer/internal/ports"
)

type Service struct {
	Fs         afero.Fs
	Archives   ports.ArchivePort
	Reader     ports.WheelReaderPort
	Namespaces ports.NamespacePort
	Metadata   ports.MetadataPort
	Fetcher    ports.FetcherPort
}

// Options tune the adapters wired by NewService. The zero value selects
// the defaults.
type Options struct {
	Fs               afero.Fs
	IgnoreDirs       []string
	EntryPointGroups []string
	Python           string
}

func NewService(opts Options) Service {
	fs := opts.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	archives := adapters.NewZipArchiveAdapter(fs)
	fetcher := adapters.NewPipFetcherAdapter(opts.Python)
	fetcher.Fs = fs
	return Service{
		Fs:         fs,
		Archives:   archives,
		Reader:     adapters.NewWheelReaderAdapter(archives, opts.EntryPointGroups),
		Namespaces: adapters.NewNamespaceFSAdapter(fs, policies.NewIgnorePolicy(opts.IgnoreDirs)),
		Metadata:   adapters.NewMetadataFileAdapter(fs),
		Fetcher:    fetcher,
	}
}
