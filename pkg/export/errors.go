package export

import "errors"

var (
	// ErrArchiveMagic indicates a payload archive with the wrong magic number.
	ErrArchiveMagic = errors.New("invalid payload archive magic")
	// ErrArchiveVersion indicates an unsupported payload archive version.
	ErrArchiveVersion = errors.New("unsupported payload archive version")
	// ErrArchiveCorrupt indicates a payload archive whose records disagree with its header.
	ErrArchiveCorrupt = errors.New("corrupt payload archive")
)
