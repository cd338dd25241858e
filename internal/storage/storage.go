// Package storage implements the object-store abstraction of spec §6:
// a write-blob surface whose only contract is Put(path, bytes). The
// core only ever depends on the Storage interface; the concrete
// backends here (Fs, S3, Azblob) are provided so the module is
// runnable end to end, using the same three backends the teacher's
// go.mod already carries real SDKs for.
package storage

import "context"

// Storage is the minimal write surface every exporter and the
// checkpoint store consume.
type Storage interface {
	// Put writes data to path, which is relative to the backend's
	// configured root.
	Put(ctx context.Context, path string, data []byte) error
}

// Renamer is implemented by backends that can perform an atomic
// write-temp-then-rename, used by the checkpoint store (component G)
// to satisfy spec §4.F's "write-temp-then-rename semantics". Backends
// whose PUT is already atomic per object (S3, Azure Blob) do not need
// to implement it; Put alone is sufficient there.
type Renamer interface {
	PutAtomic(ctx context.Context, path string, data []byte) error
}

// Getter is implemented by backends that can read back a blob they
// previously wrote, used by the checkpoint store to resume from an
// existing watermark. Not part of the core Storage contract (spec §1
// scopes the object store down to Put), but required for resume.
type Getter interface {
	Get(ctx context.Context, path string) (data []byte, found bool, err error)
}
