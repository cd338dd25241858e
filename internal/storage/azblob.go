package storage

import (
	"bytes"
	"context"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	cfgpkg "github.com/mars-etl/ethetl/internal/config"
	"github.com/mars-etl/ethetl/internal/errs"
)

// AzblobStorage writes blobs to an Azure Blob Storage container.
type AzblobStorage struct {
	client    *azblob.Client
	container string
	root      string
}

// NewAzblobStorage constructs an AzblobStorage from an AzblobConfig.
func NewAzblobStorage(cfg cfgpkg.AzblobConfig) (*AzblobStorage, error) {
	const op = "storage.NewAzblobStorage"
	cred, err := azblob.NewSharedKeyCredential(cfg.AccountName, cfg.AccountKey)
	if err != nil {
		return nil, errs.Storage(op, err)
	}
	client, err := azblob.NewClientWithSharedKeyCredential(cfg.EndpointURL, cred, nil)
	if err != nil {
		return nil, errs.Storage(op, err)
	}
	return &AzblobStorage{client: client, container: cfg.Container, root: cfg.Root}, nil
}

func (s *AzblobStorage) Put(ctx context.Context, path string, data []byte) error {
	const op = "storage.AzblobStorage.Put"
	_, err := s.client.UploadBuffer(ctx, s.container, joinRoot(s.root, path), data, nil)
	if err != nil {
		return errs.Storage(op, err)
	}
	return nil
}

// Get reads back a previously written blob. A missing blob reports
// found=false rather than an error.
func (s *AzblobStorage) Get(ctx context.Context, path string) ([]byte, bool, error) {
	const op = "storage.AzblobStorage.Get"
	resp, err := s.client.DownloadStream(ctx, s.container, joinRoot(s.root, path), nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return nil, false, nil
		}
		return nil, false, errs.Storage(op, err)
	}
	defer resp.Body.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, false, errs.Storage(op, err)
	}
	return buf.Bytes(), true, nil
}

