package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"webshopsync/internal/metrics"
)

// Store is a flat, name-addressed binary store.
type Store interface {
	Put(ctx context.Context, name string, r io.Reader) error
	Delete(ctx context.Context, name string) error
}

var ErrInvalidName = errors.New("invalid asset name")

// TransferError is returned when an asset could not be stored or removed.
type TransferError struct {
	FileName string
	Op       string
	Err      error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("asset %s %q: %v", e.Op, e.FileName, e.Err)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

// Synchronizer copies local picture files into the asset store under the
// name the product XML refers to.
type Synchronizer struct {
	store Store
	log   zerolog.Logger
}

func NewSynchronizer(store Store, log zerolog.Logger) *Synchronizer {
	return &Synchronizer{store: store, log: log}
}

// Upload stores the file at filePath as remoteName. The local file name is
// irrelevant; only remoteName is visible to the webshop.
func (s *Synchronizer) Upload(ctx context.Context, filePath, remoteName string) (err error) {
	defer func() { metrics.RecordAssetTransfer("upload", err) }()

	if err := checkName(remoteName); err != nil {
		return &TransferError{FileName: remoteName, Op: "upload", Err: err}
	}

	f, err := os.Open(filePath)
	if err != nil {
		return &TransferError{FileName: remoteName, Op: "upload", Err: err}
	}
	defer f.Close()

	if err := s.store.Put(ctx, remoteName, f); err != nil {
		return &TransferError{FileName: remoteName, Op: "upload", Err: err}
	}

	s.log.Info().Str("file", remoteName).Str("source", filePath).Msg("asset uploaded")
	return nil
}

func (s *Synchronizer) Delete(ctx context.Context, remoteName string) (err error) {
	defer func() { metrics.RecordAssetTransfer("delete", err) }()

	if err := checkName(remoteName); err != nil {
		return &TransferError{FileName: remoteName, Op: "delete", Err: err}
	}
	if err := s.store.Delete(ctx, remoteName); err != nil {
		return &TransferError{FileName: remoteName, Op: "delete", Err: err}
	}

	s.log.Info().Str("file", remoteName).Msg("asset deleted")
	return nil
}

func checkName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
