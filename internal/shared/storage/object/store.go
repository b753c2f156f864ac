// Package object stores uploaded document bytes behind a provider-neutral
// interface. Keys are "<hashed owner>/<uuid>_<sanitized name>".
package object

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"

	"github.com/google/uuid"

	"clearance-backend/internal/shared/util"
)

// ErrNotFound is returned by Open when no object exists for the key.
var ErrNotFound = errors.New("object not found")

// PutInput describes an upload. ContentType is sniffed when empty.
type PutInput struct {
	Owner       string
	FileName    string
	ContentType string
	Body        io.Reader
}

// Object is the metadata of a stored blob.
type Object struct {
	Key         string
	Size        int64
	ContentType string
}

// Store saves, reads and removes blobs.
type Store interface {
	Put(ctx context.Context, in PutInput) (Object, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// NewKey builds a fresh storage key for owner and fileName.
func NewKey(owner, fileName string) (string, error) {
	name, err := util.SanitizeFileName(fileName)
	if err != nil {
		return "", fmt.Errorf("sanitize file name: %w", err)
	}
	return path.Join(ownerPrefix(owner), uuid.NewString()+"_"+name), nil
}

// ownerPrefix keeps raw student ids out of object paths.
func ownerPrefix(owner string) string {
	sum := sha256.Sum256([]byte(owner))
	return hex.EncodeToString(sum[:])
}

// Sniff returns declared, or the detected content type of the first 512
// bytes, plus a reader that replays those bytes.
func Sniff(r io.Reader, declared string) (string, io.Reader, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", nil, fmt.Errorf("read head: %w", err)
	}
	head = head[:n]
	contentType := declared
	if contentType == "" {
		contentType = http.DetectContentType(head)
	}
	return contentType, io.MultiReader(bytes.NewReader(head), r), nil
}

// CountingReader tallies bytes read through it.
type CountingReader struct {
	R io.Reader
	N int64
}

func (c *CountingReader) Read(p []byte) (int, error) {
	n, err := c.R.Read(p)
	c.N += int64(n)
	return n, err
}
