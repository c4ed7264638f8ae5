// Package storage is the local-disk store for product photos.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
)

// PhotoStorage writes product photos under rootPath/<productID>/, checking
// the real content type from the bytes rather than trusting the upload's
// extension.
type PhotoStorage struct {
	rootPath       string
	maxUploadBytes int64
}

func NewPhotoStorage(rootPath string, maxUploadMB int64) (*PhotoStorage, error) {
	if err := os.MkdirAll(rootPath, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create root %s: %w", rootPath, err)
	}
	return &PhotoStorage{
		rootPath:       rootPath,
		maxUploadBytes: maxUploadMB * 1024 * 1024,
	}, nil
}

var allowedImage = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/webp": {},
}

// Save stores one photo and returns its relative path and detected MIME
// type.
func (s *PhotoStorage) Save(ctx context.Context, productID uuid.UUID, originalName string, r io.Reader) (string, string, error) {
	if err := ctx.Err(); err != nil {
		return "", "", err
	}

	head := make([]byte, 262)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF {
		return "", "", fmt.Errorf("storage: read upload: %w", err)
	}
	head = head[:n]

	kind, err := filetype.Match(head)
	if err != nil || kind == types.Unknown {
		return "", "", fmt.Errorf("storage: unrecognized file type")
	}
	if _, ok := allowedImage[kind.MIME.Value]; !ok {
		return "", "", fmt.Errorf("storage: %s uploads are not allowed", kind.MIME.Value)
	}

	fileName := fmt.Sprintf("%d_%s.%s", time.Now().UnixNano(), sanitizeFilename(originalName), kind.Extension)
	productDir := filepath.Join(s.rootPath, productID.String())
	if err := os.MkdirAll(productDir, 0o755); err != nil {
		return "", "", fmt.Errorf("storage: create product dir: %w", err)
	}

	targetPath := filepath.Join(productDir, fileName)
	tempPath := targetPath + ".tmp"

	f, err := os.Create(tempPath)
	if err != nil {
		return "", "", fmt.Errorf("storage: create file: %w", err)
	}
	defer f.Close()

	limited := io.LimitedReader{R: io.MultiReader(bytes.NewReader(head), r), N: s.maxUploadBytes + 1}
	written, err := io.Copy(f, &limited)
	if err != nil {
		_ = os.Remove(tempPath)
		return "", "", fmt.Errorf("storage: write file: %w", err)
	}
	if written > s.maxUploadBytes {
		_ = os.Remove(tempPath)
		return "", "", fmt.Errorf("storage: upload exceeds %d bytes", s.maxUploadBytes)
	}

	if err := f.Close(); err != nil {
		return "", "", fmt.Errorf("storage: close file: %w", err)
	}
	if err := os.Rename(tempPath, targetPath); err != nil {
		return "", "", fmt.Errorf("storage: rename file: %w", err)
	}

	return filepath.Join(productID.String(), fileName), kind.MIME.Value, nil
}

func (s *PhotoStorage) Delete(ctx context.Context, relativePath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target := filepath.Join(s.rootPath, relativePath)
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: remove file: %w", err)
	}
	return nil
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
	if name == "" {
		name = "photo"
	}
	return name
}
