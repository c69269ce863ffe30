package fs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	iofs "io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/justyntemme/bokuchi/internal/debug"
)

// Common file permission modes
const (
	DirPermission  = 0o755
	FilePermission = 0o644
)

// DefaultMaxFileSize is the largest file the editor reads or hashes in full.
const DefaultMaxFileSize = 10 * 1024 * 1024

// DefaultExtensions lists the file types the editor opens and saves.
var DefaultExtensions = []string{".md", ".txt"}

// Local is the Gateway backed by the real file system.
type Local struct {
	Prompter    Prompter
	MaxFileSize int64
	Extensions  []string
}

// NewLocal creates a gateway with default limits. prompter may be nil for
// headless use, in which case pickers report ErrCancelled.
func NewLocal(prompter Prompter) *Local {
	return &Local{
		Prompter:    prompter,
		MaxFileSize: DefaultMaxFileSize,
		Extensions:  DefaultExtensions,
	}
}

// Accepts reports whether path has an editable extension. Paths without an
// extension are accepted.
func (l *Local) Accepts(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return true
	}
	exts := l.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	for _, e := range exts {
		if strings.EqualFold(e, ext) {
			return true
		}
	}
	return false
}

func (l *Local) maxSize() int64 {
	if l.MaxFileSize <= 0 {
		return DefaultMaxFileSize
	}
	return l.MaxFileSize
}

// ReadFile reads a whole document.
func (l *Local) ReadFile(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", classify("read", path, err)
	}
	if info.Size() > l.maxSize() {
		return "", fmt.Errorf("read %s: %w (max %d bytes)", path, ErrTooLarge, l.maxSize())
	}
	if !l.Accepts(path) {
		return "", fmt.Errorf("read %s: %w", path, ErrUnsupportedType)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", classify("read", path, err)
	}
	debug.Log(debug.FS, "ReadFile: %s (%d bytes)", path, len(data))
	return string(data), nil
}

// WriteFile writes content, creating missing parent directories.
func (l *Local) WriteFile(ctx context.Context, path, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !l.Accepts(path) {
		return fmt.Errorf("write %s: %w", path, ErrUnsupportedType)
	}
	if err := os.MkdirAll(filepath.Dir(path), DirPermission); err != nil {
		return classify("create directory for", path, err)
	}
	if err := os.WriteFile(path, []byte(content), FilePermission); err != nil {
		return classify("write", path, err)
	}
	debug.Log(debug.FS, "WriteFile: %s (%d bytes)", path, len(content))
	return nil
}

// HashFile returns size, mtime and the SHA-256 of the content. Files above
// the size limit get LargeFileHash instead of a digest.
func (l *Local) HashFile(ctx context.Context, path string) (HashInfo, error) {
	if err := ctx.Err(); err != nil {
		return HashInfo{}, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return HashInfo{}, classify("hash", path, err)
	}

	result := HashInfo{
		Size:    info.Size(),
		ModTime: info.ModTime().Unix(),
	}
	if info.Size() > l.maxSize() {
		result.Hash = LargeFileHash
		return result, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return HashInfo{}, classify("hash", path, err)
	}
	result.Hash = HashContent(string(data))
	return result, nil
}

// HashContent is the digest HashFile computes for content.
func HashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// OpenFilePicker asks the prompter for a path and reads it.
func (l *Local) OpenFilePicker(ctx context.Context) (string, string, error) {
	if l.Prompter == nil {
		return "", "", ErrCancelled
	}
	path, err := l.Prompter.PickOpenPath(ctx)
	if err != nil {
		return "", "", err
	}
	if path == "" {
		return "", "", ErrCancelled
	}
	content, err := l.ReadFile(ctx, path)
	if err != nil {
		return "", "", err
	}
	return path, content, nil
}

// SaveFilePicker asks the prompter for a destination and writes content there.
func (l *Local) SaveFilePicker(ctx context.Context, content, suggestedPath string) (string, error) {
	if l.Prompter == nil {
		return "", ErrCancelled
	}
	path, err := l.Prompter.PickSavePath(ctx, suggestedPath)
	if err != nil {
		return "", err
	}
	if path == "" {
		return "", ErrCancelled
	}
	if err := l.WriteFile(ctx, path, content); err != nil {
		return "", err
	}
	return path, nil
}

// classify maps OS errors onto the gateway's sentinel errors.
func classify(op, path string, err error) error {
	switch {
	case errors.Is(err, iofs.ErrNotExist):
		return fmt.Errorf("%s %s: %w", op, path, ErrNotFound)
	case errors.Is(err, iofs.ErrPermission):
		return fmt.Errorf("%s %s: %w", op, path, ErrPermissionDenied)
	default:
		return fmt.Errorf("%s %s: %w", op, path, err)
	}
}
