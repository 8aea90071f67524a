package media

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Angad-2002/Darwix-AI/internal/domain"
	"github.com/Angad-2002/Darwix-AI/internal/validate"
)

// PathSource reads a candidate from the local filesystem.
type PathSource struct {
	Path string
}

// Open opens the file for streaming into the upload body.
func (s PathSource) Open() (io.ReadCloser, error) {
	return os.Open(s.Path)
}

// BytesSource serves an in-memory payload, used for drops and tests.
type BytesSource struct {
	Data []byte
}

// Open returns a reader over a copy-free view of the payload.
func (s BytesSource) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(s.Data)), nil
}

// CandidateFromPath stats path and describes it as an upload candidate.
func CandidateFromPath(path string) (domain.UploadCandidate, error) {
	info, err := os.Stat(path)
	if err != nil {
		return domain.UploadCandidate{}, fmt.Errorf("stat selected file: %w", err)
	}
	if info.IsDir() {
		return domain.UploadCandidate{}, fmt.Errorf("selected path is a directory: %s", path)
	}

	name := filepath.Base(path)
	return domain.UploadCandidate{
		Name:            name,
		SizeBytes:       info.Size(),
		MimeOrExtension: validate.ExtensionOf(name),
		Source:          PathSource{Path: path},
	}, nil
}

// CandidateFromBytes wraps an in-memory payload as an upload candidate.
func CandidateFromBytes(name string, data []byte) domain.UploadCandidate {
	return domain.UploadCandidate{
		Name:            name,
		SizeBytes:       int64(len(data)),
		MimeOrExtension: validate.ExtensionOf(name),
		Source:          BytesSource{Data: data},
	}
}
