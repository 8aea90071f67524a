package history

import (
	"encoding/hex"
	"fmt"
	"io"

	"lukechampine.com/blake3"

	"github.com/Angad-2002/Darwix-AI/internal/domain"
)

// HashReader returns the hex BLAKE3-256 digest of everything read from r.
func HashReader(r io.Reader) (string, error) {
	h := blake3.New(32, nil)
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("calculating blake3 hash: %w", err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// HashSource opens src and hashes its content.
func HashSource(src domain.FileSource) (string, error) {
	if src == nil {
		return "", fmt.Errorf("calculating blake3 hash: no file source")
	}
	rc, err := src.Open()
	if err != nil {
		return "", fmt.Errorf("calculating blake3 hash: opening source: %w", err)
	}
	defer rc.Close()

	return HashReader(rc)
}
