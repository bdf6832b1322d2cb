package state

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// FileStore keeps one plain-text file per (host, group) pair under Dir.
// The file contains the owning-node name, trimmed, no schema versioning.
type FileStore struct {
	Dir string
}

// NewFileStore returns a store rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{Dir: dir}
}

func (s *FileStore) path(host, group string) string {
	name := fmt.Sprintf("check_cluster_%s_%s.owner", SafeKey(host), SafeKey(group))
	return filepath.Join(s.Dir, name)
}

// Read returns the previously stored owner. A missing file is reported as
// found=false with no error.
func (s *FileStore) Read(host, group string) (string, bool, error) {
	data, err := os.ReadFile(s.path(host, group))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read state file: %w", err)
	}
	owner := strings.TrimSpace(string(data))
	if owner == "" {
		return "", false, nil
	}
	return owner, true, nil
}

// Write replaces the stored owner. The content lands in a uniquely named
// temp file first and is renamed into place, so a concurrent reader never
// observes a partial write.
func (s *FileStore) Write(host, group, owner string) error {
	target := s.path(host, group)
	tmp := target + "." + uuid.NewString() + ".tmp"

	if err := os.WriteFile(tmp, []byte(owner+"\n"), 0o644); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}
