package duckdb

import (
	"os"
	"sort"
	"time"
)

// FileFingerprint holds stat-based identity for one input of a run.
type FileFingerprint struct {
	Role    string // e.g. "introns"
	Path    string
	Size    int64
	ModTime time.Time
}

// StatFile creates a FileFingerprint from an on-disk file.
func StatFile(role, path string) (FileFingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileFingerprint{}, err
	}
	return FileFingerprint{
		Role:    role,
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

// StatInputs fingerprints every file in inputs (role -> path), ordered by role.
func StatInputs(inputs map[string]string) ([]FileFingerprint, error) {
	fps := make([]FileFingerprint, 0, len(inputs))
	for role, path := range inputs {
		fp, err := StatFile(role, path)
		if err != nil {
			return nil, err
		}
		fps = append(fps, fp)
	}
	sort.Slice(fps, func(i, j int) bool { return fps[i].Role < fps[j].Role })
	return fps, nil
}
