package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/brm/internal/codec"
	"github.com/mesh-intelligence/brm/internal/normalize"
	"github.com/mesh-intelligence/brm/pkg/types"
)

// LegacyCandidates are the catalogue file names earlier releases wrote into
// the application data directory, in the order they are tried.
var LegacyCandidates = []string{
	"projects.json",
	"projects.legacy.json",
	"projects.backup.json",
}

// archiveOps holds the file operations used to retire a legacy file; tests
// swap them to force the fallback paths.
var archiveOps = struct {
	rename   func(oldpath, newpath string) error
	readFile func(name string) ([]byte, error)
	remove   func(name string) error
}{
	rename:   os.Rename,
	readFile: os.ReadFile,
	remove:   os.Remove,
}

// ArchivePath returns the name a consumed legacy file is moved to:
// <stem>.migrated.bak<ext> next to the original.
func ArchivePath(path string) string {
	ext := filepath.Ext(path)
	if ext == "" {
		ext = ".json"
	}
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return filepath.Join(filepath.Dir(path), stem+".migrated.bak"+ext)
}

// DiscoverLegacy migrates the first legacy catalogue that exists and holds
// at least one project. The projects are normalized and saved as the
// current catalogue, then the legacy file is archived. It returns nil when
// no candidate qualifies.
//
// Read failures are returned. A candidate that parses as neither the
// current shape nor a bare project list is logged and skipped.
func (s *CatalogueStore) DiscoverLegacy() (*types.Catalogue, error) {
	primary := filepath.Clean(s.Path())
	for _, name := range LegacyCandidates {
		path := filepath.Join(s.cfg.DataDir, name)
		if filepath.Clean(path) == primary {
			continue
		}
		log := s.log.WithField("file", path)

		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading legacy catalogue %s: %w", path, err)
		}
		if strings.TrimSpace(string(data)) == "" {
			continue
		}

		projects, activeID, err := parseLegacy(data)
		if err != nil {
			log.WithError(err).Warn("skipping unreadable legacy catalogue")
			continue
		}
		if len(projects) == 0 {
			continue
		}

		cat, changed := s.norm.Catalogue(projects, activeID)
		if err := s.Save(cat); err != nil {
			return nil, err
		}
		s.archive(path)

		log.WithFields(logrus.Fields{
			"projects": len(cat.Projects),
			"repaired": changed,
		}).Info("migrated legacy catalogue")
		return cat, nil
	}
	return nil, nil
}

// parseLegacy decodes the current catalogue shape, falling back to the
// oldest shape: a bare list of project records.
func parseLegacy(data []byte) ([]normalize.RawProject, *string, error) {
	var cat normalize.RawCatalogue
	errObject := json.Unmarshal(data, &cat)
	if errObject == nil {
		return cat.Projects, cat.ActiveProjectID, nil
	}
	var list []normalize.RawProject
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, nil, fmt.Errorf("not a catalogue (%v) or project list (%w)", errObject, err)
	}
	return list, nil, nil
}

// archive moves a consumed legacy file aside. Rename is tried first, then
// copy-and-delete. The original is only removed once a backup exists; when
// both strategies fail it stays in place and the failure is logged.
func (s *CatalogueStore) archive(path string) {
	backup := ArchivePath(path)
	log := s.log.WithFields(logrus.Fields{"file": path, "backup": backup})

	renameErr := archiveOps.rename(path, backup)
	if renameErr == nil {
		return
	}

	data, err := archiveOps.readFile(path)
	if err == nil {
		err = codec.AtomicWrite(backup, data)
	}
	if err != nil {
		log.WithFields(logrus.Fields{
			"rename_error": renameErr.Error(),
			"copy_error":   err.Error(),
		}).Error("failed to archive legacy catalogue")
		return
	}
	if err := archiveOps.remove(path); err != nil {
		log.WithError(err).Warn("legacy catalogue copied to backup but not removed")
	}
}
