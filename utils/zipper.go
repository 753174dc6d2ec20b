package utils

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// BackupDataEntry is the profile dump inside every backup archive.
	BackupDataEntry = "profiles.json"
	// BackupMediaPrefix is the directory media files are stored under.
	BackupMediaPrefix = "media/"
)

// BackupSource describes what goes into a backup archive.
type BackupSource struct {
	// WriteData streams the profile dump.
	WriteData func(w io.Writer) error
	// MediaRoot is archived recursively when set.
	MediaRoot string
	// SkipDirs are absolute directories under MediaRoot that are left out,
	// such as the recycle bin.
	SkipDirs []string
}

// BackupFilename returns a unique archive name for t.
func BackupFilename(t time.Time) string {
	archiveUUID, _ := uuid.NewRandom()
	return fmt.Sprintf("backup_%s_%s.zip", t.Format("20060102_150405"), archiveUUID.String()[:8])
}

// IsBackupFilename reports whether name looks like an archive created by
// CreateBackupZip and carries no path elements.
func IsBackupFilename(name string) bool {
	return strings.HasPrefix(name, "backup_") &&
		strings.HasSuffix(name, ".zip") &&
		filepath.Base(name) == name &&
		!strings.ContainsAny(name, `/\`)
}

// CreateBackupZip writes a backup archive into archiveSaveDir.
// Returns: filename relative to archiveSaveDir, size in bytes, error.
// A partially written archive is removed on error.
func CreateBackupZip(src BackupSource, archiveSaveDir string) (string, int64, error) {
	if err := os.MkdirAll(archiveSaveDir, 0755); err != nil {
		return "", 0, fmt.Errorf("failed to create backup directory %s: %w", archiveSaveDir, err)
	}

	zipFilename := BackupFilename(time.Now())
	zipFilePath := filepath.Join(archiveSaveDir, zipFilename)

	if err := writeBackupZip(src, zipFilePath); err != nil {
		os.Remove(zipFilePath)
		return "", 0, err
	}

	zipInfo, err := os.Stat(zipFilePath)
	if err != nil {
		return "", 0, fmt.Errorf("failed to stat created zip file %s: %w", zipFilePath, err)
	}
	slog.Info("created backup archive", "component", "backup", "path", zipFilePath, "size", zipInfo.Size())
	return zipFilename, zipInfo.Size(), nil
}

func writeBackupZip(src BackupSource, zipFilePath string) error {
	zipFile, err := os.Create(zipFilePath)
	if err != nil {
		return fmt.Errorf("failed to create zip file %s: %w", zipFilePath, err)
	}
	defer zipFile.Close()

	zipWriter := zip.NewWriter(zipFile)

	dataWriter, err := zipWriter.Create(BackupDataEntry)
	if err != nil {
		return fmt.Errorf("failed to create %s entry: %w", BackupDataEntry, err)
	}
	if err := src.WriteData(dataWriter); err != nil {
		return fmt.Errorf("failed to write profile dump: %w", err)
	}

	if src.MediaRoot != "" {
		if err := addMediaTree(zipWriter, src.MediaRoot, src.SkipDirs); err != nil {
			return err
		}
	}

	if err := zipWriter.Close(); err != nil {
		return fmt.Errorf("failed to finalize zip writer for %s: %w", zipFilePath, err)
	}
	return zipFile.Close()
}

func addMediaTree(zipWriter *zip.Writer, root string, skipDirs []string) error {
	skip := make(map[string]bool, len(skipDirs))
	for _, dir := range skipDirs {
		skip[filepath.Clean(dir)] = true
	}

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == root {
				return nil
			}
			return err
		}
		if d.IsDir() {
			if skip[filepath.Clean(path)] {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		fileToZip, err := os.Open(path)
		if err != nil {
			slog.Warn("failed to open file for backup, skipping", "component", "backup", "path", path, "error", err)
			return nil
		}
		defer fileToZip.Close()

		writer, err := zipWriter.Create(BackupMediaPrefix + filepath.ToSlash(rel))
		if err != nil {
			return fmt.Errorf("failed to create zip entry for %s: %w", rel, err)
		}
		if _, err := io.Copy(writer, fileToZip); err != nil {
			return fmt.Errorf("failed to write %s to zip: %w", rel, err)
		}
		return nil
	})
}
