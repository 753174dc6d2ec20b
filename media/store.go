package media

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/facette/natsort"
)

const thumbnailBaseName = "thumbnail"

// ErrUnsafeFolder is returned for folder names that would escape the media root.
var ErrUnsafeFolder = errors.New("unsafe media folder name")

// Store manages the per-profile media folders under the media root.
type Store interface {
	// Ensure creates folder if it does not exist
	Ensure(folder string) error
	// Rename moves oldFolder to newFolder, merging when newFolder already exists
	Rename(oldFolder, newFolder string) error
	// MergeInto moves every file of src into dst and removes src
	MergeInto(src, dst string) error
	// Recycle moves folder into the recycle bin and returns the new location
	Recycle(folder string) (string, error)
	// Remove deletes folder and its contents
	Remove(folder string) error
	// ThumbnailPath returns the absolute path of the folder's thumbnail
	ThumbnailPath(folder string) (string, bool)
	// ListImages returns the folder's images in natural order
	ListImages(folder string) ([]GalleryImage, error)
	// SaveThumbnail stores data as the folder's thumbnail.jpg
	SaveThumbnail(folder string, data io.Reader) (string, error)
	// Root is the absolute media root
	Root() string
}

// FolderStore implements Store on the local filesystem.
type FolderStore struct {
	basePath         string // absolute MEDIA_ROOT
	recycleBin       string // absolute RECYCLE_BIN
	thumbnailMaxSize int    // longest side of stored thumbnails, 0 keeps the upload size
	log              *slog.Logger
}

// NewFolderStore creates the media root and recycle bin if needed.
func NewFolderStore(basePath, recycleBin string, thumbnailMaxSize int) (*FolderStore, error) {
	absBasePath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("invalid media root '%s': %w", basePath, err)
	}
	absRecycle, err := filepath.Abs(recycleBin)
	if err != nil {
		return nil, fmt.Errorf("invalid recycle bin '%s': %w", recycleBin, err)
	}
	for _, dir := range []string{absBasePath, absRecycle} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create media directory '%s': %w", dir, err)
		}
	}

	log := slog.Default().With("component", "media")
	log.Info("initialized media store", "root", absBasePath, "recycle_bin", absRecycle)
	return &FolderStore{
		basePath:         absBasePath,
		recycleBin:       absRecycle,
		thumbnailMaxSize: thumbnailMaxSize,
		log:              log,
	}, nil
}

func (fs *FolderStore) Root() string { return fs.basePath }

// folderPath resolves folder under the media root and performs the
// security check. The recycle bin itself is not addressable.
func (fs *FolderStore) folderPath(folder string) (string, error) {
	if folder == "" || strings.ContainsAny(folder, `/\`+"\x00") || folder == "." || folder == ".." {
		return "", fmt.Errorf("%w: '%s'", ErrUnsafeFolder, folder)
	}
	fullPath := filepath.Join(fs.basePath, folder)
	if !strings.HasPrefix(fullPath, fs.basePath+string(os.PathSeparator)) || fullPath == fs.recycleBin {
		return "", fmt.Errorf("%w: '%s'", ErrUnsafeFolder, folder)
	}
	return fullPath, nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func (fs *FolderStore) Ensure(folder string) error {
	dir, err := fs.folderPath(folder)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to ensure folder '%s': %w", folder, err)
	}
	return nil
}

func (fs *FolderStore) Rename(oldFolder, newFolder string) error {
	if oldFolder == newFolder {
		return fs.Ensure(newFolder)
	}
	oldPath, err := fs.folderPath(oldFolder)
	if err != nil {
		return err
	}
	newPath, err := fs.folderPath(newFolder)
	if err != nil {
		return err
	}
	if !isDir(oldPath) {
		return fs.Ensure(newFolder)
	}
	if isDir(newPath) {
		return fs.MergeInto(oldFolder, newFolder)
	}
	if err := os.Rename(oldPath, newPath); err != nil {
		return fmt.Errorf("failed to rename folder '%s' to '%s': %w", oldFolder, newFolder, err)
	}
	fs.log.Info("renamed media folder", "from", oldFolder, "to", newFolder)
	return nil
}

func (fs *FolderStore) MergeInto(src, dst string) error {
	if src == dst {
		return nil
	}
	srcPath, err := fs.folderPath(src)
	if err != nil {
		return err
	}
	dstPath, err := fs.folderPath(dst)
	if err != nil {
		return err
	}
	if !isDir(srcPath) {
		return nil
	}
	if err := os.MkdirAll(dstPath, 0755); err != nil {
		return fmt.Errorf("failed to create folder '%s': %w", dst, err)
	}

	entries, err := os.ReadDir(srcPath)
	if err != nil {
		return fmt.Errorf("failed to read folder '%s': %w", src, err)
	}
	for _, entry := range entries {
		target := filepath.Join(dstPath, entry.Name())
		if _, err := os.Lstat(target); err == nil {
			// name clash, keep both
			target = filepath.Join(dstPath, src+"_"+entry.Name())
		}
		if err := os.Rename(filepath.Join(srcPath, entry.Name()), target); err != nil {
			return fmt.Errorf("failed to move '%s' into '%s': %w", entry.Name(), dst, err)
		}
	}
	if err := os.Remove(srcPath); err != nil {
		return fmt.Errorf("failed to remove merged folder '%s': %w", src, err)
	}
	fs.log.Info("merged media folder", "from", src, "into", dst, "entries", len(entries))
	return nil
}

func (fs *FolderStore) Recycle(folder string) (string, error) {
	srcPath, err := fs.folderPath(folder)
	if err != nil {
		return "", err
	}
	if !isDir(srcPath) {
		return "", nil
	}
	dest := filepath.Join(fs.recycleBin, fmt.Sprintf("%s_%d", folder, time.Now().Unix()))
	if err := os.MkdirAll(fs.recycleBin, 0755); err != nil {
		return "", fmt.Errorf("failed to create recycle bin: %w", err)
	}
	if err := os.Rename(srcPath, dest); err != nil {
		return "", fmt.Errorf("failed to recycle folder '%s': %w", folder, err)
	}
	fs.log.Info("recycled media folder", "folder", folder, "dest", dest)
	return dest, nil
}

func (fs *FolderStore) Remove(folder string) error {
	dir, err := fs.folderPath(folder)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to remove folder '%s': %w", folder, err)
	}
	fs.log.Info("removed media folder", "folder", folder)
	return nil
}

// ThumbnailPath prefers a thumbnail.* file and otherwise falls back to the
// first image in natural order.
func (fs *FolderStore) ThumbnailPath(folder string) (string, bool) {
	dir, err := fs.folderPath(folder)
	if err != nil {
		return "", false
	}
	names, err := imageNames(dir)
	if err != nil || len(names) == 0 {
		return "", false
	}
	for _, name := range names {
		if isThumbnailFile(name) {
			return filepath.Join(dir, name), true
		}
	}
	return filepath.Join(dir, names[0]), true
}

func imageNames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && IsRasterImage(entry.Name()) {
			names = append(names, entry.Name())
		}
	}
	natsort.Sort(names)
	return names, nil
}

func (fs *FolderStore) ListImages(folder string) ([]GalleryImage, error) {
	dir, err := fs.folderPath(folder)
	if err != nil {
		return nil, err
	}
	names, err := imageNames(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("folder '%s' not found: %w", folder, err)
		}
		return nil, fmt.Errorf("failed to read folder '%s': %w", folder, err)
	}

	images := make([]GalleryImage, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		img := GalleryImage{Filename: name, URL: folder + "/" + name}
		if info, err := os.Stat(path); err == nil {
			img.Size = info.Size()
		}
		if meta, err := ReadMetadata(path); err == nil {
			img.Metadata = meta
		} else {
			fs.log.Warn("failed to read image metadata", "path", path, "error", err)
		}
		images = append(images, img)
	}
	return images, nil
}

// save writes data to folder/filename, creating the folder. Returns the path
// relative to the media root.
func (fs *FolderStore) save(folder, filename string, data io.Reader) (string, error) {
	if err := fs.Ensure(folder); err != nil {
		return "", err
	}
	dir, _ := fs.folderPath(folder)
	fullSavePath := filepath.Join(dir, filename)
	tmpPath := fullSavePath + ".tmp"

	outFile, err := os.Create(tmpPath)
	if err != nil {
		return "", fmt.Errorf("failed to create destination file '%s': %w", tmpPath, err)
	}
	if _, err := io.Copy(outFile, data); err != nil {
		outFile.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to write data to '%s': %w", fullSavePath, err)
	}
	if err := outFile.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to close '%s': %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, fullSavePath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to move '%s' into place: %w", fullSavePath, err)
	}
	return folder + "/" + filename, nil
}

// removeOtherThumbnails deletes thumbnail.* files other than keep, so the
// freshly saved one is the one ThumbnailPath finds.
func (fs *FolderStore) removeOtherThumbnails(folder, keep string) {
	dir, err := fs.folderPath(folder)
	if err != nil {
		return
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if entry.Name() != keep && !entry.IsDir() && isThumbnailFile(entry.Name()) {
			if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil {
				fs.log.Warn("failed to remove stale thumbnail", "folder", folder, "file", entry.Name(), "error", err)
			}
		}
	}
}
