package media

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *FolderStore {
	t.Helper()
	root := t.TempDir()
	fs, err := NewFolderStore(filepath.Join(root, "media"), filepath.Join(root, "media", "recycle_bin"), 100)
	require.NoError(t, err)
	return fs
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, data, 0644))
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestFolderStore_RejectsUnsafeNames(t *testing.T) {
	fs := newTestStore(t)
	for _, name := range []string{"", ".", "..", "../x", "a/b", `a\b`, "recycle_bin"} {
		err := fs.Ensure(name)
		assert.ErrorIs(t, err, ErrUnsafeFolder, "folder %q", name)
	}
}

func TestFolderStore_Rename(t *testing.T) {
	fs := newTestStore(t)
	writeFile(t, filepath.Join(fs.Root(), "Old", "a.jpg"), []byte("a"))

	require.NoError(t, fs.Rename("Old", "New"))
	assert.NoDirExists(t, filepath.Join(fs.Root(), "Old"))
	assert.FileExists(t, filepath.Join(fs.Root(), "New", "a.jpg"))

	// missing source just ensures the target
	require.NoError(t, fs.Rename("Missing", "Fresh"))
	assert.DirExists(t, filepath.Join(fs.Root(), "Fresh"))
}

func TestFolderStore_RenameOntoExistingMerges(t *testing.T) {
	fs := newTestStore(t)
	writeFile(t, filepath.Join(fs.Root(), "B", "a.jpg"), []byte("from b"))
	writeFile(t, filepath.Join(fs.Root(), "B", "b.jpg"), []byte("b"))
	writeFile(t, filepath.Join(fs.Root(), "A", "a.jpg"), []byte("from a"))

	require.NoError(t, fs.Rename("B", "A"))

	assert.NoDirExists(t, filepath.Join(fs.Root(), "B"))
	kept, err := os.ReadFile(filepath.Join(fs.Root(), "A", "a.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "from a", string(kept))
	assert.FileExists(t, filepath.Join(fs.Root(), "A", "B_a.jpg"))
	assert.FileExists(t, filepath.Join(fs.Root(), "A", "b.jpg"))
}

func TestFolderStore_RecycleAndRemove(t *testing.T) {
	fs := newTestStore(t)
	writeFile(t, filepath.Join(fs.Root(), "Jane_Doe", "a.jpg"), []byte("a"))

	dest, err := fs.Recycle("Jane_Doe")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filepath.Base(dest), "Jane_Doe_"))
	assert.FileExists(t, filepath.Join(dest, "a.jpg"))
	assert.NoDirExists(t, filepath.Join(fs.Root(), "Jane_Doe"))

	dest, err = fs.Recycle("Jane_Doe")
	require.NoError(t, err)
	assert.Empty(t, dest)

	writeFile(t, filepath.Join(fs.Root(), "Other", "b.jpg"), []byte("b"))
	require.NoError(t, fs.Remove("Other"))
	assert.NoDirExists(t, filepath.Join(fs.Root(), "Other"))
	require.NoError(t, fs.Remove("Other"))
}

func TestFolderStore_ThumbnailPath(t *testing.T) {
	fs := newTestStore(t)
	_, ok := fs.ThumbnailPath("Nobody")
	assert.False(t, ok)

	writeFile(t, filepath.Join(fs.Root(), "P", "img10.jpg"), []byte("x"))
	writeFile(t, filepath.Join(fs.Root(), "P", "img2.jpg"), []byte("x"))
	writeFile(t, filepath.Join(fs.Root(), "P", "notes.txt"), []byte("x"))

	path, ok := fs.ThumbnailPath("P")
	require.True(t, ok)
	assert.Equal(t, "img2.jpg", filepath.Base(path))

	writeFile(t, filepath.Join(fs.Root(), "P", "Thumbnail.PNG"), []byte("x"))
	path, ok = fs.ThumbnailPath("P")
	require.True(t, ok)
	assert.Equal(t, "Thumbnail.PNG", filepath.Base(path))
}

func TestFolderStore_ListImagesNaturalOrder(t *testing.T) {
	fs := newTestStore(t)
	for _, name := range []string{"img10.png", "img2.png", "img1.png", "readme.md"} {
		writeFile(t, filepath.Join(fs.Root(), "P", name), pngBytes(t, 4, 3))
	}

	images, err := fs.ListImages("P")
	require.NoError(t, err)
	require.Len(t, images, 3)
	assert.Equal(t, "img1.png", images[0].Filename)
	assert.Equal(t, "img2.png", images[1].Filename)
	assert.Equal(t, "img10.png", images[2].Filename)
	assert.Equal(t, "P/img1.png", images[0].URL)
	require.NotNil(t, images[0].Metadata)
	assert.Equal(t, 4, *images[0].Metadata.Width)
	assert.Equal(t, 3, *images[0].Metadata.Height)

	_, err = fs.ListImages("Missing")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFolderStore_SaveThumbnail(t *testing.T) {
	fs := newTestStore(t)
	writeFile(t, filepath.Join(fs.Root(), "P", "thumbnail.png"), []byte("old"))

	rel, err := fs.SaveThumbnail("P", bytes.NewReader(pngBytes(t, 400, 200)))
	require.NoError(t, err)
	assert.Equal(t, "P/thumbnail.jpg", rel)
	assert.NoFileExists(t, filepath.Join(fs.Root(), "P", "thumbnail.png"))

	f, err := os.Open(filepath.Join(fs.Root(), "P", "thumbnail.jpg"))
	require.NoError(t, err)
	defer f.Close()
	cfg, format, err := image.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 100, cfg.Width)
	assert.Equal(t, 50, cfg.Height)

	_, err = fs.SaveThumbnail("P", strings.NewReader("not an image"))
	assert.ErrorIs(t, err, ErrInvalidImage)
}
