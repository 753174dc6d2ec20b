package media

import (
	"errors"
	"fmt"
	"image"
	"io"
	"math"

	"github.com/disintegration/imaging"
)

// ErrInvalidImage is returned when an upload cannot be decoded as an image.
var ErrInvalidImage = errors.New("invalid image")

const (
	ThumbnailJpegQuality = 90
	ThumbnailFileName    = thumbnailBaseName + ".jpg"
)

// fitLongestSide scales img so its longest side is at most maxSize. Smaller
// images are returned unchanged.
func fitLongestSide(img image.Image, maxSize int) (image.Image, error) {
	origBounds := img.Bounds()
	origWidth := origBounds.Dx()
	origHeight := origBounds.Dy()
	if origWidth <= 0 || origHeight <= 0 {
		return nil, fmt.Errorf("invalid original image dimensions: %dx%d", origWidth, origHeight)
	}
	if maxSize <= 0 || (origWidth <= maxSize && origHeight <= maxSize) {
		return img, nil
	}

	var newWidth, newHeight int
	if origWidth > origHeight {
		newWidth = maxSize
		newHeight = int(math.Round(float64(origHeight) * (float64(maxSize) / float64(origWidth))))
	} else {
		newHeight = maxSize
		newWidth = int(math.Round(float64(origWidth) * (float64(maxSize) / float64(origHeight))))
	}
	newWidth = max(1, newWidth)
	newHeight = max(1, newHeight)

	return imaging.Resize(img, newWidth, newHeight, imaging.Lanczos), nil
}

// SaveThumbnail decodes an uploaded image, scales it down and stores it as
// the folder's thumbnail.jpg. Returns the path relative to the media root.
func (fs *FolderStore) SaveThumbnail(folder string, data io.Reader) (string, error) {
	img, format, err := image.Decode(data)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	thumb, err := fitLongestSide(img, fs.thumbnailMaxSize)
	if err != nil {
		return "", err
	}

	reader, writer := io.Pipe()
	go func() {
		err := imaging.Encode(writer, thumb, imaging.JPEG, imaging.JPEGQuality(ThumbnailJpegQuality))
		if err != nil {
			fs.log.Error("failed to encode thumbnail", "folder", folder, "error", err)
			writer.CloseWithError(fmt.Errorf("thumbnail encoding failed: %w", err))
			return
		}
		writer.Close()
	}()

	savedRelPath, err := fs.save(folder, ThumbnailFileName, reader)
	// unblock the encoder if save bailed out early
	reader.Close()
	if err != nil {
		return "", fmt.Errorf("failed to save thumbnail: %w", err)
	}
	fs.removeOtherThumbnails(folder, ThumbnailFileName)

	fs.log.Info("saved thumbnail", "folder", folder, "format", format, "path", savedRelPath)
	return savedRelPath, nil
}
