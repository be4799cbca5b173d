package handlers

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"path/filepath"
)

// processImageFile stores a labeled photo under uploads/<session>/ as
// <label>-<md5 prefix><ext>, with the extension taken from the sniffed type,
// and reads its dimensions
func (h *Handler) processImageFile(sessionID string, fileData []byte, mimeType, label string) (*ImageProcessResult, error) {
	md5Hash := calculateDataMD5(fileData)
	imageFilename := fmt.Sprintf("%s-%s%s", label, md5Hash[:12], imageExtension(mimeType))

	sessionDir := filepath.Join(h.uploadsDir, sessionID)
	if err := os.MkdirAll(sessionDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create session upload directory: %w", err)
	}

	imageFilePath := filepath.Join(sessionDir, imageFilename)
	if err := os.WriteFile(imageFilePath, fileData, 0644); err != nil {
		return nil, fmt.Errorf("failed to save image: %w", err)
	}

	slog.Debug("Image saved", "session_id", sessionID, "filename", imageFilename, "label", label)

	width, height, err := getImageDimensions(imageFilePath)
	if err != nil {
		// webp and heic photos are still graded, they just have no dimensions
		slog.Warn("Failed to get image dimensions", "label", label, "error", err)
		width, height = 0, 0
	}

	return &ImageProcessResult{
		ImageFilename: sessionID + "/" + imageFilename,
		ImageFilePath: imageFilePath,
		ImageType:     label,
		Width:         width,
		Height:        height,
	}, nil
}

// imageExtensions maps sniffed image types to the extension uploads are
// saved with. The client's filename is never trusted.
var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"image/bmp":  ".bmp",
}

func imageExtension(mimeType string) string {
	if ext, ok := imageExtensions[mimeType]; ok {
		return ext
	}
	return ".img"
}

// discardUploads removes the photos saved for an intake that was not recorded
func (h *Handler) discardUploads(sessionID string) {
	if err := os.RemoveAll(filepath.Join(h.uploadsDir, sessionID)); err != nil {
		slog.Warn("Failed to remove uploads", "session_id", sessionID, "error", err)
	}
}

func calculateDataMD5(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

func getImageDimensions(imagePath string) (int, int, error) {
	file, err := os.Open(imagePath)
	if err != nil {
		return 0, 0, err
	}
	defer file.Close()

	img, _, err := image.DecodeConfig(file)
	if err != nil {
		return 0, 0, err
	}

	return img.Width, img.Height, nil
}
