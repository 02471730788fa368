package main

import (
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"bitbucket.org/mmdatafocus/exhibition_backend/config"
	"bitbucket.org/mmdatafocus/exhibition_backend/utils"
	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"
)

const maxUploadSizeBytes int64 = 5 * 1024 * 1024

const thumbnailWidth = 320

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

func uploadDir() string {
	dir := strings.TrimSpace(os.Getenv("UPLOAD_DIR"))
	if dir == "" {
		dir = "./uploads"
	}
	return dir
}

// saveProductImage stores the uploaded image plus a fixed-width thumbnail on
// local disk and returns the public URL path of the full-size image. The
// thumbnail sits next to it with a _thumb suffix.
func saveProductImage(logger *logrus.Logger, file *multipart.FileHeader) (string, error) {

	if file.Size > maxUploadSizeBytes {
		return "", utils.ValidationError("image exceeds the 5MB size limit")
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !imageExtensions[ext] {
		return "", utils.ValidationError("only jpg and png images are supported")
	}

	dir := uploadDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		config.LogError(logger, "uploads.go", "saveProductImage", "MkdirAll", dir, err)
		return "", err
	}

	src, err := file.Open()
	if err != nil {
		config.LogError(logger, "uploads.go", "saveProductImage", "Open", file.Filename, err)
		return "", err
	}
	defer src.Close()

	img, err := imaging.Decode(src, imaging.AutoOrientation(true))
	if err != nil {
		return "", utils.ValidationError("uploaded file is not a valid image")
	}

	name := utils.GenerateUniqueFilename()
	fullPath := filepath.Join(dir, name+ext)
	thumbPath := filepath.Join(dir, name+"_thumb"+ext)

	if err := imaging.Save(img, fullPath); err != nil {
		config.LogError(logger, "uploads.go", "saveProductImage", "SaveFull", fullPath, err)
		return "", err
	}

	thumb := imaging.Resize(img, thumbnailWidth, 0, imaging.Lanczos)
	if err := imaging.Save(thumb, thumbPath); err != nil {
		// Full image is already on disk; a missing thumbnail is tolerable.
		config.LogError(logger, "uploads.go", "saveProductImage", "SaveThumb", thumbPath, err)
	}

	return "/uploads/" + name + ext, nil
}
