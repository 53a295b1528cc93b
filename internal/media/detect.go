package media

import (
	"path/filepath"
	"strings"
)

var stillExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
	".webp": true,
}

var videoExts = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".mkv":  true,
	".webm": true,
	".avi":  true,
	".m4v":  true,
}

// KindForExt returns the media kind for a file extension.
func KindForExt(ext string) (Kind, bool) {
	ext = strings.ToLower(ext)
	switch {
	case stillExts[ext]:
		return KindStill, true
	case videoExts[ext]:
		return KindVideo, true
	}
	return 0, false
}

// KindForPath returns the media kind for a file path.
func KindForPath(path string) (Kind, bool) {
	return KindForExt(filepath.Ext(path))
}

// IsSupportedExt returns true if the extension is a loadable image or video.
func IsSupportedExt(ext string) bool {
	_, ok := KindForExt(ext)
	return ok
}

// SupportedExtsList returns a human-readable list of supported formats.
func SupportedExtsList() string {
	return ".png, .jpg, .gif, .bmp, .tiff, .webp, .mp4, .mov, .mkv, .webm, .avi, .m4v"
}
