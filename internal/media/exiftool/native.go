package exiftool

import (
	"fmt"
	"os"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

var nativeFields = []exif.FieldName{exif.DateTimeOriginal, exif.DateTimeDigitized}

// NativeCaptureTime decodes EXIF in-process. It covers JPEG and TIFF based
// formats (including most camera raw files) without exiftool installed.
func NativeCaptureTime(path string) (time.Time, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return time.Time{}, "", err
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("decode exif %s: %w", path, err)
	}
	for _, field := range nativeFields {
		tag, err := x.Get(field)
		if err != nil {
			continue
		}
		value, err := tag.StringVal()
		if err != nil {
			continue
		}
		if parsed, ok := ParseTimestamp(value); ok {
			return parsed, "EXIF:" + string(field), nil
		}
	}
	return time.Time{}, "", ErrNoCaptureTime
}
