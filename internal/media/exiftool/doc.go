// Package exiftool reads capture timestamps from image and video files.
//
// Client keeps one exiftool process open for a run (github.com/barasher/go-exiftool)
// and looks up capture tags in priority order. When exiftool is missing or
// returns nothing, NativeCaptureTime decodes EXIF directly with
// github.com/rwcarlsen/goexif. Both return naive wall-clock times: the
// components are meaningful, the location is not.
package exiftool
