// Package fileutil holds the filesystem primitives shared by planning and
// transfer: atomic small-file writes, verified copies and cross-device aware
// moves.
package fileutil
