// Package catalog builds the CSV consumed by the color-grading host's
// tagging script.
//
// Only video placeholders are catalogued. Each row carries the media file's
// path relative to the final root, a group name of the form
// {SOURCE}_{LOG|HDR|709} and a clip color. Color assignment is
// deterministic: configured families first, then pairs from the dynamic
// pool in sorted source order, then the fallback color.
package catalog
