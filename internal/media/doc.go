// Package media holds the value types shared by the scan, plan, transfer and
// catalog steps: file kinds, group classification, stabilized-variant naming,
// and the color profile tag derived from technical metadata.
//
// Classify is a pure function over paths; nothing in this package touches the
// filesystem except NewFile, which stats a discovered file once.
package media
