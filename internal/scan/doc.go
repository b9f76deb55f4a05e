// Package scan performs the single read-only walk of the raw tree that feeds
// the planner. It applies the extension allow-lists, the kind filters and
// the stabilized-variant preference, and reports everything it leaves out.
package scan
