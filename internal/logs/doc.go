// Package logs reads the footage log file for the "footage logs" command:
// the last N lines, then optionally every line appended afterwards.
package logs
