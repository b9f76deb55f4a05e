// Package timedelta parses and applies per-group clock corrections.
//
// A delta is written as [+|-]YYYYMMDD_HHMMSS. Years count as 365 days and
// months as 30 days; the remaining fields convert exactly. Apply uses calendar
// arithmetic so hour, day, month, and year rollovers fall out of time.Time.
package timedelta
