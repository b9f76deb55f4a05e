// Package timestamp resolves one authoritative local capture time per file.
//
// Candidates are tried in a fixed order: zoned drone video metadata (the only
// candidate converted between zones), the drone photo mtime override, image
// capture tags, a date embedded in the file name, and finally the file
// modification time. The group's clock adjustment is applied to the winner.
// Every candidate tried is recorded in the Resolution trail so placeholders
// explain themselves without re-running external tools.
package timestamp
