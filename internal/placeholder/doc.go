// Package placeholder defines the JSON sidecar that links the plan and
// transfer phases.
//
// A placeholder lives at staging/{kind}/{date}/{name}.json and mirrors the
// final destination of one media file. Its presence without a transfer_info
// section means the file has not been copied or moved yet; once
// transfer_info is present, a byte-identical copy exists at the recorded
// location.
//
// Writes go through a temp file and rename so an interrupted run never
// leaves a truncated record. Create refuses to overwrite; Replace is used
// for annotation and for explicit re-planning.
package placeholder
