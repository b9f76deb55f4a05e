// Command footage organizes raw camera, phone and drone footage into a
// date-structured tree in two phases.
//
// "footage plan" scans the raw tree, resolves a local timestamp for every
// media file and writes a JSON placeholder per file under the staging root.
// "footage transfer" then copies or moves each planned file into the final
// tree, verifying size and checksum, and annotates its placeholder.
// "footage catalog" exports a CSV of video clips with editor group names and
// clip colors. Runs are journaled in a SQLite ledger queried by
// "footage history".
package main
