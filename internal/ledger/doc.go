// Package ledger keeps a SQLite journal of plan, transfer and catalog runs.
//
// Placeholders remain the source of truth for what has been planned and
// transferred; the ledger only records history so the "footage history"
// command can answer what a past run did to a given file. Schema changes
// ship as embedded migrations applied in a single transaction on Open.
package ledger
