// Package migrator applies and reverts change-sets against the database.
//
// An Engine run is short-lived: it reads the ledger and the change-set files,
// and decides what to do from the set difference between the two. No state is
// kept between runs, so an interrupted Apply can simply be run again. Only the
// change-set that was executing when the run was interrupted is redone.
//
// Apply runs every pending forward file in ascending ID order, and stops at the
// first failure. Undo reverts at most one change-set per call: the newest
// applied one that has a reverse file.
//
// Runs are not coordinated across processes. Two concurrent runs against the
// same database can execute the same change-set twice.
package migrator
