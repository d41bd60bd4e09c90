// Package journal persists upload progress and the signed-in account in SQLite.
//
// Every multi-part upload gets a row keyed by a random upload key so an
// interrupted transfer can be inspected or resumed, and each part that reached
// the backend is recorded with its digest and sizes. The database lives in the
// configured state directory and uses WAL mode so the CLI can read it while an
// upload is running in another process.
package journal
