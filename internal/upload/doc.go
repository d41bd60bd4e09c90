// Package upload transfers capture parts to the backend. Each part is
// gzip-compressed into a spool file, paced by an optional bandwidth limit and
// sent in name order; the first part's response assigns the video id that
// later parts carry. Progress is journaled so an interrupted upload resumes
// from the first part the backend has not acknowledged. A file lock in the
// state directory keeps concurrent invocations from interleaving parts.
//
// DownloadVideo goes the other way, unpacking the stored parts of a submitted
// video so it can be previewed again.
package upload
