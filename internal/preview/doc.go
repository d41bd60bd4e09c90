// Package preview drives the thumbnail and highlight previews of a loaded
// capture.
//
// A Session owns the current frame table and replaces it wholesale on every
// load. Each frame read is tagged with the table generation it started under
// and its result is dropped if a newer table has been installed in the
// meantime, so a slow read never paints a frame from a previous capture.
// The Animator cycles the thumbnail through the highlight range on a fixed
// tick and skips ticks while a read is still in flight.
package preview
