// Command curator inspects, previews and publishes AVI captures.
//
// Captures are parsed without loading the frame data; individual frames are
// range-read on demand for cropping, image export and animated previews.
// Footage is uploaded compressed to the curation server, and the server's
// video, room, strat and tech records can be listed and edited.
package main
