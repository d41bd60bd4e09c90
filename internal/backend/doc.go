// Package backend is the HTTP client for the video curation server: account
// sign-in, multi-part capture upload, submission and editing of video
// metadata, and the room/node/strat/tech lookups the metadata refers to.
//
// Authenticated calls use HTTP basic auth with the account's username and
// token. Non-2xx responses surface as *StatusError.
package backend
