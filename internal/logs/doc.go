// Package logs reads curator's own log file for the "curator logs" command.
//
// Last returns the newest lines with bounded memory and Follow polls for
// appended lines until its context ends. Both accept a Filter so a single
// upload can be traced through either the console or the JSON log format.
package logs
