// Package logging configures structured JSON logging for perg.
//
// Logs go to stderr at warn level by default so they never mix with match
// output on stdout. --debug lowers the level and --log-file sends records
// to a size-rotated file instead.
package logging
