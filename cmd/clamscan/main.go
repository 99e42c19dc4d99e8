// Package main provides the entry point for the clamscan CLI.
//
// clamscan streams files to a clamd daemon with the INSTREAM command and
// reports the verdicts.
//
// Usage:
//
//	clamscan scan <file>...
//	clamscan dir <directory>
//
// See --help for all available options.
package main

func main() {
	Execute()
}
