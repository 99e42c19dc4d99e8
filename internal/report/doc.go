// Package report renders scan records for people and tools.
//
// This package contains writers for different output formats:
//   - SimpleWriter: human-readable text for the terminal
//   - JSONWriter: a JSON document with a summary and every record
//   - MarkdownWriter: GitHub-flavored Markdown with a results table
//
// Writers implement the Writer interface, so they can be used
// interchangeably and combined with MultiWriter.
package report
