// Package model defines the value types shared by the clamd client, the
// directory scanner and the report writers.
//
// This package contains the following main types:
//   - ScanOutcome: the parsed result of one INSTREAM transaction
//   - FileScanRecord: a ScanOutcome bound to a file name and content digest
//   - Summary: counts derived from a list of FileScanRecords
//
// All types are plain values. Constructors establish the invariants and
// nothing in this module mutates a value after it has been built.
package model
