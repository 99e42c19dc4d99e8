// Package clamd implements a client for the clamd INSTREAM scan protocol.
//
// # Protocol
//
// Each scan is one TCP transaction:
//
//	zINSTREAM\0                      command, sent first
//	<uint32 BE length><bytes>        one chunk per non-empty read (<= 2048 bytes)
//	\0\0\0\0                         zero-length terminator
//
// The daemon answers with a single line ending in OK, FOUND or ERROR and
// terminated by a NUL byte or by closing the connection:
//
//	stream: OK
//	stream: Eicar-Test-Signature FOUND
//	INSTREAM size limit exceeded. ERROR
//
// # Usage
//
//	client, err := clamd.NewClient(clamd.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	outcome, err := client.ScanFile(ctx, "/tmp/upload.bin")
//	switch {
//	case scanerr.IsConnection(err):
//	    // clamd not reachable
//	case err != nil:
//	    // timeout or protocol failure
//	case outcome.Infected:
//	    fmt.Println("found", outcome.SignatureName)
//	}
//
// Every call opens and closes its own connection. ScanAsync and
// ScanFileAsync run the same call on a bounded worker pool; Close drains
// that pool within Config.ShutdownGrace and force-closes what is left.
package clamd
