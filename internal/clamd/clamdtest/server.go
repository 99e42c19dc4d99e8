// Package clamdtest provides a fake clamd daemon for tests.
package clamdtest

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"net"
	"strconv"
	"sync"
	"testing"
	"time"
)

// Request is what the fake daemon received on one connection.
type Request struct {
	// Command is the NUL-terminated command, without the NUL.
	Command string

	// ChunkSizes lists the length prefix of every data chunk, in order.
	ChunkSizes []int

	// Payload is the concatenated chunk data.
	Payload []byte

	// Terminated reports whether the zero-length terminator arrived.
	Terminated bool
}

// Handler returns the raw bytes to send back for a request. A nil return
// keeps the connection open without answering until the server is closed.
type Handler func(req Request) []byte

// Reply returns a handler that answers every INSTREAM request with line
// followed by a NUL byte, and PING with PONG.
func Reply(line string) Handler {
	return func(req Request) []byte {
		if req.Command == "zPING" {
			return []byte("PONG\x00")
		}
		return []byte(line + "\x00")
	}
}

// Clean answers every scan with "stream: OK".
func Clean() Handler {
	return Reply("stream: OK")
}

// Infected answers every scan with a FOUND line for signature.
func Infected(signature string) Handler {
	return Reply("stream: " + signature + " FOUND")
}

// Hang never answers.
func Hang() Handler {
	return func(Request) []byte { return nil }
}

// Server is a fake clamd daemon listening on a loopback TCP port.
type Server struct {
	ln      net.Listener
	handler Handler

	mu       sync.Mutex
	requests []Request
	conns    map[net.Conn]struct{}

	done chan struct{}
	wg   sync.WaitGroup
}

// NewServer starts a fake daemon and registers its shutdown with t.Cleanup.
func NewServer(t testing.TB, handler Handler) *Server {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}

	s := &Server{
		ln:      ln,
		handler: handler,
		conns:   make(map[net.Conn]struct{}),
		done:    make(chan struct{}),
	}

	s.wg.Add(1)
	go s.serve()

	t.Cleanup(s.Close)
	return s
}

// Host returns the listening IP address.
func (s *Server) Host() string {
	return s.ln.Addr().(*net.TCPAddr).IP.String()
}

// Port returns the listening port.
func (s *Server) Port() int {
	return s.ln.Addr().(*net.TCPAddr).Port
}

// Addr returns host:port.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.Host(), strconv.Itoa(s.Port()))
}

// Requests returns a copy of the requests received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// Close stops the listener, drops open connections and waits for handlers.
func (s *Server) Close() {
	select {
	case <-s.done:
		return
	default:
	}
	close(s.done)
	_ = s.ln.Close()

	s.mu.Lock()
	for c := range s.conns {
		_ = c.Close()
	}
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *Server) serve() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.mu.Lock()
		s.conns[conn] = struct{}{}
		s.mu.Unlock()

		s.wg.Add(1)
		go s.handle(conn)
	}
}

func (s *Server) handle(conn net.Conn) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		_ = conn.Close()
	}()

	req, err := readRequest(bufio.NewReader(conn))
	if err != nil && !errors.Is(err, io.EOF) {
		return
	}

	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()

	reply := s.handler(req)
	if reply == nil {
		<-s.done
		return
	}
	_, _ = conn.Write(reply)
}

func readRequest(r *bufio.Reader) (Request, error) {
	var req Request

	cmd, err := r.ReadBytes(0)
	if err != nil {
		return req, err
	}
	req.Command = string(bytes.TrimSuffix(cmd, []byte{0}))
	if req.Command != "zINSTREAM" {
		return req, nil
	}

	var prefix [4]byte
	for {
		if _, err := io.ReadFull(r, prefix[:]); err != nil {
			return req, err
		}
		n := binary.BigEndian.Uint32(prefix[:])
		if n == 0 {
			req.Terminated = true
			return req, nil
		}
		chunk := make([]byte, n)
		if _, err := io.ReadFull(r, chunk); err != nil {
			return req, err
		}
		req.ChunkSizes = append(req.ChunkSizes, int(n))
		req.Payload = append(req.Payload, chunk...)
	}
}

// UnusedPort returns a loopback port with nothing listening on it.
func UnusedPort(t testing.TB) int {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	if err := ln.Close(); err != nil {
		t.Fatalf("failed to close listener: %v", err)
	}
	return port
}

// WaitForRequests polls until n requests were received or timeout elapses.
func (s *Server) WaitForRequests(n int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if len(s.Requests()) >= n {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return len(s.Requests()) >= n
}
