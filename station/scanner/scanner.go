// Package scanner wraps a barcode/QR scanner device that presents as a
// line-oriented stream of decoded payloads. One Start yields at most one
// decode; the device is released as soon as it fires, on Stop, and on every
// error path.
package scanner

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

var (
	// ErrPermissionDenied: the platform refused access to the scanner
	// device. Surfaced separately so the UI can offer a retry affordance.
	ErrPermissionDenied = errors.New("scanner: device permission denied")
	// ErrAlreadyRunning: Start was called while a scan is in flight.
	ErrAlreadyRunning = errors.New("scanner: already running")
)

type Decode struct {
	Text string
	At   time.Time
}

// DeviceOpener yields a fresh decode stream per scan.
type DeviceOpener func() (io.ReadCloser, error)

// Device opens the scanner's character device, e.g. /dev/ttyACM0 for a
// serial-mode USB scanner.
func Device(path string) DeviceOpener {
	return func() (io.ReadCloser, error) {
		f, err := os.Open(path)
		if err != nil {
			if os.IsPermission(err) {
				return nil, fmt.Errorf("%w: %v", ErrPermissionDenied, err)
			}
			return nil, err
		}
		return f, nil
	}
}

type Scanner struct {
	open DeviceOpener

	mu       sync.Mutex
	dev      io.ReadCloser
	running  bool
	stopping bool

	decodes chan Decode
	errs    chan error
}

func New(open DeviceOpener) *Scanner {
	return &Scanner{
		open:    open,
		decodes: make(chan Decode, 1),
		errs:    make(chan error, 1),
	}
}

// Decodes delivers at most one event per Start.
func (s *Scanner) Decodes() <-chan Decode { return s.decodes }

// Errors delivers read failures that happen while a scan is in flight. A
// stream that ends before any decode surfaces io.EOF, so the caller can
// reopen the device instead of waiting forever.
func (s *Scanner) Errors() <-chan error { return s.errs }

// Start acquires the device and reads until the first non-empty decode.
// A permission refusal is returned synchronously as ErrPermissionDenied.
func (s *Scanner) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}
	s.running = true
	s.stopping = false
	s.mu.Unlock()

	dev, err := s.open()
	if err != nil {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	s.dev = dev
	s.mu.Unlock()

	go s.readLoop(dev)
	return nil
}

// Stop releases the device. Safe to call at any time, including after a
// decode already released it.
func (s *Scanner) Stop() {
	s.mu.Lock()
	dev := s.dev
	s.dev = nil
	s.stopping = true
	s.running = false
	s.mu.Unlock()

	if dev != nil {
		dev.Close()
	}
}

// readLoop releases the device before emitting, so a consumer reacting to
// the event may immediately Start again.
func (s *Scanner) readLoop(dev io.ReadCloser) {
	r := bufio.NewScanner(dev)
	for r.Scan() {
		text := strings.TrimSpace(r.Text())
		if text == "" {
			continue
		}
		s.release(dev)
		s.decodes <- Decode{Text: text, At: time.Now()}
		return
	}

	err := r.Err()
	s.release(dev)
	if s.isStopping() {
		return
	}
	if err != nil {
		s.errs <- err
		return
	}
	// clean end of stream with no decode
	s.errs <- io.EOF
}

func (s *Scanner) release(dev io.ReadCloser) {
	s.mu.Lock()
	if s.dev == dev {
		s.dev = nil
	}
	s.running = false
	s.mu.Unlock()

	dev.Close()
}

func (s *Scanner) isStopping() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopping
}
