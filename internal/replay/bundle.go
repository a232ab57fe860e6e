package replay

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
)

// Event is one decoded entry of the event log.
type Event struct {
	Tick uint64
	// At is the simulated run time the event was stamped with.
	At      time.Duration
	Type    string
	Payload json.RawMessage
}

// Decode unmarshals the payload into v.
func (e Event) Decode(v any) error {
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("decoding %s payload: %w", e.Type, err)
	}
	return nil
}

// Bundle is a fully loaded replay.
type Bundle struct {
	Dir      string
	Manifest Manifest
	Events   []Event
	Frames   []Frame
}

// Load reads the bundle at path, which is either the bundle directory or its
// manifest file.
//
// Postcondition: Returns the decoded bundle or an error naming the part that
// failed.
func Load(path string) (Bundle, error) {
	if path == "" {
		return Bundle{}, fmt.Errorf("replay path is required")
	}
	info, err := os.Stat(path)
	if err != nil {
		return Bundle{}, err
	}
	manifestPath := path
	if info.IsDir() {
		manifestPath = filepath.Join(path, manifestFile)
	}
	dir := filepath.Dir(manifestPath)

	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return Bundle{}, fmt.Errorf("reading manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Bundle{}, fmt.Errorf("parsing manifest: %w", err)
	}
	if m.Version != ManifestVersion {
		return Bundle{}, fmt.Errorf("unsupported manifest version %d", m.Version)
	}

	events, err := loadEvents(filepath.Join(dir, m.EventsPath))
	if err != nil {
		return Bundle{}, fmt.Errorf("loading events: %w", err)
	}
	frames, err := loadFrames(filepath.Join(dir, m.FramesPath))
	if err != nil {
		return Bundle{}, fmt.Errorf("loading frames: %w", err)
	}
	return Bundle{Dir: dir, Manifest: m, Events: events, Frames: frames}, nil
}

func loadEvents(path string) ([]Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(snappy.NewReader(f))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	var events []Event
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var rec eventRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("event %d: %w", len(events), err)
		}
		events = append(events, Event{
			Tick:    rec.Tick,
			At:      time.Duration(rec.SimulatedMs) * time.Millisecond,
			Type:    rec.Type,
			Payload: rec.Payload,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

func loadFrames(path string) ([]Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	data, err := io.ReadAll(dec)
	if err != nil {
		return nil, err
	}
	return decodeFrames(data)
}

// Last returns the final frame, if any.
func (b Bundle) Last() (Frame, bool) {
	if len(b.Frames) == 0 {
		return Frame{}, false
	}
	return b.Frames[len(b.Frames)-1], true
}

// Count returns the number of events of type eventType.
func (b Bundle) Count(eventType string) int {
	n := 0
	for _, e := range b.Events {
		if e.Type == eventType {
			n++
		}
	}
	return n
}
