// Package replay records a duel series to disk and reads it back.
//
// A bundle is a directory holding manifest.json, a snappy-framed JSON lines
// log of series events and a zstd stream of binary combatant frames sampled
// at a fixed interval of simulated time.
package replay

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"

	"github.com/cory-johannsen/duelpanto/internal/game/combat"
	"github.com/cory-johannsen/duelpanto/internal/game/npc"
	"github.com/cory-johannsen/duelpanto/internal/game/session"
)

// ManifestVersion is the bundle layout version written by Recorder.
const ManifestVersion = 1

// DefaultFrameInterval is the frame spacing used when none is given.
const DefaultFrameInterval = 200 * time.Millisecond

const (
	manifestFile = "manifest.json"
	eventsFile   = "events.jsonl.sz"
	framesFile   = "frames.bin.zst"
)

// Event types written to the event log.
const (
	EventEncounterStarted = "encounter_started"
	EventEncounterEnded   = "encounter_ended"
	EventScoreChanged     = "score_changed"
	EventGameOver         = "game_over"
)

var runIDCleaner = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// ErrClosed is returned when writing to a closed Recorder.
var ErrClosed = errors.New("replay recorder closed")

// Manifest describes a bundle so readers can locate its parts.
type Manifest struct {
	Version         int    `json:"version"`
	RunID           string `json:"run_id"`
	CreatedAt       string `json:"created_at"`
	FrameIntervalMs int64  `json:"frame_interval_ms"`
	EventsPath      string `json:"events_path"`
	FramesPath      string `json:"frames_path"`
	// Events and Frames are filled in when the recorder closes.
	Events int `json:"events"`
	Frames int `json:"frames"`
}

type eventRecord struct {
	Tick        uint64          `json:"tick"`
	SimulatedMs int64           `json:"simulated_ms"`
	Type        string          `json:"type"`
	Payload     json.RawMessage `json:"payload"`
}

// EncounterStartedPayload is the payload of EventEncounterStarted.
type EncounterStartedPayload struct {
	EncounterID string `json:"encounter_id"`
	Level       int    `json:"level"`
	TierID      string `json:"tier_id"`
	Mode        string `json:"mode"`
}

// EncounterEndedPayload is the payload of EventEncounterEnded.
type EncounterEndedPayload struct {
	EncounterID     string `json:"encounter_id"`
	Level           int    `json:"level"`
	TierID          string `json:"tier_id"`
	PlayerWon       bool   `json:"player_won"`
	PlayerHealth    int    `json:"player_health"`
	AdversaryHealth int    `json:"adversary_health"`
	ElapsedMs       int64  `json:"elapsed_ms"`
	LevelScoreDelta int    `json:"level_score_delta"`
	GameScore       int    `json:"game_score"`
}

// ScoreChangedPayload is the payload of EventScoreChanged.
type ScoreChangedPayload struct {
	PlayerWins    int `json:"player_wins"`
	AdversaryWins int `json:"adversary_wins"`
}

// GameOverPayload is the payload of EventGameOver.
type GameOverPayload struct {
	GameScore     int   `json:"game_score"`
	TotalTimeMs   int64 `json:"total_time_ms"`
	PlayerWins    int   `json:"player_wins"`
	AdversaryWins int   `json:"adversary_wins"`
	Trophy        bool  `json:"trophy"`
	Submitted     bool  `json:"submitted"`
}

// Recorder streams a series to a replay bundle. It implements
// session.Observer; events are stamped with the position of the most recent
// Capture call.
//
// Recorder is safe for concurrent use.
type Recorder struct {
	mu       sync.Mutex
	dir      string
	interval time.Duration
	logger   *zap.Logger
	manifest Manifest

	eventFile   *os.File
	eventStream *snappy.Writer
	frameFile   *os.File
	frameStream *zstd.Encoder
	buf         []byte

	tick      uint64
	at        time.Duration
	lastFrame time.Duration
	framed    bool
	closed    bool
	err       error
}

var _ session.Observer = (*Recorder)(nil)

// NewRecorder creates a bundle directory named after runID and the creation
// time under root and opens its compressed sinks.
//
// Precondition: root must be non-empty; logger must be non-nil. A
// non-positive interval is replaced by DefaultFrameInterval and a nil clock
// by time.Now.
// Postcondition: manifest.json exists with zero counts, or an error is returned.
func NewRecorder(root, runID string, interval time.Duration, clock func() time.Time, logger *zap.Logger) (*Recorder, Manifest, error) {
	if logger == nil {
		panic("replay.NewRecorder: logger must not be nil")
	}
	if root == "" {
		return nil, Manifest{}, errors.New("replay root must be provided")
	}
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	if clock == nil {
		clock = time.Now
	}

	name := runIDCleaner.ReplaceAllString(runID, "")
	if name == "" {
		name = "run"
	}
	created := clock().UTC()
	dir := filepath.Join(root, fmt.Sprintf("%s-%s", name, created.Format("20060102T150405Z")))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, Manifest{}, fmt.Errorf("creating replay directory: %w", err)
	}

	eventFile, err := os.Create(filepath.Join(dir, eventsFile))
	if err != nil {
		return nil, Manifest{}, fmt.Errorf("creating event log: %w", err)
	}
	frameFile, err := os.Create(filepath.Join(dir, framesFile))
	if err != nil {
		eventFile.Close()
		return nil, Manifest{}, fmt.Errorf("creating frame stream: %w", err)
	}
	frameStream, err := zstd.NewWriter(frameFile)
	if err != nil {
		eventFile.Close()
		frameFile.Close()
		return nil, Manifest{}, fmt.Errorf("opening zstd encoder: %w", err)
	}

	r := &Recorder{
		dir:      dir,
		interval: interval,
		logger:   logger,
		manifest: Manifest{
			Version:         ManifestVersion,
			RunID:           runID,
			CreatedAt:       created.Format(time.RFC3339Nano),
			FrameIntervalMs: interval.Milliseconds(),
			EventsPath:      eventsFile,
			FramesPath:      framesFile,
		},
		eventFile:   eventFile,
		eventStream: snappy.NewBufferedWriter(eventFile),
		frameFile:   frameFile,
		frameStream: frameStream,
	}
	if err := r.writeManifest(); err != nil {
		r.closeStreams()
		return nil, Manifest{}, err
	}
	logger.Info("recording replay", zap.String("dir", dir), zap.Duration("frame_interval", interval))
	return r, r.manifest, nil
}

// Dir returns the bundle directory.
func (r *Recorder) Dir() string { return r.dir }

// Capture notes the current tick and writes a frame of combatants when at
// least one frame interval of simulated time has passed since the previous
// frame. The first call always writes a frame.
//
// Precondition: at is non-decreasing across calls.
func (r *Recorder) Capture(tick uint64, at time.Duration, combatants ...*combat.Combatant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	r.tick, r.at = tick, at
	if r.framed && at-r.lastFrame < r.interval {
		return nil
	}
	f := Frame{Tick: tick, At: at, Bodies: make([]Body, 0, len(combatants))}
	for _, c := range combatants {
		f.Bodies = append(f.Bodies, bodyOf(c))
	}
	r.buf = appendFrame(r.buf[:0], f)
	if _, err := r.frameStream.Write(r.buf); err != nil {
		return r.fail(fmt.Errorf("writing frame at tick %d: %w", tick, err))
	}
	r.framed = true
	r.lastFrame = at
	r.manifest.Frames++
	return nil
}

// Record appends one event with a JSON payload to the event log.
func (r *Recorder) Record(eventType string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding %s payload: %w", eventType, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	line, err := json.Marshal(eventRecord{
		Tick:        r.tick,
		SimulatedMs: r.at.Milliseconds(),
		Type:        eventType,
		Payload:     data,
	})
	if err != nil {
		return fmt.Errorf("encoding %s event: %w", eventType, err)
	}
	line = append(line, '\n')
	if _, err := r.eventStream.Write(line); err != nil {
		return r.fail(fmt.Errorf("writing %s event: %w", eventType, err))
	}
	if err := r.eventStream.Flush(); err != nil {
		return r.fail(fmt.Errorf("flushing event log: %w", err))
	}
	r.manifest.Events++
	return nil
}

func (r *Recorder) EncounterStarted(encounterID string, level int, tier npc.Tier) {
	r.observe(EventEncounterStarted, EncounterStartedPayload{
		EncounterID: encounterID,
		Level:       level,
		TierID:      tier.ID,
		Mode:        tier.Mode().String(),
	})
}

func (r *Recorder) EncounterEnded(s session.EncounterSummary) {
	r.observe(EventEncounterEnded, EncounterEndedPayload{
		EncounterID:     s.EncounterID,
		Level:           s.Level,
		TierID:          s.TierID,
		PlayerWon:       s.PlayerWon,
		PlayerHealth:    s.PlayerHealth,
		AdversaryHealth: s.AdversaryHealth,
		ElapsedMs:       s.Elapsed.Milliseconds(),
		LevelScoreDelta: s.LevelScoreDelta,
		GameScore:       s.GameScore,
	})
}

func (r *Recorder) ScoreChanged(playerWins, adversaryWins int) {
	r.observe(EventScoreChanged, ScoreChangedPayload{PlayerWins: playerWins, AdversaryWins: adversaryWins})
}

func (r *Recorder) GameOver(s session.GameSummary) {
	r.observe(EventGameOver, GameOverPayload{
		GameScore:     s.GameScore,
		TotalTimeMs:   s.TotalTime.Milliseconds(),
		PlayerWins:    s.PlayerWins,
		AdversaryWins: s.AdversaryWins,
		Trophy:        s.Trophy,
		Submitted:     s.Submitted,
	})
}

// observe records an observer event. Observer callbacks cannot fail, so a
// write error is logged and kept for Err and Close.
func (r *Recorder) observe(eventType string, payload any) {
	if err := r.Record(eventType, payload); err != nil {
		r.logger.Warn("replay event dropped", zap.String("type", eventType), zap.Error(err))
	}
}

// Err returns the first write error seen by the recorder.
func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Close flushes both streams, rewrites the manifest with final counts and
// releases the files. Closing twice is a no-op.
//
// Postcondition: Returns the first write or close error, if any.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true

	firstErr := r.err
	if err := r.closeStreams(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := r.writeManifest(); err != nil && firstErr == nil {
		firstErr = err
	}
	r.logger.Info("replay closed",
		zap.String("dir", r.dir),
		zap.Int("events", r.manifest.Events),
		zap.Int("frames", r.manifest.Frames),
	)
	return firstErr
}

// fail keeps the first error; callers must hold the mutex.
func (r *Recorder) fail(err error) error {
	if r.err == nil {
		r.err = err
	}
	return err
}

func (r *Recorder) closeStreams() error {
	var firstErr error
	for _, fn := range []func() error{
		r.eventStream.Close,
		r.eventFile.Close,
		r.frameStream.Close,
		r.frameFile.Close,
	} {
		if err := fn(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (r *Recorder) writeManifest() error {
	data, err := json.MarshalIndent(r.manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(r.dir, manifestFile), data, 0o644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}
