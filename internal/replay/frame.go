package replay

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/cory-johannsen/duelpanto/internal/game/combat"
)

const (
	frameHeaderSize = 8 + 8 + 4
	bodySize        = 1 + 1 + 4 + 8 + 8 + 8
)

// Body is one combatant's state inside a frame.
type Body struct {
	Kind   combat.Kind
	Active bool
	Health int
	X      float64
	Z      float64
	Yaw    float64
}

// Frame is a snapshot of every combatant at one simulation tick.
type Frame struct {
	Tick uint64
	// At is the simulated run time of the tick.
	At     time.Duration
	Bodies []Body
}

func bodyOf(c *combat.Combatant) Body {
	return Body{
		Kind:   c.Kind,
		Active: c.Active,
		Health: c.Health.Points(),
		X:      c.Position.X,
		Z:      c.Position.Z,
		Yaw:    c.Yaw,
	}
}

// appendFrame encodes f as a little-endian header followed by fixed-size bodies.
func appendFrame(buf []byte, f Frame) []byte {
	buf = binary.LittleEndian.AppendUint64(buf, f.Tick)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(f.At.Milliseconds()))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(f.Bodies)))
	for _, b := range f.Bodies {
		active := byte(0)
		if b.Active {
			active = 1
		}
		buf = append(buf, byte(b.Kind), active)
		buf = binary.LittleEndian.AppendUint32(buf, uint32(int32(b.Health)))
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(b.X))
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(b.Z))
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(b.Yaw))
	}
	return buf
}

// decodeFrames splits a decompressed frame stream back into frames.
func decodeFrames(data []byte) ([]Frame, error) {
	var frames []Frame
	offset := 0
	for offset < len(data) {
		if offset+frameHeaderSize > len(data) {
			return nil, fmt.Errorf("frame %d: header truncated", len(frames))
		}
		tick := binary.LittleEndian.Uint64(data[offset:])
		ms := int64(binary.LittleEndian.Uint64(data[offset+8:]))
		count := int(binary.LittleEndian.Uint32(data[offset+16:]))
		offset += frameHeaderSize
		if offset+count*bodySize > len(data) {
			return nil, fmt.Errorf("frame %d: bodies truncated", len(frames))
		}
		f := Frame{Tick: tick, At: time.Duration(ms) * time.Millisecond, Bodies: make([]Body, count)}
		for i := range f.Bodies {
			p := data[offset:]
			f.Bodies[i] = Body{
				Kind:   combat.Kind(p[0]),
				Active: p[1] == 1,
				Health: int(int32(binary.LittleEndian.Uint32(p[2:]))),
				X:      math.Float64frombits(binary.LittleEndian.Uint64(p[6:])),
				Z:      math.Float64frombits(binary.LittleEndian.Uint64(p[14:])),
				Yaw:    math.Float64frombits(binary.LittleEndian.Uint64(p[22:])),
			}
			offset += bodySize
		}
		frames = append(frames, f)
	}
	return frames, nil
}
