package tracker

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// ErrMalformedRecord is returned for replay lines that cannot be decoded.
var ErrMalformedRecord = errors.New("malformed replay record")

// Record is one line of a replay file. Lines with an activation value are
// activation reports; all others are position samples.
type Record struct {
	Sensor     int       `json:"sensor"`
	Pos        []float64 `json:"pos,omitempty"`
	Activation *float64  `json:"activation,omitempty"`
	TimeMS     int64     `json:"t_ms"`
}

// ReplayOption configures a ReplayTracker.
type ReplayOption func(*ReplayTracker)

// WithClock sets the time source used for pacing and timestamps.
func WithClock(now func() time.Time) ReplayOption {
	return func(r *ReplayTracker) { r.now = now }
}

// WithoutPacing delivers every record on the first Update, timestamped as if
// it had been paced.
func WithoutPacing() ReplayOption {
	return func(r *ReplayTracker) { r.paced = false }
}

// ReplayTracker plays back a JSON-lines recording. Record times are offsets
// in milliseconds; playback is paced against the clock so converter timing
// behaves as it would live.
type ReplayTracker struct {
	path  string
	src   io.Reader
	now   func() time.Time
	paced bool

	mu      sync.Mutex
	closer  io.Closer
	scanner *bufio.Scanner
	line    int
	running bool
	start   time.Time
	base    int64
	started bool
	next    *Record
	done    bool
}

// NewReplayTracker replays the file at path; "-" reads standard input.
func NewReplayTracker(path string, opts ...ReplayOption) *ReplayTracker {
	r := &ReplayTracker{path: path, now: time.Now, paced: true}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewReplayReader replays records from an open reader.
func NewReplayReader(src io.Reader, opts ...ReplayOption) *ReplayTracker {
	r := NewReplayTracker("", opts...)
	r.src = src
	return r
}

func (r *ReplayTracker) Open() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return nil
	}

	src := r.src
	switch {
	case src != nil:
	case r.path == "-":
		src = os.Stdin
	default:
		f, err := os.Open(r.path)
		if err != nil {
			return fmt.Errorf("open replay: %w", err)
		}
		r.closer = f
		src = f
	}

	r.scanner = bufio.NewScanner(src)
	r.running = true
	return nil
}

func (r *ReplayTracker) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.running = false
	if r.closer != nil {
		err := r.closer.Close()
		r.closer = nil
		return err
	}
	return nil
}

func (r *ReplayTracker) IsOpen() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Update delivers every record that is due. A malformed line is reported
// once and skipped; the following Update resumes after it.
func (r *ReplayTracker) Update(ctx context.Context, h Handler) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running {
		return ErrNotOpen
	}

	now := r.now()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if r.next == nil {
			if r.done {
				return io.EOF
			}
			rec, err := r.readRecord()
			if errors.Is(err, io.EOF) {
				r.done = true
				return io.EOF
			}
			if err != nil {
				return err
			}
			if !r.started {
				r.start = now
				r.base = rec.TimeMS
				r.started = true
			}
			r.next = rec
		}

		at := r.start.Add(time.Duration(r.next.TimeMS-r.base) * time.Millisecond)
		if r.paced && at.After(now) {
			return nil
		}

		rec := r.next
		r.next = nil
		deliver(rec, at, h)
	}
}

func (r *ReplayTracker) readRecord() (*Record, error) {
	for r.scanner.Scan() {
		r.line++
		text := r.scanner.Bytes()
		if len(text) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(text, &rec); err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedRecord, r.line, err)
		}
		if rec.Activation == nil && len(rec.Pos) != 3 {
			return nil, fmt.Errorf("%w: line %d: pos needs 3 coordinates", ErrMalformedRecord, r.line)
		}
		return &rec, nil
	}
	if err := r.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

func deliver(rec *Record, at time.Time, h Handler) {
	if rec.Activation != nil {
		h.HandleActivation(Activation{Sensor: rec.Sensor, Value: *rec.Activation, Time: at})
		return
	}
	h.HandleSample(Sample{
		Sensor:   rec.Sensor,
		Position: Vec3{rec.Pos[0], rec.Pos[1], rec.Pos[2]},
		Time:     at,
	})
}

// WriteRecords encodes reports as replay lines with times relative to
// origin. It is the inverse of ReplayTracker and is used to capture traces.
func WriteRecords(w io.Writer, origin time.Time, reports ...Report) error {
	enc := json.NewEncoder(w)
	for _, rep := range reports {
		var rec Record
		switch v := rep.(type) {
		case Sample:
			rec = Record{Sensor: v.Sensor, Pos: v.Position[:], TimeMS: v.Time.Sub(origin).Milliseconds()}
		case Activation:
			value := v.Value
			rec = Record{Sensor: v.Sensor, Activation: &value, TimeMS: v.Time.Sub(origin).Milliseconds()}
		default:
			return fmt.Errorf("unsupported report %T", rep)
		}
		if err := enc.Encode(rec); err != nil {
			return err
		}
	}
	return nil
}
