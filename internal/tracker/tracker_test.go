package tracker

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	samples     []Sample
	activations []Activation
}

func (r *recorder) HandleSample(s Sample)         { r.samples = append(r.samples, s) }
func (r *recorder) HandleActivation(a Activation) { r.activations = append(r.activations, a) }

const trace = `{"sensor":0,"pos":[0,0,0],"t_ms":1000}
{"sensor":1,"activation":1,"t_ms":1000}

{"sensor":0,"pos":[0.1,0,0],"t_ms":1050}
{"sensor":1,"pos":[0,0.2,0],"t_ms":1300}
`

func TestReplayTracker_Paced(t *testing.T) {
	now := time.Unix(100, 0)
	clock := func() time.Time { return now }

	tr := NewReplayReader(strings.NewReader(trace), WithClock(clock))
	rec := &recorder{}
	ctx := context.Background()

	assert.ErrorIs(t, tr.Update(ctx, rec), ErrNotOpen)
	require.NoError(t, tr.Open())
	assert.True(t, tr.IsOpen())

	require.NoError(t, tr.Update(ctx, rec))
	assert.Len(t, rec.samples, 1)
	assert.Len(t, rec.activations, 1)
	assert.Equal(t, now, rec.samples[0].Time)
	assert.Equal(t, 1.0, rec.activations[0].Value)

	now = now.Add(60 * time.Millisecond)
	require.NoError(t, tr.Update(ctx, rec))
	require.Len(t, rec.samples, 2)
	assert.Equal(t, time.Unix(100, 0).Add(50*time.Millisecond), rec.samples[1].Time)
	assert.Equal(t, Vec3{0.1, 0, 0}, rec.samples[1].Position)

	now = now.Add(time.Second)
	assert.ErrorIs(t, tr.Update(ctx, rec), io.EOF)
	assert.Len(t, rec.samples, 3)
	assert.Equal(t, 1, rec.samples[2].Sensor)

	assert.ErrorIs(t, tr.Update(ctx, rec), io.EOF)
	require.NoError(t, tr.Close())
}

func TestReplayTracker_WithoutPacing(t *testing.T) {
	tr := NewReplayReader(strings.NewReader(trace), WithoutPacing())
	require.NoError(t, tr.Open())

	rec := &recorder{}
	assert.ErrorIs(t, tr.Update(context.Background(), rec), io.EOF)
	assert.Len(t, rec.samples, 3)
	assert.Equal(t, 300*time.Millisecond, rec.samples[2].Time.Sub(rec.samples[0].Time))
}

func TestReplayTracker_MalformedLineIsSkipped(t *testing.T) {
	in := `{"sensor":0,"pos":[0,0,0],"t_ms":0}
not json
{"sensor":0,"pos":[1,2],"t_ms":5}
{"sensor":0,"pos":[1,0,0],"t_ms":10}
`
	tr := NewReplayReader(strings.NewReader(in), WithoutPacing())
	require.NoError(t, tr.Open())
	rec := &recorder{}

	err := tr.Update(context.Background(), rec)
	assert.True(t, errors.Is(err, ErrMalformedRecord))
	err = tr.Update(context.Background(), rec)
	assert.True(t, errors.Is(err, ErrMalformedRecord))
	assert.ErrorIs(t, tr.Update(context.Background(), rec), io.EOF)
	assert.Len(t, rec.samples, 2)
}

func TestReplayTracker_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(trace), 0o644))

	tr := NewReplayTracker(path, WithoutPacing())
	require.NoError(t, tr.Open())
	defer tr.Close()

	rec := &recorder{}
	assert.ErrorIs(t, tr.Update(context.Background(), rec), io.EOF)
	assert.Len(t, rec.samples, 3)

	missing := NewReplayTracker(filepath.Join(t.TempDir(), "none.jsonl"))
	assert.Error(t, missing.Open())
}

func TestWriteRecords_RoundTrip(t *testing.T) {
	origin := time.Unix(50, 0)
	var buf bytes.Buffer
	require.NoError(t, WriteRecords(&buf, origin,
		Sample{Sensor: 0, Position: Vec3{1, 2, 3}, Time: origin},
		Activation{Sensor: 1, Value: 0.9, Time: origin.Add(20 * time.Millisecond)},
		Sample{Sensor: 1, Position: Vec3{4, 5, 6}, Time: origin.Add(40 * time.Millisecond)},
	))

	tr := NewReplayReader(&buf, WithoutPacing())
	require.NoError(t, tr.Open())
	rec := &recorder{}
	assert.ErrorIs(t, tr.Update(context.Background(), rec), io.EOF)

	require.Len(t, rec.samples, 2)
	require.Len(t, rec.activations, 1)
	assert.Equal(t, Vec3{4, 5, 6}, rec.samples[1].Position)
	assert.Equal(t, 40*time.Millisecond, rec.samples[1].Time.Sub(rec.samples[0].Time))
	assert.InDelta(t, 0.9, rec.activations[0].Value, 1e-9)
}

func TestCapture_RecordsReplayableTrace(t *testing.T) {
	origin := time.Unix(70, 0)
	mock := NewMockTracker(
		Sample{Sensor: 0, Position: Vec3{0, 1, 0}, Time: origin},
		Activation{Sensor: 0, Value: 0.95, Time: origin.Add(50 * time.Millisecond)},
		Sample{Sensor: 0, Position: Vec3{0, 1.1, 0}, Time: origin.Add(100 * time.Millisecond)},
	)
	mock.Finish()

	var buf bytes.Buffer
	c := NewCapture(mock, &buf)
	require.NoError(t, c.Open())
	assert.True(t, c.IsOpen())

	live := &recorder{}
	require.NoError(t, c.Update(context.Background(), live))
	assert.ErrorIs(t, c.Update(context.Background(), live), io.EOF)
	require.NoError(t, c.Err())
	require.Len(t, live.samples, 2)
	require.Len(t, live.activations, 1)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 3)
	assert.Contains(t, lines[0], `"t_ms":0`)
	assert.Contains(t, lines[2], `"t_ms":100`)

	replayed := &recorder{}
	tr := NewReplayReader(&buf, WithoutPacing())
	require.NoError(t, tr.Open())
	assert.ErrorIs(t, tr.Update(context.Background(), replayed), io.EOF)
	require.Len(t, replayed.samples, 2)
	assert.Equal(t, Vec3{0, 1.1, 0}, replayed.samples[1].Position)
	assert.Equal(t, 100*time.Millisecond, replayed.samples[1].Time.Sub(replayed.samples[0].Time))
}

func TestMockTracker(t *testing.T) {
	m := NewMockTracker(Sample{Sensor: 0})
	rec := &recorder{}
	ctx := context.Background()

	assert.ErrorIs(t, m.Update(ctx, rec), ErrNotOpen)
	require.NoError(t, m.Open())

	require.NoError(t, m.Update(ctx, rec))
	m.Push(Activation{Sensor: 1, Value: 1}, Sample{Sensor: 1})
	m.Finish()
	require.NoError(t, m.Update(ctx, rec))
	assert.ErrorIs(t, m.Update(ctx, rec), io.EOF)

	assert.Len(t, rec.samples, 2)
	assert.Len(t, rec.activations, 1)
	require.NoError(t, m.Close())
	assert.False(t, m.IsOpen())
}

func TestVec3(t *testing.T) {
	d := Vec3{1, 2, 3}.Sub(Vec3{1, 0, 1})
	assert.Equal(t, Vec3{0, 2, 2}, d)
	assert.Equal(t, 8.0, d.LengthSq())
}
