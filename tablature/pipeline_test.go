package tablature

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/sonido-tab/algorithms/spectral"
	"github.com/RyanBlaney/sonido-tab/fretboard"
	"github.com/RyanBlaney/sonido-tab/transcode"
)

func writeSine(t *testing.T, freq float64, sampleRate, n int, amplitude float64) string {
	t.Helper()

	data := make([]int, n)
	for i := range data {
		data[i] = int(amplitude * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate)))
	}

	path := filepath.Join(t.TempDir(), "tone.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	require.NoError(t, enc.Write(&audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}))
	require.NoError(t, enc.Close())
	return path
}

func noteNames(events []NoteEvent) []string {
	names := make([]string, len(events))
	for i, ev := range events {
		names[i] = ev.Note
	}
	return names
}

func TestRunDetectsA440(t *testing.T) {
	path := writeSine(t, 440, 44100, 44100, 10000)

	res, err := NewPipeline(nil).Run(context.Background(), path)
	require.NoError(t, err)
	require.True(t, res.OK())

	assert.Contains(t, noteNames(res.Timing), "A4")

	positions, ok := res.Notes.Get("A4")
	require.True(t, ok)
	assert.NotEmpty(t, positions)
	assert.Contains(t, positions, fretboard.Position{String: "B", Fret: 10})
	assert.Contains(t, positions, fretboard.Position{String: "High-e", Fret: 5})

	for _, ev := range res.Timing {
		assert.LessOrEqual(t, ev.Start, ev.End)
		_, ok := res.Notes.Get(ev.Note)
		assert.True(t, ok, "note %s missing from map", ev.Note)
	}

	require.NotNil(t, res.Stats)
	assert.Equal(t, 28, res.Stats.Frames)
	assert.Equal(t, 2, res.Stats.Step)
	assert.Equal(t, 14, res.Stats.FramesScanned)
	assert.Empty(t, res.SkippedFrames)
}

func TestRunIsDeterministic(t *testing.T) {
	path := writeSine(t, 329.63, 22050, 22050, 8000)
	p := NewPipeline(nil)

	first, err := p.Run(context.Background(), path)
	require.NoError(t, err)
	second, err := p.Run(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, first.Timing, second.Timing)

	a, err := json.Marshal(first.Notes)
	require.NoError(t, err)
	b, err := json.Marshal(second.Notes)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestRunSilence(t *testing.T) {
	path := writeSine(t, 440, 44100, 44100, 0)

	res, err := NewPipeline(nil).Run(context.Background(), path)
	require.NoError(t, err)

	assert.Empty(t, res.Timing)
	assert.Zero(t, res.Notes.Len())
	assert.Equal(t, res.Stats.FramesScanned, res.Stats.SilentFrames)
	assert.Empty(t, res.DetectionError)
}

func TestAnalyzeEmptyBuffer(t *testing.T) {
	res, err := NewPipeline(nil).Analyze(context.Background(), &transcode.AudioBuffer{SampleRate: 44100, Channels: 1})
	require.NoError(t, err)

	assert.True(t, res.OK())
	assert.NotNil(t, res.Timing)
	assert.Empty(t, res.Timing)
	assert.Zero(t, res.Notes.Len())
	assert.Zero(t, res.Stats.Frames)

	_, err = NewPipeline(nil).Analyze(context.Background(), nil)
	assert.Error(t, err)
}

func TestRunMissingFile(t *testing.T) {
	_, err := NewPipeline(nil).Run(context.Background(), filepath.Join(t.TempDir(), "nope.wav"))
	require.Error(t, err)
	assert.Equal(t, StatusNoInput, Classify(err))
}

func TestRunMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.wav")
	require.NoError(t, os.WriteFile(path, []byte("RIFF? no"), 0o644))

	_, err := NewPipeline(nil).Run(context.Background(), path)
	require.Error(t, err)
	assert.Equal(t, StatusLoadFailed, Classify(err))
}

func TestAnalyzeSpectrogramFailure(t *testing.T) {
	buf := &transcode.AudioBuffer{Samples: []float64{1, 2, 3}, SampleRate: 0}

	res, err := NewPipeline(nil).Analyze(context.Background(), buf)
	assert.Nil(t, res)

	var ae *spectral.AnalysisError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, StatusAnalysisFailed, Classify(err))
}

func TestAnalyzeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	buf := &transcode.AudioBuffer{Samples: make([]float64, 4096), SampleRate: 8000}
	_, err := NewPipeline(nil).Analyze(ctx, buf)
	assert.Equal(t, StatusCancelled, Classify(err))
}

func TestWithMapper(t *testing.T) {
	mapper := &countingMapper{}
	path := writeSine(t, 440, 44100, 44100, 10000)

	base := NewPipeline(nil)
	res, err := base.WithMapper(mapper).Run(context.Background(), path)
	require.NoError(t, err)

	for note, calls := range mapper.calls {
		assert.Equal(t, 1, calls, note)
	}
	assert.Equal(t, res.Notes.Len(), len(mapper.calls))
	assert.Equal(t, fretboard.Standard, base.mapper)
}

func TestDominant(t *testing.T) {
	path := writeSine(t, 440, 44100, 44100, 10000)

	pitches, err := NewPipeline(nil).Dominant(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, pitches, 28)
	for _, f := range pitches {
		assert.InDelta(t, 430.66, f, 0.01)
	}
}

func TestErrorResultShape(t *testing.T) {
	res := ErrorResult(&transcode.LoadError{Path: "x.wav", Kind: transcode.ErrFileNotFound, Err: os.ErrNotExist})

	assert.False(t, res.OK())
	assert.Equal(t, StatusNoInput, res.Status)

	data, err := json.Marshal(res)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, map[string]any{}, decoded["notes"])
	assert.Equal(t, []any{}, decoded["timing"])
	assert.Equal(t, "no_input", decoded["status"])
	assert.Contains(t, decoded["error"], "x.wav")

	ok, err := json.Marshal(emptyResult())
	require.NoError(t, err)
	assert.JSONEq(t, `{"notes":{},"timing":[],"error":null,"status":"ok"}`, string(ok))
}

func TestClassify(t *testing.T) {
	assert.Equal(t, StatusOK, Classify(nil))
	assert.Equal(t, StatusCancelled, Classify(context.DeadlineExceeded))
	assert.Equal(t, StatusUnknown, Classify(errors.New("boom")))

	var s Status
	require.NoError(t, s.UnmarshalText([]byte("analysis_failed")))
	assert.Equal(t, StatusAnalysisFailed, s)
	assert.Error(t, s.UnmarshalText([]byte("nonsense")))
}
