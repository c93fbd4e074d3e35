package client

import (
	"bytes"
	"math"
	"strings"
	"sync"

	"github.com/go-audio/wav"
)

const DefaultWaveformBars = 48

var barGlyphs = []rune(" ▁▂▃▄▅▆▇█")

// ComputePeaks reduces audio to bars normalized peaks in [0, 1]. PCM WAV is
// decoded sample by sample; anything else is treated as unsigned 8-bit
// amplitude, which is coarse but keeps compressed clips drawable.
func ComputePeaks(data []byte, bars int) []float64 {
	if bars <= 0 {
		bars = DefaultWaveformBars
	}
	if samples, ok := decodeWAV(data); ok {
		return bucketPeaks(samples, bars)
	}

	samples := make([]float64, len(data))
	for i, b := range data {
		samples[i] = math.Abs(float64(b)-128) / 128
	}
	return bucketPeaks(samples, bars)
}

// decodeWAV returns absolute sample amplitudes scaled to [0, 1].
func decodeWAV(data []byte) ([]float64, bool) {
	d := wav.NewDecoder(bytes.NewReader(data))
	if !d.IsValidFile() {
		return nil, false
	}
	buf, err := d.FullPCMBuffer()
	if err != nil || len(buf.Data) == 0 {
		return nil, false
	}

	depth := int(d.BitDepth)
	full := float64(int64(1) << (depth - 1))
	samples := make([]float64, len(buf.Data))
	for i, v := range buf.Data {
		if depth == 8 {
			v -= 128
		}
		samples[i] = math.Min(math.Abs(float64(v))/full, 1)
	}
	return samples, true
}

func bucketPeaks(samples []float64, bars int) []float64 {
	peaks := make([]float64, bars)
	if len(samples) == 0 {
		return peaks
	}
	for i := range bars {
		start := i * len(samples) / bars
		end := (i + 1) * len(samples) / bars
		if end <= start {
			end = min(start+1, len(samples))
		}
		for _, s := range samples[start:end] {
			peaks[i] = math.Max(peaks[i], s)
		}
	}
	return peaks
}

// RenderPeaks draws one glyph per peak.
func RenderPeaks(peaks []float64) string {
	var b strings.Builder
	top := len(barGlyphs) - 1
	for _, p := range peaks {
		idx := int(math.Round(p * float64(top)))
		idx = max(0, min(idx, top))
		b.WriteRune(barGlyphs[idx])
	}
	return b.String()
}

// Waveform is the drawable state for one voice or reply.
type Waveform struct {
	ID    string
	Peaks []float64

	mu        sync.Mutex
	destroyed bool
}

func (w *Waveform) Render() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.destroyed {
		return ""
	}
	return RenderPeaks(w.Peaks)
}

// Destroy releases the peaks. A destroyed waveform renders empty.
func (w *Waveform) Destroy() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.destroyed = true
	w.Peaks = nil
}

func (w *Waveform) Destroyed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.destroyed
}

// Waveforms holds at most one live waveform per id.
type Waveforms struct {
	bars int

	mu    sync.Mutex
	items map[string]*Waveform
}

func NewWaveforms(bars int) *Waveforms {
	if bars <= 0 {
		bars = DefaultWaveformBars
	}
	return &Waveforms{bars: bars, items: make(map[string]*Waveform)}
}

func (r *Waveforms) Get(id string) (*Waveform, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.items[id]
	return w, ok
}

// Ensure returns the waveform for id, loading its audio the first time.
func (r *Waveforms) Ensure(id string, load func() ([]byte, error)) (*Waveform, error) {
	if w, ok := r.Get(id); ok {
		return w, nil
	}
	data, err := load()
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// Another caller may have won the race while we were loading.
	if w, ok := r.items[id]; ok {
		return w, nil
	}
	w := &Waveform{ID: id, Peaks: ComputePeaks(data, r.bars)}
	r.items[id] = w
	return w, nil
}

// Init builds a waveform for id, destroying any existing one first.
func (r *Waveforms) Init(id string, data []byte) *Waveform {
	w := &Waveform{ID: id, Peaks: ComputePeaks(data, r.bars)}

	r.mu.Lock()
	prev := r.items[id]
	r.items[id] = w
	r.mu.Unlock()

	if prev != nil {
		prev.Destroy()
	}
	return w
}

func (r *Waveforms) Destroy(id string) {
	r.mu.Lock()
	w := r.items[id]
	delete(r.items, id)
	r.mu.Unlock()

	if w != nil {
		w.Destroy()
	}
}

// Prune destroys every waveform whose id is not in keep.
func (r *Waveforms) Prune(keep map[string]bool) {
	r.mu.Lock()
	var stale []*Waveform
	for id, w := range r.items {
		if !keep[id] {
			stale = append(stale, w)
			delete(r.items, id)
		}
	}
	r.mu.Unlock()

	for _, w := range stale {
		w.Destroy()
	}
}

func (r *Waveforms) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// DestroyAll is used on logout.
func (r *Waveforms) DestroyAll() {
	r.Prune(nil)
}
