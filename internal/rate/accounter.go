// Package rate accounts for per-source byte rate: a window of
// bytes-per-source, reported as a fraction of the largest rate
// currently observed across all tracked sources. Each source has one
// fixed window that starts at its first packet and is discarded whole
// once it has fully elapsed; bytes are not aged out gradually, so the
// window does not slide.
package rate

import (
	"time"
)

// DefaultWindow is the width of the window over which a source's byte
// rate is measured.
const DefaultWindow = 10 * time.Second

type window struct {
	start time.Time
	bytes int64
}

// Accounter tracks byte throughput per source-address bit prefix. It
// is owned exclusively by the single dispatch goroutine and needs no
// internal locking.
type Accounter struct {
	window  time.Duration
	sources map[string]*window
	now     func() time.Time
}

// New constructs an Accounter with the given sliding-window width.
func New(windowSize time.Duration) *Accounter {
	if windowSize <= 0 {
		windowSize = DefaultWindow
	}
	return &Accounter{
		window:  windowSize,
		sources: make(map[string]*window),
		now:     time.Now,
	}
}

// prefixKey derives a map key from the meaningful leading bits of a
// source address: only the first nbits bits of src participate, and a
// prefix collision (two sources sharing a prefix because few bits are
// meaningful) is by design: the accounter tracks by prefix, not by
// exact address, since the whole point is to rate-limit whatever
// address space the submitter chose to reveal.
func prefixKey(src [8]byte, nbits byte) string {
	full := nbits / 8
	rem := nbits % 8
	key := make([]byte, 0, full+2)
	key = append(key, src[:full]...)
	if rem > 0 {
		mask := byte(0xFF << (8 - rem))
		key = append(key, src[full]&mask)
	}
	key = append(key, nbits)
	return string(key)
}

func (a *Accounter) currentRate(w *window, now time.Time) float64 {
	if now.Sub(w.start) >= a.window {
		return 0
	}
	return float64(w.bytes) / a.window.Seconds()
}

// Track records size bytes received from the source identified by the
// leading srcNBits bits of src, and returns that source's current
// byte rate as a fraction of the largest rate observed across every
// tracked source, in [0, 1]. A source that is itself the largest
// consumer gets a fraction of 1.
func (a *Accounter) Track(src [8]byte, srcNBits byte, size int) float64 {
	now := a.now()
	key := prefixKey(src, srcNBits)

	w, ok := a.sources[key]
	if !ok || now.Sub(w.start) >= a.window {
		w = &window{start: now}
		a.sources[key] = w
	}
	w.bytes += int64(size)

	rate := a.currentRate(w, now)
	largest := rate
	for k, other := range a.sources {
		if k == key {
			continue
		}
		if r := a.currentRate(other, now); r > largest {
			largest = r
		}
	}

	if largest == 0 {
		return 0
	}
	return rate / largest
}

// LargestRate exposes the largest byte rate currently observed across
// every tracked source, for callers that already know their packet's
// source is anonymous and so cannot look up its own rate. (The
// dispatcher's preliminary priority does not call it; it uses a rate
// fraction of 1.0 directly.)
func (a *Accounter) LargestRate() float64 {
	now := a.now()
	var largest float64
	for _, w := range a.sources {
		if r := a.currentRate(w, now); r > largest {
			largest = r
		}
	}
	return largest
}
