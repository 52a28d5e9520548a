package playback

import (
	"sync"
	"time"

	"github.com/amaumene/reelarr/internal/models"
)

type fakeInstance struct {
	mu       sync.Mutex
	listener Listener
	url      string
	position float64
	duration float64
	playing  bool
	muted    bool
	visible  bool
	released bool
	seeks    []float64
	seekErr  error
	playErr  error
}

func (f *fakeInstance) Load(url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.url = url
	return nil
}

func (f *fakeInstance) Play() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.playErr != nil {
		return f.playErr
	}
	f.playing = true
	return nil
}

func (f *fakeInstance) Pause() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.playing = false
	return nil
}

func (f *fakeInstance) Seek(seconds float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.seekErr != nil {
		return f.seekErr
	}
	f.seeks = append(f.seeks, seconds)
	f.position = seconds
	return nil
}

func (f *fakeInstance) Position() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.position
}

func (f *fakeInstance) Duration() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.duration
}

func (f *fakeInstance) SetMuted(muted bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.muted = muted
}

func (f *fakeInstance) SetVisible(visible bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.visible = visible
}

func (f *fakeInstance) Release() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released = true
	f.playing = false
}

func (f *fakeInstance) set(position, duration float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.position = position
	f.duration = duration
}

func (f *fakeInstance) isReleased() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.released
}

func (f *fakeInstance) isPlaying() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.playing
}

func (f *fakeInstance) emit(kind EventKind) {
	f.listener(Event{Kind: kind})
}

type fakeFactory struct {
	mu        sync.Mutex
	instances []*fakeInstance
	loadErrs  map[string]error
}

func (f *fakeFactory) NewInstance(listener Listener) (Instance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inst := &fakeInstance{listener: listener, visible: true, duration: 1000}
	f.instances = append(f.instances, inst)
	return &loadHook{fakeInstance: inst, factory: f}, nil
}

// loadHook fails Load for URLs registered in loadErrs
type loadHook struct {
	*fakeInstance
	factory *fakeFactory
}

func (h *loadHook) Load(url string) error {
	h.factory.mu.Lock()
	err := h.factory.loadErrs[url]
	h.factory.mu.Unlock()
	if err != nil {
		return err
	}
	return h.fakeInstance.Load(url)
}

func (f *fakeFactory) get(i int) *fakeInstance {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.instances[i]
}

func (f *fakeFactory) created() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.instances)
}

func (f *fakeFactory) live() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, inst := range f.instances {
		if !inst.isReleased() {
			n++
		}
	}
	return n
}

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1700000000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}

// Advance moves time forward and runs every timer that came due
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []func()
	for _, t := range c.timers {
		if !t.fired && !t.stopped && !t.at.After(c.now) {
			t.fired = true
			due = append(due, t.f)
		}
	}
	c.mu.Unlock()

	for _, f := range due {
		f()
	}
}

type fakeProgress struct {
	mu      sync.Mutex
	entries map[string]models.PlaybackProgress
	puts    int
}

func newFakeProgress() *fakeProgress {
	return &fakeProgress{entries: make(map[string]models.PlaybackProgress)}
}

func (p *fakeProgress) Get(contentID string) (*models.PlaybackProgress, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	entry, ok := p.entries[contentID]
	if !ok {
		return nil, false
	}
	return &entry, true
}

func (p *fakeProgress) Put(contentID string, position, duration float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.puts++
	p.entries[contentID] = models.PlaybackProgress{
		ContentID:       contentID,
		PositionSeconds: position,
		DurationSeconds: duration,
	}
}

type fakeHistory struct {
	mu      sync.Mutex
	records []string
}

func (h *fakeHistory) RecordWatched(contentID, title, posterURL string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, contentID)
}

func (h *fakeHistory) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.records)
}
