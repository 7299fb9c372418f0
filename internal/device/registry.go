package device

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"frost-ledger/internal/chunk"
	"frost-ledger/internal/config"
	"frost-ledger/internal/metrics"
	"frost-ledger/internal/minimize"
	"frost-ledger/internal/network"
	"frost-ledger/internal/session"
)

// ErrUnknownDevice is returned when no device is registered under a name.
var ErrUnknownDevice = errors.New("device: unknown device")

// Registry maps device names to their apps. Entries that share an address
// share one transport and one operation lock, so a physical device never
// sees frames of two operations interleaved.
type Registry struct {
	mu      sync.RWMutex
	apps    map[string]*App
	closers map[string]io.Closer
	links   map[string]*link
}

// link is the connection to one device address.
type link struct {
	address string
	tx      *network.Transmitter
	lock    *session.Lock
	refs    int
}

// linkRef releases one entry's hold on a link.
type linkRef struct {
	r    *Registry
	l    *link
	once sync.Once
}

func (h *linkRef) Close() error {
	var err error
	h.once.Do(func() { err = h.r.releaseLink(h.l) })
	return err
}

// NewRegistry creates a new device registry.
func NewRegistry() *Registry {
	return &Registry{
		apps:    make(map[string]*App),
		closers: make(map[string]io.Closer),
		links:   make(map[string]*link),
	}
}

func (r *Registry) acquireLink(address string, timeout time.Duration) *link {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.links[address]
	if !ok {
		l = &link{
			address: address,
			tx:      network.NewTransmitter(network.NewTCPTransport(address, timeout)),
			lock:    session.NewLock(),
		}
		r.links[address] = l
	}
	l.refs++
	return l
}

func (r *Registry) releaseLink(l *link) error {
	r.mu.Lock()
	l.refs--
	last := l.refs == 0
	if last {
		delete(r.links, l.address)
	}
	r.mu.Unlock()
	if last {
		return l.tx.Close()
	}
	return nil
}

// Register adds app under its name. closer, if not nil, is closed on
// Deregister or Close.
func (r *Registry) Register(app *App, closer io.Closer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.apps[app.Name()]; ok {
		return fmt.Errorf("device: %q already registered", app.Name())
	}
	r.apps[app.Name()] = app
	if closer != nil {
		r.closers[app.Name()] = closer
	}
	return nil
}

// Deregister removes a device and closes its transport.
func (r *Registry) Deregister(name string) error {
	r.mu.Lock()
	closer := r.closers[name]
	delete(r.apps, name)
	delete(r.closers, name)
	r.mu.Unlock()
	if closer != nil {
		return closer.Close()
	}
	return nil
}

// Get retrieves the app registered under name.
func (r *Registry) Get(name string) (*App, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	app, ok := r.apps[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDevice, name)
	}
	return app, nil
}

// Names lists registered devices in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.apps))
	for name := range r.apps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close closes every registered transport.
func (r *Registry) Close() error {
	r.mu.Lock()
	closers := r.closers
	r.apps = make(map[string]*App)
	r.closers = make(map[string]io.Closer)
	r.mu.Unlock()

	var errs []error
	for _, c := range closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Deps are the collaborators shared by every opened device.
type Deps struct {
	Manager  *session.Manager
	Metrics  *metrics.Collector
	Recorder session.Recorder
}

// Open builds the session and app for cfg and registers them. The
// transport for cfg.Address is created on the first entry at that address
// and reused by later ones; its connection is dialed on first use.
func (r *Registry) Open(cfg config.Device, deps Deps) (*App, error) {
	mode, err := session.ParseMode(cfg.Mode)
	if err != nil {
		return nil, err
	}
	framing, err := chunk.ParseFraming(cfg.PathFraming)
	if err != nil {
		return nil, err
	}
	chunker, err := chunk.New(cfg.ChunkSize, framing)
	if err != nil {
		return nil, err
	}
	base, err := minimize.ParseIndexBase(cfg.IndexBase)
	if err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = config.DefaultTimeout
	}
	l := r.acquireLink(cfg.Address, timeout)
	ref := &linkRef{r: r, l: l}

	s, err := session.New(l.tx, session.Config{
		Device:   cfg.Name,
		Mode:     mode,
		Chunker:  chunker,
		Manager:  deps.Manager,
		Metrics:  deps.Metrics,
		Recorder: deps.Recorder,
		Lock:     l.lock,
	})
	if err != nil {
		_ = ref.Close()
		return nil, err
	}
	app, err := NewApp(cfg.Name, s, base)
	if err != nil {
		_ = ref.Close()
		return nil, err
	}
	if err := r.Register(app, ref); err != nil {
		_ = ref.Close()
		return nil, err
	}
	return app, nil
}
