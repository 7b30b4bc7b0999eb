package devices

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
)

// maxNameAttempts bounds the suffix search for a free name.
const maxNameAttempts = 1000

// Logger defines the logging interface used by the Registry.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Entry is one row of the name table.
type Entry struct {
	MAC  string `json:"mac"`
	Name string `json:"name"`
}

// Registry owns the MAC to display-name table.
//
// All public methods are thread-safe. Name assignment and the uniqueness
// check run under the same lock, so concurrent lookups never hand out
// the same name twice.
type Registry struct {
	store  Store
	logger Logger

	mu    sync.Mutex
	names map[string]string // normalised MAC -> name
	used  map[string]string // name -> normalised MAC
	sync  []SyncRule
	dirty bool
}

// Open loads the registry from store, sanitising stored names.
// Any change made while loading is committed before Open returns.
func Open(store Store, logger Logger) (*Registry, error) {
	if logger == nil {
		logger = noopLogger{}
	}
	doc, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("loading devices: %w", err)
	}

	r := &Registry{
		store:  store,
		logger: logger,
		names:  make(map[string]string, len(doc.Names)),
		used:   make(map[string]string, len(doc.Names)),
		sync:   doc.Sync,
	}
	r.load(doc.Names)

	if err := r.Commit(); err != nil {
		return nil, err
	}
	r.logger.Info("device names loaded", "devices", len(r.names), "sync_rules", len(r.sync))
	return r, nil
}

// OpenFile opens a registry backed by a YAML file at path.
func OpenFile(path string, logger Logger) (*Registry, error) {
	return Open(NewFileStore(path), logger)
}

// load fills the table from stored names in sorted MAC order, so repairs
// are deterministic.
func (r *Registry) load(stored map[string]string) {
	macs := make([]string, 0, len(stored))
	for mac := range stored {
		macs = append(macs, mac)
	}
	slices.Sort(macs)

	for _, raw := range macs {
		name := stored[raw]
		mac := raw
		if norm := NormalizeMAC(raw); norm != raw && ValidMAC(norm) {
			r.logger.Warn("normalizing stored device MAC", "mac", raw, "normalized", norm)
			mac = norm
			r.dirty = true
		}
		if _, dup := r.names[mac]; dup {
			r.logger.Warn("dropping duplicate stored device MAC", "mac", raw)
			r.dirty = true
			continue
		}

		if !ValidName(name) {
			sanitized := Sanitize(name)
			r.logger.Warn("sanitizing invalid device name", "mac", mac, "name", name, "sanitized", sanitized)
			name = sanitized
			r.dirty = true
		}
		if owner, taken := r.used[name]; taken {
			renamed := r.assign(name)
			r.logger.Warn("renaming duplicate device name", "mac", mac, "name", name, "owner", owner, "renamed", renamed)
			name = renamed
			r.dirty = true
		}

		r.names[mac] = name
		r.used[name] = mac
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	r.logger = logger
}

// assign returns base, or the first free base-N for N >= 2. The base is
// shortened when needed so the result stays within MaxNameLength.
// Caller must hold r.mu.
func (r *Registry) assign(base string) string {
	if _, taken := r.used[base]; !taken {
		return base
	}
	for idx := 2; idx <= maxNameAttempts; idx++ {
		suffix := "-" + strconv.Itoa(idx)
		stem := base
		if len(stem)+len(suffix) > MaxNameLength {
			stem = stem[:MaxNameLength-len(suffix)]
		}
		name := stem + suffix
		if _, taken := r.used[name]; !taken {
			return name
		}
	}
	// A thousand devices sharing a base name means the table is corrupt.
	panic(fmt.Sprintf("devices: name increment attempts exhausted for %q", base))
}

// Lookup returns the display name for mac, assigning one derived from
// color when the device is new.
//
// mac must already be normalised; see NormalizeMAC.
func (r *Registry) Lookup(mac, color string) (string, error) {
	if !ValidMAC(mac) {
		return "", fmt.Errorf("%w: %q", ErrInvalidAddress, mac)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if name, ok := r.names[mac]; ok {
		return name, nil
	}

	name := r.assign(color)
	r.names[mac] = name
	r.used[name] = mac
	r.dirty = true
	r.logger.Info("new Tilt added", "mac", mac, "name", name)
	return name, nil
}

// ApplyCustomNames applies explicit renames in order and returns how many
// were applied.
//
// Entries with an invalid MAC, an invalid name, or a name owned by another
// device are logged and skipped. Each entry is checked against the table
// as left by the entries before it. Renaming a device to its current name
// is accepted and changes nothing.
func (r *Registry) ApplyCustomNames(overrides []NameOverride) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	applied := 0
	for _, o := range overrides {
		if err := r.applyOne(o); err != nil {
			r.logger.Error("failed to set device name", "mac", o.MAC, "name", o.Name, "error", err)
			continue
		}
		applied++
	}
	return applied
}

// applyOne validates and applies a single override. Caller must hold r.mu.
func (r *Registry) applyOne(o NameOverride) error {
	if !ValidMAC(o.MAC) {
		return ErrInvalidAddress
	}
	if !ValidName(o.Name) {
		return ErrInvalidName
	}
	if owner, taken := r.used[o.Name]; taken {
		if owner == o.MAC {
			return nil
		}
		return fmt.Errorf("%w: owned by %s", ErrNameInUse, owner)
	}

	if prev, ok := r.names[o.MAC]; ok {
		delete(r.used, prev)
	}
	r.names[o.MAC] = o.Name
	r.used[o.Name] = o.MAC
	r.dirty = true
	r.logger.Info("device name set", "mac", o.MAC, "name", o.Name)
	return nil
}

// Commit persists the table if it changed since the last commit.
func (r *Registry) Commit() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.dirty {
		return nil
	}

	doc := &Document{
		Names: make(map[string]string, len(r.names)),
		Sync:  slices.Clone(r.sync),
	}
	for mac, name := range r.names {
		doc.Names[mac] = name
	}

	if err := r.store.Save(doc); err != nil {
		return fmt.Errorf("committing devices: %w", err)
	}
	r.dirty = false
	r.logger.Debug("device names committed", "devices", len(doc.Names))
	return nil
}

// Autocommit runs fn and then commits exactly once, whether fn returns
// normally, returns an error or panics. Errors from fn and Commit are joined.
func (r *Registry) Autocommit(fn func() error) (err error) {
	defer func() {
		if cerr := r.Commit(); cerr != nil {
			r.logger.Error("autocommit failed", "error", cerr)
			err = errors.Join(err, cerr)
		}
	}()
	return fn()
}

// Dirty reports whether uncommitted changes exist.
func (r *Registry) Dirty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dirty
}

// Name returns the display name for a normalised MAC.
func (r *Registry) Name(mac string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	name, ok := r.names[mac]
	return name, ok
}

// Names returns a copy of the name table.
func (r *Registry) Names() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]string, len(r.names))
	for mac, name := range r.names {
		out[mac] = name
	}
	return out
}

// Entries returns the name table sorted by MAC.
func (r *Registry) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, 0, len(r.names))
	for mac, name := range r.names {
		out = append(out, Entry{MAC: mac, Name: name})
	}
	slices.SortFunc(out, func(a, b Entry) int { return strings.Compare(a.MAC, b.MAC) })
	return out
}

// SyncTargets returns the routing targets configured for a display name.
// Rules with missing fields are ignored.
func (r *Registry) SyncTargets(name string) []SyncTarget {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []SyncTarget
	for _, rule := range r.sync {
		if rule.Tilt != name || !rule.complete() {
			continue
		}
		out = append(out, SyncTarget{Type: rule.Type, Service: rule.Service, Block: rule.Block})
	}
	return out
}
