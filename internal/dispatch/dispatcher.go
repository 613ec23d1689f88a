package dispatch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	hwerrors "github.com/hostwatch/hostwatch/internal/errors"
	"github.com/hostwatch/hostwatch/internal/observability"
	"github.com/hostwatch/hostwatch/internal/store"
)

// RemoteChannel carries generic requests to the registry-owning process
// when the calling process cannot reach the backend directly.
type RemoteChannel interface {
	Call(ctx context.Context, req Request) (Response, error)
}

// Dispatcher exposes typed storage operations. A process that owns the
// backend registry dispatches locally; an external (extension) process is
// constructed with a remote channel instead and dispatches through it.
// The routing choice is made per call and is invisible to callers.
type Dispatcher struct {
	registry *store.Registry
	remote   RemoteChannel
	stats    *observability.StoreStats
	log      *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithStats records per-operation statistics into s.
func WithStats(s *observability.StoreStats) Option {
	return func(d *Dispatcher) { d.stats = s }
}

// WithLogger sets the dispatcher's logger.
func WithLogger(log *slog.Logger) Option {
	return func(d *Dispatcher) { d.log = log }
}

// NewLocal creates a dispatcher that serves operations from the registry's
// active backend.
func NewLocal(registry *store.Registry, opts ...Option) *Dispatcher {
	d := &Dispatcher{registry: registry, log: slog.Default()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// NewRemote creates a dispatcher for an external process; every operation
// is marshaled into the generic request shape and routed through remote.
func NewRemote(remote RemoteChannel, opts ...Option) *Dispatcher {
	d := &Dispatcher{remote: remote, log: slog.Default()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// local resolves the active backend when this process owns the registry.
func (d *Dispatcher) local() (store.Backend, bool) {
	if d.registry == nil {
		return nil, false
	}
	b, err := d.registry.Active()
	if err != nil {
		return nil, false
	}
	return b, true
}

// GetValue returns the value stored under domain/key. An absent key yields
// an empty value.
func (d *Dispatcher) GetValue(ctx context.Context, domain, key string) (value string, err error) {
	defer d.record(ActionGet, domain, time.Now(), &err)

	if b, ok := d.local(); ok {
		return b.Get(domain, key)
	}
	resp, err := d.callRemote(ctx, Request{
		"action": ActionGet,
		"domain": domain,
		"key":    key,
	})
	if err != nil {
		return "", err
	}
	if len(resp) > 0 {
		return resp[0]["v"], nil
	}
	return "", nil
}

// SetValue stores value under domain/key.
func (d *Dispatcher) SetValue(ctx context.Context, domain, key, value string) (err error) {
	defer d.record(ActionPut, domain, time.Now(), &err)

	if b, ok := d.local(); ok {
		return b.Put(domain, key, value)
	}
	_, err = d.callRemote(ctx, Request{
		"action": ActionPut,
		"domain": domain,
		"key":    key,
		"value":  value,
	})
	return err
}

// DeleteValue removes the value stored under domain/key.
func (d *Dispatcher) DeleteValue(ctx context.Context, domain, key string) (err error) {
	defer d.record(ActionRemove, domain, time.Now(), &err)

	if b, ok := d.local(); ok {
		return b.Remove(domain, key)
	}
	_, err = d.callRemote(ctx, Request{
		"action": ActionRemove,
		"domain": domain,
		"key":    key,
	})
	return err
}

// ScanKeys returns up to max keys in domain, unbounded when max is zero.
func (d *Dispatcher) ScanKeys(ctx context.Context, domain string, max int) ([]string, error) {
	return d.ScanKeysWithPrefix(ctx, domain, "", max)
}

// ScanKeysWithPrefix returns up to max keys in domain starting with
// prefix, unbounded when max is zero.
func (d *Dispatcher) ScanKeysWithPrefix(ctx context.Context, domain, prefix string, max int) (keys []string, err error) {
	defer d.record(ActionScan, domain, time.Now(), &err)

	if b, ok := d.local(); ok {
		return b.Scan(domain, prefix, max)
	}
	resp, err := d.callRemote(ctx, Request{
		"action": ActionScan,
		"domain": domain,
		"prefix": prefix,
		"max":    strconv.Itoa(max),
	})
	if err != nil {
		return nil, err
	}
	for _, item := range resp {
		if key, ok := item["k"]; ok {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

// Dump writes every domain/key/value triple of the baseline domains to w,
// one "domain[key]: value" line per record. A dump is best-effort: scan or
// get failures are logged and skipped, and processing continues.
func (d *Dispatcher) Dump(ctx context.Context, w io.Writer) error {
	for _, domain := range store.Domains {
		keys, err := d.ScanKeys(ctx, domain, 0)
		if err != nil {
			d.log.Warn("dump: scan failed, skipping domain", "domain", domain, "error", err)
			continue
		}
		for _, key := range keys {
			value, err := d.GetValue(ctx, domain, key)
			if err != nil {
				d.log.Warn("dump: get failed, skipping key", "domain", domain, "key", key, "error", err)
				continue
			}
			if _, err := fmt.Fprintf(w, "%s[%s]: %s\n", domain, key, value); err != nil {
				return err
			}
		}
	}
	return nil
}

func (d *Dispatcher) callRemote(ctx context.Context, req Request) (Response, error) {
	if d.remote == nil {
		return nil, hwerrors.NewBackendError(hwerrors.CodeBackendUnavailable,
			"no active backend and no remote channel configured", nil)
	}
	return d.remote.Call(ctx, req)
}

func (d *Dispatcher) record(action, domain string, start time.Time, err *error) {
	if d.stats == nil {
		return
	}
	d.stats.Record(action, domain, time.Since(start), *err)
}
