package app

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"unitymcp/internal/domain"
	infraConfig "unitymcp/internal/infra/config"
)

const defaultReloadDebounce = 200 * time.Millisecond

// DynamicConfigProvider loads the configuration once, then watches the
// override file and the unity-port.txt file for changes. Snapshots are
// immutable; a new revision is published only when something changed.
type DynamicConfigProvider struct {
	logger     *zap.Logger
	loader     *infraConfig.Loader
	configPath string
	metrics    domain.Metrics

	state    atomic.Value
	revision atomic.Uint64

	subsMu sync.Mutex
	subs   map[chan domain.ConfigUpdate]struct{}

	reloadMu  sync.Mutex
	watchOnce sync.Once
	watchCtx  context.Context
}

// NewDynamicConfigProvider performs the initial load and prepares watching.
// A broken override file fails construction; a missing or invalid port file
// never does.
func NewDynamicConfigProvider(ctx context.Context, configPath string, loader *infraConfig.Loader, metrics domain.Metrics, logger *zap.Logger) (*DynamicConfigProvider, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	cfg, source, err := loader.Load(ctx, configPath)
	if metrics != nil {
		metrics.RecordConfigLoad(err)
	}
	if err != nil {
		return nil, err
	}
	if metrics != nil {
		metrics.RecordPortResolution(source)
		metrics.SetConfigRevision(1)
	}

	provider := &DynamicConfigProvider{
		logger:     logger.Named("config_provider"),
		loader:     loader,
		configPath: configPath,
		metrics:    metrics,
		subs:       make(map[chan domain.ConfigUpdate]struct{}),
		watchCtx:   ctx,
	}
	state := domain.NewConfigState(cfg, source, 1, time.Now())
	provider.state.Store(state)
	provider.revision.Store(state.Revision)
	return provider, nil
}

// Snapshot returns the current configuration snapshot.
func (p *DynamicConfigProvider) Snapshot(ctx context.Context) (domain.ConfigState, error) {
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return domain.ConfigState{}, err
		}
	}
	return p.state.Load().(domain.ConfigState), nil
}

// Watch subscribes to configuration updates. The subscription ends when ctx
// is cancelled.
func (p *DynamicConfigProvider) Watch(ctx context.Context) (<-chan domain.ConfigUpdate, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ch := make(chan domain.ConfigUpdate, 1)
	p.subsMu.Lock()
	p.subs[ch] = struct{}{}
	p.subsMu.Unlock()

	p.watchOnce.Do(func() {
		go p.runWatcher(p.watchCtx)
	})

	go func() {
		<-ctx.Done()
		p.subsMu.Lock()
		delete(p.subs, ch)
		p.subsMu.Unlock()
	}()

	return ch, nil
}

// Reload forces one resolution pass.
func (p *DynamicConfigProvider) Reload(ctx context.Context) error {
	return p.reload(ctx, domain.ConfigUpdateSourceManual)
}

func (p *DynamicConfigProvider) reload(ctx context.Context, source domain.ConfigUpdateSource) error {
	p.reloadMu.Lock()
	defer p.reloadMu.Unlock()

	if ctx == nil {
		ctx = context.Background()
	}

	prev := p.state.Load().(domain.ConfigState)
	cfg, portSource, err := p.loader.Load(ctx, p.configPath)
	if p.metrics != nil {
		p.metrics.RecordReload(source, err)
	}
	if err != nil {
		return err
	}

	nextRevision := p.revision.Load() + 1
	next := domain.NewConfigState(cfg, portSource, nextRevision, time.Now())

	diff := domain.DiffConfigStates(prev, next)
	if diff.IsEmpty() {
		return nil
	}

	p.revision.Store(nextRevision)
	p.state.Store(next)
	if p.metrics != nil {
		p.metrics.RecordPortResolution(portSource)
		p.metrics.SetConfigRevision(nextRevision)
	}
	p.logger.Info("configuration updated",
		zap.Uint64("revision", nextRevision),
		zap.Strings("changed", diff.ChangedFields),
		zap.String("portSource", string(next.PortSource)),
	)
	p.broadcast(domain.ConfigUpdate{
		Snapshot: next,
		Diff:     diff,
		Source:   source,
	})
	return nil
}

func (p *DynamicConfigProvider) broadcast(update domain.ConfigUpdate) {
	for _, ch := range p.copySubscribers() {
		select {
		case ch <- update:
		default:
		}
	}
}

func (p *DynamicConfigProvider) copySubscribers() []chan domain.ConfigUpdate {
	p.subsMu.Lock()
	defer p.subsMu.Unlock()

	out := make([]chan domain.ConfigUpdate, 0, len(p.subs))
	for ch := range p.subs {
		out = append(out, ch)
	}
	return out
}

func (p *DynamicConfigProvider) runWatcher(ctx context.Context) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		p.logger.Warn("config watcher failed", zap.Error(err))
		return
	}
	defer watcher.Close()

	for _, path := range p.watchPaths() {
		if err := watcher.Add(path); err != nil {
			p.logger.Warn("config watcher add failed", zap.String("path", path), zap.Error(err))
		}
	}

	var timer *time.Timer
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-watcher.Errors:
			if err != nil {
				p.logger.Warn("config watcher error", zap.Error(err))
			}
		case event := <-watcher.Events:
			if !p.shouldReloadForPath(event.Name) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(defaultReloadDebounce)
				continue
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(defaultReloadDebounce)
		case <-timerChan(timer):
			timer = nil
			if err := p.reload(ctx, domain.ConfigUpdateSourceWatch); err != nil {
				p.logger.Warn("config reload failed", zap.Error(err))
			}
		}
	}
}

// watchPaths returns the directories holding the override inputs. Watching
// directories instead of files survives editors that replace-on-save.
func (p *DynamicConfigProvider) watchPaths() []string {
	dirs := make(map[string]struct{}, 2)
	if p.configPath != "" {
		dirs[filepath.Dir(p.configPath)] = struct{}{}
	}
	dirs[filepath.Dir(p.loader.PortFilePath())] = struct{}{}

	out := make([]string, 0, len(dirs))
	for dir := range dirs {
		out = append(out, dir)
	}
	return out
}

func (p *DynamicConfigProvider) shouldReloadForPath(path string) bool {
	if path == "" {
		return false
	}
	cleaned := filepath.Clean(path)
	if p.configPath != "" && cleaned == filepath.Clean(p.configPath) {
		return true
	}
	return cleaned == filepath.Clean(p.loader.PortFilePath())
}

func timerChan(timer *time.Timer) <-chan time.Time {
	if timer == nil {
		return nil
	}
	return timer.C
}
