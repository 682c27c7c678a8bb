package core

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/home-assistant-blueprints/sun2-go/internal/config"
	"github.com/home-assistant-blueprints/sun2-go/internal/entity"
	"github.com/home-assistant-blueprints/sun2-go/internal/location"
	"github.com/home-assistant-blueprints/sun2-go/internal/types"
)

// HostClient is the slice of the host API the daemon needs.
type HostClient interface {
	GetConfig() (types.HAConfig, error)
	ListEntities() ([]types.EntityEntry, error)
	RemoveEntity(entityID string) error
	SubscribeCoreConfigUpdated(callback func(*types.HAEvent)) (func(), error)
}

// Config collects the daemon's collaborators.
type Config struct {
	Host       HostClient
	Publisher  entity.Publisher
	Entries    *config.Store
	Locations  *location.Store
	Notifier   *location.Notifier
	Loop       *Loop
	ConfigPath string
	Log        *zap.Logger
}

// Daemon owns the entity lifecycle: it builds entities from config
// entries, keeps the default location fresh, and reacts to host core
// config updates. All state mutation happens on the event loop.
type Daemon struct {
	host       HostClient
	pub        entity.Publisher
	entries    *config.Store
	locations  *location.Store
	notifier   *location.Notifier
	loop       *Loop
	log        *zap.Logger
	configPath string
	build      *builder

	cfgMu    sync.RWMutex
	cfg      types.HAConfig
	cfgKnown bool

	entities          map[string][]Entity
	unsubscribeConfig func()
}

// New creates a daemon. Start must be called before the loop runs.
func New(cfg Config) *Daemon {
	sched := NewScheduler(cfg.Loop)
	return &Daemon{
		host:       cfg.Host,
		pub:        cfg.Publisher,
		entries:    cfg.Entries,
		locations:  cfg.Locations,
		notifier:   cfg.Notifier,
		loop:       cfg.Loop,
		log:        cfg.Log.Named("core"),
		configPath: cfg.ConfigPath,
		build: &builder{
			store:    cfg.Locations,
			notifier: cfg.Notifier,
			sched:    sched,
			pub:      cfg.Publisher,
			log:      cfg.Log.Named("entity"),
		},
		entities: make(map[string][]Entity),
	}
}

// Start fetches the host configuration, loads and reconciles config
// entries, builds all entities and subscribes to core config updates.
func (d *Daemon) Start() error {
	cfg, err := d.host.GetConfig()
	if err != nil {
		return err
	}
	d.setConfig(cfg)
	if _, err := d.locations.RefreshDefault(cfg); err != nil {
		return err
	}

	if err := d.entries.Load(); err != nil {
		return err
	}
	if err := d.reconcileFile(); err != nil {
		return err
	}
	d.syncEntries(nil)

	unsub, err := d.host.SubscribeCoreConfigUpdated(func(*types.HAEvent) {
		d.loop.Submit(d.onCoreConfigUpdated)
	})
	if err != nil {
		return err
	}
	d.unsubscribeConfig = unsub

	d.log.Info("started",
		zap.String("location", cfg.LocationName),
		zap.Int("entries", len(d.entries.Entries())))
	return nil
}

// Stop tears down all entities and the host subscription.
func (d *Daemon) Stop() {
	if d.unsubscribeConfig != nil {
		d.unsubscribeConfig()
		d.unsubscribeConfig = nil
	}
	for id := range d.entities {
		d.removeEntry(id)
	}
}

// DefaultParams returns the host's own location parameters. Safe to
// call from any goroutine.
func (d *Daemon) DefaultParams() (types.LocParams, bool) {
	d.cfgMu.RLock()
	defer d.cfgMu.RUnlock()
	if !d.cfgKnown {
		return types.LocParams{}, false
	}
	return types.LocParams{
		Elevation: d.cfg.Elevation,
		Latitude:  d.cfg.Latitude,
		Longitude: d.cfg.Longitude,
		TimeZone:  d.cfg.TimeZone,
	}, true
}

// Reload re-imports the YAML config file on the loop. Wired to the
// reload service.
func (d *Daemon) Reload(ctx context.Context) error {
	var reloadErr error
	if err := d.loop.Do(ctx, func() {
		reloadErr = d.reload()
	}); err != nil {
		return err
	}
	return reloadErr
}

// OnEntryUpdated rebuilds an entry's entities after its options
// changed. Wired to the update_location service, which runs its
// mutations on the loop, so this must be called from loop context.
func (d *Daemon) OnEntryUpdated(entry *config.Entry) {
	d.rebuildEntry(entry)
	d.cleanupRegistry()
}

func (d *Daemon) setConfig(cfg types.HAConfig) {
	d.cfgMu.Lock()
	d.cfg = cfg
	d.cfgKnown = true
	d.cfgMu.Unlock()
}

func (d *Daemon) getConfig() types.HAConfig {
	d.cfgMu.RLock()
	defer d.cfgMu.RUnlock()
	return d.cfg
}

// defaultTitle is the title given to imported entries without an
// explicit location name.
func (d *Daemon) defaultTitle() string {
	cfg := d.getConfig()
	if cfg.LocationName != "" {
		return cfg.LocationName
	}
	return "Home"
}

// reconcileFile re-reads the YAML config and applies the import result
// to the entry store.
func (d *Daemon) reconcileFile() error {
	fileCfg, err := config.LoadFile(d.configPath)
	if err != nil {
		return err
	}
	result := d.entries.Import(fileCfg, d.defaultTitle())
	if len(result.Added)+len(result.Updated)+len(result.Removed) > 0 {
		d.log.Info("config file reconciled",
			zap.Int("added", len(result.Added)),
			zap.Int("updated", len(result.Updated)),
			zap.Int("removed", len(result.Removed)))
	}
	return d.entries.Save()
}

// reload re-imports the config file and syncs the entity sets of
// changed entries.
func (d *Daemon) reload() error {
	fileCfg, err := config.LoadFile(d.configPath)
	if err != nil {
		return err
	}
	result := d.entries.Import(fileCfg, d.defaultTitle())
	rebuild := make(map[string]bool, len(result.Updated))
	for _, e := range result.Updated {
		rebuild[e.ID] = true
	}
	d.syncEntries(rebuild)
	if len(result.Updated)+len(result.Removed) > 0 {
		d.cleanupRegistry()
	}
	return d.entries.Save()
}

// syncEntries brings the live entity sets in line with the entry store:
// entities of vanished entries are removed, new entries get entities,
// and entries flagged in rebuild are torn down and rebuilt.
func (d *Daemon) syncEntries(rebuild map[string]bool) {
	want := make(map[string]*config.Entry)
	for _, e := range d.entries.Entries() {
		want[e.ID] = e
	}
	for id := range d.entities {
		if _, ok := want[id]; !ok {
			d.removeEntry(id)
		}
	}
	for id, e := range want {
		if _, ok := d.entities[id]; !ok {
			d.addEntry(e)
		} else if rebuild[id] {
			d.rebuildEntry(e)
		}
	}
}

func (d *Daemon) addEntry(entry *config.Entry) {
	ents := d.build.build(entry)
	for _, ent := range ents {
		if err := ent.Update(); err != nil {
			d.log.Error("entity update failed",
				zap.String("entity_id", ent.EntityID()),
				zap.Error(err))
		}
	}
	d.entities[entry.ID] = ents
}

func (d *Daemon) removeEntry(id string) {
	for _, ent := range d.entities[id] {
		ent.Remove()
	}
	delete(d.entities, id)
}

func (d *Daemon) rebuildEntry(entry *config.Entry) {
	d.removeEntry(entry.ID)
	d.addEntry(entry)
}

// onCoreConfigUpdated handles the host's core_config_updated event. A
// pure location change refreshes the default location and broadcasts
// it; a location_name or language change additionally retitles entries
// tracking the host location and re-imports the config file.
func (d *Daemon) onCoreConfigUpdated() {
	newCfg, err := d.host.GetConfig()
	if err != nil {
		d.log.Warn("get_config failed after core_config_updated", zap.Error(err))
		return
	}
	old := d.getConfig()
	d.setConfig(newCfg)

	data, err := d.locations.RefreshDefault(newCfg)
	if err != nil {
		d.log.Error("default location refresh failed", zap.Error(err))
		return
	}

	if old.LocationName == newCfg.LocationName && old.Language == newCfg.Language {
		d.notifier.Broadcast(data)
		return
	}

	// Every host-tracking entry holds stale default data now, not just
	// the ones named after the host.
	for _, e := range d.entries.Entries() {
		if e.Options.HasLocation() {
			continue
		}
		if e.Title == old.LocationName {
			if _, err := d.entries.UpdateTitle(e.ID, newCfg.LocationName); err != nil {
				d.log.Warn("entry retitle failed",
					zap.String("entry", e.ID), zap.Error(err))
			}
		}
		d.rebuildEntry(e)
	}
	if err := d.reload(); err != nil {
		d.log.Error("reload after core_config_updated failed", zap.Error(err))
	}
}
