package core

import (
	"regexp"

	"go.uber.org/zap"
)

// uuidPattern matches the hex unique IDs the host UI assigns to extra
// sensors. Standard per-entry sensors use "<entry_id>-<kind>" IDs and
// are never cleaned up here.
var uuidPattern = regexp.MustCompile(`^[0-9a-f]{32}$`)

// cleanupRegistry removes registry entities whose UUID-shaped unique ID
// no longer appears in any entry's configured extra sensors. The keep
// set spans all entries because the registry cannot tell which entry a
// sensor belonged to. Called after entry options change.
func (d *Daemon) cleanupRegistry() {
	keep := make(map[string]bool)
	for _, e := range d.entries.Entries() {
		for _, s := range e.Options.Sensors {
			keep[s.UniqueID] = true
		}
	}

	entities, err := d.host.ListEntities()
	if err != nil {
		d.log.Warn("entity registry list failed", zap.Error(err))
		return
	}

	for _, e := range entities {
		if e.Platform != "sun2" {
			continue
		}
		if !uuidPattern.MatchString(e.UniqueID) || keep[e.UniqueID] {
			continue
		}
		if err := d.host.RemoveEntity(e.EntityID); err != nil {
			d.log.Warn("entity registry remove failed",
				zap.String("entity_id", e.EntityID),
				zap.Error(err))
			continue
		}
		d.log.Info("removed stale registry entity",
			zap.String("entity_id", e.EntityID),
			zap.String("unique_id", e.UniqueID))
	}
}
