package export

import "fmt"

// GetOrMakeLabel returns the stable label for unit, registering it with an
// auto-generated label on first sight. Lookups are idempotent: an already
// registered unit always gets back the label it was given the first time.
//
// Auto-generated labels are "{kind}-{ordinal}" where the ordinal counts
// auto-labeled units of the same kind. By default the per-kind counter
// advances only when a new unit is registered; WithLegacyLabelNumbering
// restores the historical behavior of advancing it on every lookup, which
// desynchronizes ordinals of later units but matches runs labeled by
// older tooling.
func (e *Exporter) GetOrMakeLabel(unit Unit) string {
	if label, ok := e.labels[unit]; ok {
		if e.legacyNumbering {
			e.kindCounter[unit.UnitKind()]++
		}
		return label
	}

	kind := unit.UnitKind()
	label := fmt.Sprintf("%s-%d", kind, e.kindCounter[kind])
	e.kindCounter[kind]++
	e.register(label, unit)
	return label
}

// Track registers unit under an auto-generated label and returns it.
// Tracking an already registered unit returns its existing label.
func (e *Exporter) Track(unit Unit) string {
	return e.GetOrMakeLabel(unit)
}

// TrackNamed registers unit under an explicit label, which wins over any
// auto-generated one. Re-tracking a registered unit keeps its first label.
func (e *Exporter) TrackNamed(name string, unit Unit) string {
	if label, ok := e.labels[unit]; ok {
		return label
	}
	e.register(name, unit)
	return name
}

// Tracked returns the labels of all registered units in registration
// order.
func (e *Exporter) Tracked() []string {
	return append([]string(nil), e.order...)
}
