package codec

import "go.uber.org/zap"

// Specialize resolves an extension-point base type against a payload
// mapping: it picks the registered subtype whose full field set covers
// every key in the payload and fits it most tightly. Candidates from the
// caller's module are preferred over candidates from other modules; among
// the remaining pool the one with the fewest fields beyond the payload's
// keys wins, with ties broken by registration order. Specialization never
// goes deeper than the payload's keys force, so a payload shaped like a
// mid-chain subtype resolves to that subtype, not to its descendants, and a
// payload shaped like the base keeps the base. The base is kept unless the
// winner is strictly more specific than it.
func (e *Engine) Specialize(base *RecordDescriptor, payload map[string]interface{}, callerModule string) *RecordDescriptor {
	if base == nil {
		return base
	}

	subs := e.dir.Subtypes(base.Name)
	if len(subs) == 0 {
		return base
	}

	candidates := make([]*RecordDescriptor, 0, len(subs))
	for _, sub := range subs {
		if e.covers(sub, payload) {
			candidates = append(candidates, sub)
		}
	}
	if len(candidates) == 0 {
		return base
	}

	pool := candidates
	if callerModule != "" {
		sameModule := make([]*RecordDescriptor, 0, len(candidates))
		for _, c := range candidates {
			if c.Module == callerModule {
				sameModule = append(sameModule, c)
			}
		}
		if len(sameModule) > 0 {
			pool = sameModule
		}
	}

	selected := pool[0]
	selectedExtra := e.extraFields(selected, payload)
	for _, c := range pool[1:] {
		if n := e.extraFields(c, payload); n < selectedExtra {
			selected = c
			selectedExtra = n
		}
	}

	// The base competes as the tightest fit too: when it covers the payload
	// at least as tightly as the winner, nothing forces specialization
	if e.covers(base, payload) && e.extraFields(base, payload) <= selectedExtra {
		return base
	}

	// Only switch when the winner is strictly more specific than the base
	if selected.Name != base.Name && len(e.dir.FieldsOf(selected)) > len(e.dir.FieldsOf(base)) {
		e.logger.Debug("specialized extension point",
			zap.String("base", base.Name),
			zap.String("selected", selected.Name),
		)
		return selected
	}
	return base
}

// extraFields counts declared fields of the candidate that the payload does
// not mention. The tightest fit has the fewest.
func (e *Engine) extraFields(desc *RecordDescriptor, payload map[string]interface{}) int {
	extra := 0
	for _, f := range e.dir.FieldsOf(desc) {
		if _, ok := payload[f.Name]; !ok {
			extra++
		}
	}
	return extra
}

// covers reports whether every payload key names a declared field of the
// candidate descriptor.
func (e *Engine) covers(desc *RecordDescriptor, payload map[string]interface{}) bool {
	fields := e.dir.FieldsOf(desc)
	names := make(map[string]bool, len(fields))
	for _, f := range fields {
		names[f.Name] = true
	}
	for key := range payload {
		if !names[key] {
			return false
		}
	}
	return true
}
