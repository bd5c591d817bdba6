package object

// Export converts v into a tree of plain Go values (nil, int64, float64,
// string, []any and map[string]any) suitable for generic encoders. Adjuncts
// whose key is listed in elide are left out. A struct that contains itself
// is cut at the repeat with a {"cycle": true} marker.
func Export(v Value, elide ...Key) any {
	x := exporter{elide: elide, path: map[Value]bool{}}
	return x.export(v)
}

type exporter struct {
	elide []Key
	path  map[Value]bool
}

func (x *exporter) export(v Value) any {
	if v == nil || IsNone(v) {
		return nil
	}
	if x.path[v] {
		return map[string]any{"cycle": true}
	}
	x.path[v] = true
	defer delete(x.path, v)

	var out map[string]any
	switch v := v.(type) {
	case *Symbol:
		out = map[string]any{"symbol": v.Name()}
	case *Boxed:
		out = map[string]any{"boxed": v.Content}
	case *Struct:
		fields := make([]any, 0, v.Len())
		for _, k := range v.Keys() {
			fields = append(fields, []any{exportKey(k), x.export(v.Component(k))})
		}
		out = map[string]any{"fields": fields}
	case *Suspended:
		out = map[string]any{"chain": v.Body.String()}
	default:
		out = map[string]any{"unknown": v.Inspect()}
	}

	var adj []any
	for _, k := range AdjunctKeys(v) {
		if x.elided(k) {
			continue
		}
		adj = append(adj, []any{exportKey(k), x.export(v.Adjunct(k))})
	}
	if len(adj) > 0 {
		out["adjuncts"] = adj
	}
	return out
}

func (x *exporter) elided(k Key) bool {
	for _, e := range x.elide {
		if e == k {
			return true
		}
	}
	return false
}

func exportKey(k Key) any {
	if k.IsName() {
		return k.Label()
	}
	return int64(k.Position())
}
