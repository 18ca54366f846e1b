package breadcrumbs

// IsRecord reports whether v is a plain key/value mapping as produced by
// decoding JSON or TOML into an empty interface.
func IsRecord(v any) bool {
	m, ok := v.(map[string]any)
	return ok && m != nil
}

// IsAwaitable reports whether v is a value that settles later: a Future, or
// a Promisable that has not been realised yet.
func IsAwaitable(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case settler:
		return true
	case interface{ IsAwaitable() bool }:
		return x.IsAwaitable()
	default:
		return false
	}
}
