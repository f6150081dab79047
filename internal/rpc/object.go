package rpc

// Object is one node of a decoded response tree.
type Object = map[string]any

// Str extracts a string field, returning "" when absent or mistyped.
func Str(obj Object, key string) string {
	v, _ := obj[key].(string)
	return v
}

// Bool extracts a boolean field, returning false when absent or mistyped.
func Bool(obj Object, key string) bool {
	v, _ := obj[key].(bool)
	return v
}

// Int64 extracts an integer field across the numeric representations a
// transport codec may produce.
func Int64(obj Object, key string) int64 {
	switch v := obj[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case float64:
		return int64(v)
	}
	return 0
}

// Int is Int64 narrowed for counts.
func Int(obj Object, key string) int {
	return int(Int64(obj, key))
}

// Map extracts a nested object, returning nil when absent or mistyped.
func Map(obj Object, key string) Object {
	v, _ := obj[key].(map[string]any)
	return v
}

// List extracts a list of nested objects, skipping mistyped elements.
func List(obj Object, key string) []Object {
	raw, _ := obj[key].([]any)
	if raw == nil {
		return nil
	}
	out := make([]Object, 0, len(raw))
	for _, el := range raw {
		if m, ok := el.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

// FirstChat returns the first chat object of a response, looking at the
// "chats" list first and a singular "chat" field as fallback. Join and
// resolve responses carry the affected channel this way.
func FirstChat(obj Object) Object {
	if chats := List(obj, "chats"); len(chats) > 0 {
		return chats[0]
	}
	return Map(obj, "chat")
}
