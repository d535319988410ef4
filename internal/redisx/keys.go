package redisx

import "time"

const (
	// Open cart summary per session: cart:open:{session_id} -> JSON array
	KeyOpenCart = "cart:open:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"

	// Catalog mirror document store: one hash, field per item id.
	KeyMirrorItems = "mirror:items"
)

var (
	TTLOpenCart = 5 * time.Minute
	TTLDedup    = 48 * time.Hour
)
