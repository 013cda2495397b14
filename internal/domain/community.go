package domain

import "time"

// Community is a registry entry for an indexed community.
type Community struct {
	Slug       string
	Name       string
	ChunkCount int
	IndexedAt  time.Time
}
