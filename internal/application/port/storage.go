package port

import "context"

// ExportStore persists generated accounting artifacts under relative keys
type ExportStore interface {
	Save(ctx context.Context, key string, content []byte) error
	Read(ctx context.Context, key string) ([]byte, error)
	Exists(ctx context.Context, key string) bool

	// Locate returns where key is stored, for log lines and notifications
	Locate(key string) string
}
