// Package storage persists rendered transcripts.
//
// Two backends implement [Store]:
//   - [FileStore]: timestamp-suffixed PNG files in a directory, used by the CLI
//   - [MongoStore]: documents in a MongoDB collection, used by the HTTP server
//
// # Usage
//
//	store, err := storage.NewFileStore("out")
//	if err != nil {
//	    return err
//	}
//	path, err := store.Save(ctx, "deploy", png) // out/deploy_2024-05-01_12-30-00.png
package storage

import (
	"context"
	"time"
)

// TimestampFormat is appended to saved names.
const TimestampFormat = "2006-01-02_15-04-05"

// Record is one persisted render.
type Record struct {
	ID        string    `bson:"_id" json:"id"`
	Name      string    `bson:"name" json:"name"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	Data      []byte    `bson:"data" json:"-"`
}

// Store is the interface for render persistence backends.
type Store interface {
	// Save persists data under name and returns the record ID.
	Save(ctx context.Context, name string, data []byte) (string, error)

	// Get returns the record saved under id.
	// Returns an error with code NOT_FOUND if it does not exist.
	Get(ctx context.Context, id string) (*Record, error)

	// Close releases backend resources.
	Close() error
}

// StampedName returns "<name>_<timestamp>".
func StampedName(name string, t time.Time) string {
	return name + "_" + t.Format(TimestampFormat)
}
