// Package objectstore is the ObjectStore port: put/get audio bytes at a
// stable key and hand back a playable URL. Transport (S3, GCS, local disk) is
// out of scope; the Audio Dispatcher (C8) depends only on this interface.
package objectstore

import "context"

// Store puts and gets audio objects keyed by a fixed path shape:
// restaurants/<restaurant_id>/canned/<phrase_id>.mp3 and
// restaurants/<restaurant_id>/tts/<hash>.mp3.
type Store interface {
	// Put stores bytes at key and returns the URL clients fetch it from.
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	// Get returns the URL for an existing object, or "" if it does not exist.
	// Get never returns an error for a miss; only for a transport failure.
	Get(ctx context.Context, key string) (string, error)
}
