package repository

import "context"

// Fetcher downloads the raw bytes of an asset.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// ContentWriter persists content under outputRoot at the location mirroring urlPath.
type ContentWriter interface {
	// Write returns the local path it wrote to. Existing files are overwritten.
	Write(ctx context.Context, outputRoot, urlPath string, content []byte) (string, error)
}
