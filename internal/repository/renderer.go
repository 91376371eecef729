package repository

import "context"

// Renderer launches browser-like sessions able to load a URL and expose its DOM.
type Renderer interface {
	Launch(ctx context.Context) (RenderSession, error)
}

// RenderSession renders one page at a time.
type RenderSession interface {
	// Open navigates to url. A failure here is a navigation error.
	Open(ctx context.Context, url string) (Page, error)
	Close() error
}

// Page is a rendered document.
type Page interface {
	// URL is the address the page was opened with.
	URL() string
	// Content returns the serialized DOM.
	Content(ctx context.Context) (string, error)
	// Query returns the elements matching a CSS selector in document order.
	Query(ctx context.Context, selector string) ([]Element, error)
}

// Element is a handle to a DOM element.
type Element interface {
	// Property reads a DOM property. Missing properties yield "".
	Property(ctx context.Context, name string) (string, error)
}
