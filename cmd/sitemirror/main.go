// Package main provides the entry point for the sitemirror CLI.
//
// sitemirror renders every page of a site, follows its links depth-first and
// writes pages plus their stylesheets, images, videos and scripts to disk
// under paths that mirror the URL pathnames.
//
// Usage:
//
//	sitemirror --url https://example.com/ --only-host example.com --out ./mirror
//	sitemirror serve --out ./mirrors
//
// See --help for all available options.
package main

import "os"

func main() {
	os.Exit(Execute())
}
