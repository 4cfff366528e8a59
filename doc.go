// Package bucketkit is a provider-agnostic storage abstraction. A Session
// owns named Providers, each wrapping one backend driver; Providers own
// Buckets, named namespaces addressed session-wide by unique aliases and
// canonical file URIs of the form
//
//	providerName://bucketAlias/path/to/file
//
// Backends implement a four-primitive contract (Put, Open, Remove, List);
// the generic engine builds everything else on top of it: recursive
// listings, pattern-filtered batch copy/move/delete, empty-directory
// cleanup, and entry hydration. Optional capabilities (native copy, move,
// stat, signed URLs, bucket management) are discovered by type assertion
// and replaced with generic fallbacks when absent.
//
// Basic usage with the in-memory driver:
//
//	import (
//	    "github.com/gobeaver/bucketkit"
//	    _ "github.com/gobeaver/bucketkit/driver/memory"
//	)
//
//	session := bucketkit.NewSession(nil)
//	provider, err := session.AddProviderFromURI(ctx, "memory://cache?crossBucket=true")
//	if err != nil { ... }
//	bucket, err := provider.AddBucket(ctx, "assets", nil)
//	if err != nil { ... }
//
//	_, err = bucket.PutFile(ctx, bucketkit.Path("img/logo.png"), file)
//	results, err := bucket.CopyFiles(ctx,
//	    bucketkit.Path("img"), bucketkit.Path("backup"), "**/*.png")
//
// Paths are normalized on every call: URL-decoded, lower-cased, and each
// segment slugged, so user-supplied names become safe storage keys.
package bucketkit
