// Package digestcache caches blake3 digests of stored icon assets.
//
// Identities are never reused, so a cached digest stays correct for as long
// as the asset exists. Callers still open the file before serving it.
package digestcache
