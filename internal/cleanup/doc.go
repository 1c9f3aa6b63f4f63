// Package cleanup deletes uploaded icon assets that no folder references.
//
// Two paths lead to deletion. The lifecycle hooks, OnEntityDeleted and
// OnEntityReplaced, release the single asset a folder stopped using, but only
// when no other folder still references it. Sweep is the administrative
// garbage collector: it lists every stored asset and deletes all that are not
// in the reference index.
//
// The hooks never return errors. A failed lookup or delete is logged at warn
// and the asset stays on disk until the next Sweep.
package cleanup
