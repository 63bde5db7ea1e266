/*
Package cache implements the local document cache: a flat directory of
blobs addressed by caller-supplied keys, kept under a configured size
ceiling by oldest-first eviction.

# Keys

Keys name files directly inside the cache root. Callers embed a document
identifier and a revision token in the key (see DocumentKey) so an updated
document gets a fresh entry and the stale one simply ages out. Keys with
path separators are rejected, so the cache never creates subdirectories.

# Size accounting

A Manager keeps a running estimate of the bytes stored under its root. The
estimate starts unknown and is rebuilt from a non-recursive directory scan
whenever it is unknown or when the next write would push it past the
ceiling; between scans it is updated in memory only. Before each write to a
root that already existed, MaintainCache adds the pending size and, if the
ceiling is exceeded, deletes files in ascending modification-time order
until the total drops below the resize target. Eviction is best effort: if
every file is gone and the total is still high, the write proceeds anyway.

All mutations for a root go through a single mutex. Reads take no lock and
treat a file that disappears mid-read as a miss.

The estimate is per process. Two processes sharing one root can overshoot
the ceiling.
*/
package cache
