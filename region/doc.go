// Package region reads and writes sector-allocated region container files.
//
// # Overview
//
// A region file stores up to 1024 independently compressed chunk records for
// a 32x32 chunk area. The file is allocated in 4096-byte sectors; a two-
// sector header holds the offset table (which sectors each chunk occupies)
// and a modification-time table. The free-sector bitmap is not stored on
// disk: it is rebuilt from the offset table every time a file is opened.
//
// # Components
//
// File owns one open container and performs record reads, first-fit sector
// allocation for writes, and deletes. Manager owns a cache of open File
// handles for one directory of region files, mapping chunk coordinates to
// the region that stores them.
//
// # Durability
//
// Write flushes the record body with fdatasync before updating the offset
// word that names it, so a crash mid-write can never leave the offset table
// pointing at sectors that were not fully written. Header corruption can
// orphan a whole region; an unwritten body loses only one chunk.
//
// # Concurrency
//
// Neither File nor Manager locks internally. A host embedding this engine
// must serialize all access to a given region file, typically with one
// owning goroutine per open world.
package region
