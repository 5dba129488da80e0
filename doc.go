/*
Package naming implements the persistence and activation core of a
hierarchical naming service: containers (“contexts”) hold bindings from
names to objects or to other containers, and live on disk until somebody
asks for them.

We implement:

1. Stores, durable key to record persistence: one file per container
(FileStore), a single Bolt database (BoltStore), or memory (MemStore).

2. The Allocator, which mints object keys from a persisted counter.

3. The Manager, an activation cache that loads containers on demand and keeps
at most one live instance per key.

4. Enumerators, single-use cursors over a snapshot of a container's bindings,
tracked by a Registry under opaque handles.

# Technical Details

**Object keys.**
A key is a prefix (“NC” by default) followed by a decimal counter value.
The root container is always prefix + "0", so bootstrap code needs no lookup;
the allocator starts at 0 and never returns it.

**Counter durability.**
The allocator writes the incremented counter before returning it. A crash
after the write wastes one value; a crash before it is invisible to callers.
A missing or corrupt counter is reinitialized past the largest existing key.

**Creation conflicts.**
Register never overwrites: when a record for the key already exists, the
existing persisted content wins and the caller's record is discarded.
Update is the unconditional overwrite.

**Errors.**
A missing record is ErrNotFound. Undecodable data is ErrCorruptData and
filesystem or database failures are ErrIOFailure; neither is ever reported
as not found.

## Binary encoding

**Container file**: envelope version (1 byte), payload size (uvarint),
payload, xxhash64 of the preceding bytes (8 bytes, little-endian).

**Payload**: msgpack of the bindings sorted by name, each an
{id, kind, type, ref} map (see MsgPackCodec). Other codecs can be plugged in
via Options.Codec; the envelope does not care.

**Counter file**: envelope version (1 byte), counter (8 bytes LE), xxhash64
(8 bytes LE).

**Atomicity.**
FileStore writes to a temporary file, syncs it, and renames it into place
(links it, for Save, so an existing record is never replaced), then syncs the
directory. A crash at any point leaves the previous record intact.
*/
package naming
