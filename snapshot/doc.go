// Package snapshot serializes programs to a checksummed binary format.
//
// A snapshot captures the stored graph of a termgo.Program: the symbol
// table, every term node, and every statement node, each in creation
// order. Because links always point to already-created nodes, loading
// is a replay of the original Make calls through the public factories,
// and the rebuilt graph shares subterms exactly like the original did.
//
// # File Layout
//
//	+--------------------------------------------------+
//	| header: magic "TRM1", version, compression,      |
//	|         info length (12 bytes, little-endian)    |
//	+--------------------------------------------------+
//	| info: JSON section with codec name, compression, |
//	|       node and symbol counts, creation time      |
//	+--------------------------------------------------+
//	| payload: length-framed blocks, each optionally   |
//	|          LZ4- or ZSTD-compressed, ending with a  |
//	|          zero block header                       |
//	|   - symbol section (names in table order)        |
//	|   - term events (kind byte + uvarint links)      |
//	|   - statement events                             |
//	+--------------------------------------------------+
//	| trailer: CRC-32 (IEEE) of all preceding bytes    |
//	+--------------------------------------------------+
//
// Event links are creation ordinals, not per-kind indices, so a
// compacted snapshot (see Compact) renumbers implicitly: live nodes
// keep their relative order and replay assigns fresh dense indices.
//
// # Usage
//
// To a file:
//
//	err := snapshot.SaveFile(p, "program.trm1")
//	p2, err := snapshot.LoadFile("program.trm1")
//
// To any blob store:
//
//	store, _ := s3.New(ctx, "my-bucket", s3.WithPrefix("programs/"))
//	err := snapshot.Save(ctx, store, "main.trm1", p)
//	p2, err := snapshot.Load(ctx, store, "main.trm1")
//
// Corruption is detected by the CRC-32 trailer and by structural
// validation during replay; both surface errors satisfying
// errors.Is(err, snapshot.ErrCorrupted).
package snapshot
