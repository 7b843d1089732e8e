// Package lstf decodes and queries Light Show Track Format (LSTF) containers.
//
// # Overview
//
// An LSTF container is a self-delimiting stream of tagged chunks describing a
// synchronized multi-channel light sequence for a device with three
// independently addressable pads (centre, left, right) and an optional audio
// track. The package covers the chunked container codec, the delta-time event
// timeline, the tempo/time-base converter, palette indirection, snapshot
// indexing, and the state resolution engine that answers "what is each
// channel doing at tick t" without replaying the whole stream.
//
// # Core Concepts
//
// Chunks are `[4-byte ASCII tag][u32 little-endian length][payload]` records.
// Unknown tags are retained as opaque chunks so a decoded container can be
// re-encoded byte for byte.
//
// Tracks are ordered event sequences decoded from PAD0-PAD2, GRP0 and AUD0
// chunks. Event timing is delta-encoded on the wire and flattened to absolute
// ticks at decode time so queries can binary-search instead of re-walking
// deltas.
//
// The Engine resolves a query tick to one abstract command per channel
// (switch, fade or flash with device-unit timing). It never produces wire
// bytes for the hardware; byte-level transport framing is an external
// collaborator's job.
//
// # Usage Example
//
//	container, err := lstf.Decode(data)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	engine := lstf.NewEngine(container)
//	cmd, err := engine.PadStateAt(lstf.PadCentre, 960)
//	if err != nil {
//		log.Fatal(err)
//	}
//	// cmd.Primitive, cmd.Colour, cmd.OnLength ... describe the effective
//	// hardware command at tick 960.
//
// # Concurrency
//
// A fully decoded Container and any Engine built from it are immutable and
// safe for concurrent queries. In streaming mode, Apply and StreamReader.Feed
// serialize writers; build a fresh Engine after applying chunks to observe
// the new revision.
package lstf
