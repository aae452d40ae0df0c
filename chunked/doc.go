// Package chunked encodes a stream of records into size-bounded, compressed
// batches and decodes them back.
//
// Each record is serialized to CBOR and framed with an 8-byte big-endian
// length prefix. Framed records accumulate in a buffer; once the buffer
// reaches the configured batch size it is compressed as a whole and emitted
// as one Batch. A batch is self-contained: it can be decompressed and
// decoded without any other batch or out-of-band metadata.
//
// The batch size bounds the uncompressed buffer and is a soft target. A
// batch closes on the first record that brings the buffer to or past the
// bound, so a single record larger than the bound forms its own batch.
package chunked
