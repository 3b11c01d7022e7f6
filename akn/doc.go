// Package akn assembles, signs and serializes Akoma Ntoso documents.
//
// A Document holds two things: the metadata and body tree (built by Assemble or
// read by Parse) and, once the first signature is added, a conclusions ledger of
// signature records. The ledger is kept apart from the tree so the document can be
// rendered with it (Render) or without it (RenderPayload). The payload rendering
// is the byte string signatures are computed over; it does not change when
// signatures are added.
//
// A Document is not safe for concurrent mutation.
package akn
