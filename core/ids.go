package core

// ProductID is the opaque external identifier of a catalog product.
// Callers own its format; the bundled CLI generates UUIDs.
type ProductID string

// LocalID is a dense, internal identifier for a product within a single
// catalog store. It is strictly 32-bit so it can back roaring bitmaps and
// other hot-path structures in the video pipeline.
type LocalID uint32

// MaxLocalID is the maximum possible value for a LocalID.
const MaxLocalID = ^LocalID(0)
