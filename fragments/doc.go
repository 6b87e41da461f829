// Package fragments provides the dialect-independent chunking and
// reassembly arithmetic for multi-part optical transfers.
//
// A [Buffer] is used in exactly one direction. On the sending side,
// [Buffer.Load] splits a payload into chunks and
// [Buffer.NextOutgoing] cycles through them forever, so that a
// display can keep animating until the other side is done. On the
// receiving side, [Buffer.Receive] files each [Fragment] into a
// fixed-size slot table indexed by the fragment's position, and
// [Buffer.Assembled] concatenates the slots in index order once every
// slot is filled.
//
// The package knows nothing about how fragments are framed on the
// wire. Dialect packages such as specter parse their own headers and
// hand this package plain [Fragment] values.
package fragments
