// Package multiqr moves Bitcoin artifacts between devices that can
// only show and scan a sequence of optical codes.
//
// An artifact (a PSBT, an extended key, an output descriptor, an
// address, or plain text) is usually too large for one code. An
// [Encoder] cuts it into frames in one of three wire dialects, and
// cycles through them forever so that a scanner can catch every
// fragment eventually:
//
//   - [Raw] sends the artifact unframed, in a single frame.
//   - [Specter] prefixes each chunk with a "p{index}of{total} "
//     header.
//   - [UR] sends Uniform Resources, with fountain coding so that any
//     sufficiently large set of distinct frames completes the
//     transfer.
//
// A [Decoder] accepts frames in any order, with duplicates and with
// stray frames from other transfers. The first frame it accepts
// selects the dialect, and frames that do not fit the transfer in
// progress are rejected without disturbing it. Once complete,
// [Decoder.Result] parses the artifact into a [Payload].
//
// The dialects are also usable directly, in the [fragments],
// [specter] and [ur] packages.
package multiqr
