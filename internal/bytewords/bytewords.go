// Package bytewords implements the bytewords text encoding used by
// Uniform Resources.
//
// Each byte maps to one of 256 four-letter words. The minimal style
// used on the wire keeps only the first and last letter of each word,
// and every encoding carries a trailing CRC32 of the data.
package bytewords

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"strings"
)

var (
	ErrInvalidWord     = errors.New("bytewords: invalid word")
	ErrInvalidChecksum = errors.New("bytewords: invalid checksum")
	ErrTooShort        = errors.New("bytewords: too short")
)

const words = "ableacidalsoapexaquaarchatomauntawayaxisbackbaldbarnbeltbetabias" +
	"bluebodybragbrewbulbbuzzcalmcashcatschefcityclawcodecolacookcost" +
	"cruxcurlcuspcyandarkdatadaysdelidicedietdoordowndrawdropdrumdull" +
	"dutyeacheasyechoedgeepicevenexamexiteyesfactfairfernfigsfilmfish" +
	"fizzflapflewfluxfoxyfreefrogfuelfundgalagamegeargemsgiftgirlglow" +
	"goodgraygrimgurugushgyrohalfhanghardhawkheathelphighhillholyhope" +
	"hornhutsicedideaidleinchinkyintoirisironitemjadejazzjoinjoltjowl" +
	"judojugsjumpjunkjurykeepkenokeptkeyskickkilnkingkitekiwiknoblamb" +
	"lavalazyleaflegsliarlimplionlistlogoloudloveluaulucklungmainmany" +
	"mathmazememomenumeowmildmintmissmonknailnavyneednewsnextnoonnote" +
	"numbobeyoboeomitonyxopenovalowlspaidpartpeckplaypluspoempoolpose" +
	"puffpumapurrquadquizraceramprealredorichroadrockroofrubyruinruns" +
	"rustsafesagascarsetssilkskewslotsoapsolosongstubsurfswantacotask" +
	"taxitenttiedtimetinytoiltombtoystriptunatwinuglyundouniturgeuser" +
	"vastveryvetovialvibeviewvisavoidvowswallwandwarmwaspwavewaxywebs" +
	"whatwhenwhizwolfworkyankyawnyellyogayurtzapszerozestzinczonezoom"

// minimal maps a two-letter minimal word to its byte value + 1, so
// that the zero value means "not a word".
var minimal [26][26]uint16

func init() {
	for i := range 256 {
		w := words[i*4 : i*4+4]
		minimal[w[0]-'a'][w[3]-'a'] = uint16(i) + 1
	}
}

func appendChecksum(data []byte) []byte {
	ret := make([]byte, 0, len(data)+4)
	ret = append(ret, data...)
	return binary.BigEndian.AppendUint32(ret, crc32.ChecksumIEEE(data))
}

func verifyChecksum(raw []byte) ([]byte, error) {
	if len(raw) < 4 {
		return nil, ErrTooShort
	}
	data, sum := raw[:len(raw)-4], raw[len(raw)-4:]
	if binary.BigEndian.Uint32(sum) != crc32.ChecksumIEEE(data) {
		return nil, ErrInvalidChecksum
	}
	return data, nil
}

// EncodeMinimal returns the minimal bytewords encoding of data,
// including its checksum.
func EncodeMinimal(data []byte) string {
	raw := appendChecksum(data)
	var sb strings.Builder
	sb.Grow(len(raw) * 2)
	for _, b := range raw {
		sb.WriteByte(words[int(b)*4])
		sb.WriteByte(words[int(b)*4+3])
	}
	return sb.String()
}

// DecodeMinimal decodes a minimal bytewords string, verifies its
// checksum and returns the data. Decoding is case-insensitive.
func DecodeMinimal(s string) ([]byte, error) {
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("%w: odd length %d", ErrInvalidWord, len(s))
	}
	raw := make([]byte, 0, len(s)/2)
	for i := 0; i < len(s); i += 2 {
		a, b := lower(s[i]), lower(s[i+1])
		if a < 'a' || a > 'z' || b < 'a' || b > 'z' {
			return nil, fmt.Errorf("%w: %q", ErrInvalidWord, s[i:i+2])
		}
		v := minimal[a-'a'][b-'a']
		if v == 0 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidWord, s[i:i+2])
		}
		raw = append(raw, byte(v-1))
	}
	return verifyChecksum(raw)
}

func lower(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}
