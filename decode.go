package dart

import (
	"bytes"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/korean"
)

// DefaultMaxDocumentBytes is the size guard applied before any parsing.
const DefaultMaxDocumentBytes int64 = 50 * 1024 * 1024

// Encoding names the byte encoding a document was decoded from.
type Encoding string

// Encodings recognised by DecodeDocument, in the order they are tried.
const (
	EncodingUTF8BOM Encoding = "utf-8-bom"
	EncodingUTF8    Encoding = "utf-8"
	EncodingEUCKR   Encoding = "euc-kr"
	EncodingCP949   Encoding = "cp949"
	EncodingLossy   Encoding = "utf-8-lossy"
)

var (
	// ErrDocumentTooLarge is returned for documents above the size guard.
	ErrDocumentTooLarge = eris.New("dart: document exceeds size limit")
	// ErrEmptyDocument is returned for blank input.
	ErrEmptyDocument = eris.New("dart: empty document")
	// ErrUndecodable is returned when no encoding yields any text.
	ErrUndecodable = eris.New("dart: undecodable document")
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

var declaredCharset = regexp.MustCompile(`(?i)encoding\s*=\s*["']([a-z0-9_.:\-]+)["']`)

// DecodeDocument turns raw document bytes into UTF-8 text.
// Candidates are UTF-8 with BOM, UTF-8, a charset declared in the XML prolog,
// strict EUC-KR, then CP949; when none decodes cleanly the bytes are read as
// lossy UTF-8. A maxBytes of zero or less applies DefaultMaxDocumentBytes.
func DecodeDocument(data []byte, maxBytes int64) (string, Encoding, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxDocumentBytes
	}
	if int64(len(data)) > maxBytes {
		return "", "", eris.Wrapf(ErrDocumentTooLarge, "dart: %d bytes (limit %d)", len(data), maxBytes)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return "", "", ErrEmptyDocument
	}

	if bytes.HasPrefix(data, utf8BOM) {
		rest := data[len(utf8BOM):]
		if utf8.Valid(rest) {
			return string(rest), EncodingUTF8BOM, nil
		}
	} else if utf8.Valid(data) {
		return string(data), EncodingUTF8, nil
	}

	if text, name, ok := decodeDeclared(data); ok {
		return text, name, nil
	}

	if isStrictEUCKR(data) {
		if text, ok := decodeWith(korean.EUCKR, data); ok {
			return text, EncodingEUCKR, nil
		}
	}
	if text, ok := decodeWith(korean.EUCKR, data); ok {
		return text, EncodingCP949, nil
	}

	text := strings.ToValidUTF8(string(bytes.TrimPrefix(data, utf8BOM)), string(utf8.RuneError))
	if strings.TrimSpace(strings.ReplaceAll(text, string(utf8.RuneError), "")) == "" {
		return "", "", ErrUndecodable
	}
	return text, EncodingLossy, nil
}

// decodeDeclared honours an encoding="..." attribute in the XML prolog.
func decodeDeclared(data []byte) (string, Encoding, bool) {
	head := data
	if len(head) > 256 {
		head = head[:256]
	}
	m := declaredCharset.FindSubmatch(head)
	if m == nil {
		return "", "", false
	}
	enc, err := htmlindex.Get(string(m[1]))
	if err != nil {
		return "", "", false
	}
	name, _ := htmlindex.Name(enc)
	if name == "utf-8" {
		return "", "", false
	}
	text, ok := decodeWith(enc, data)
	if !ok {
		return "", "", false
	}
	if name == "euc-kr" {
		if isStrictEUCKR(data) {
			return text, EncodingEUCKR, true
		}
		return text, EncodingCP949, true
	}
	return text, Encoding(name), true
}

func decodeWith(enc encoding.Encoding, data []byte) (string, bool) {
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", false
	}
	if bytes.ContainsRune(out, utf8.RuneError) {
		return "", false
	}
	return string(out), true
}

// isStrictEUCKR reports whether every non-ASCII byte pair sits inside the
// KS X 1001 range (lead and trail 0xA1-0xFE). CP949 extends both ranges, so
// documents failing this check may still decode as CP949.
func isStrictEUCKR(data []byte) bool {
	sawMultibyte := false
	for i := 0; i < len(data); i++ {
		c := data[i]
		if c < 0x80 {
			continue
		}
		if c < 0xA1 || c == 0xFF || i+1 >= len(data) {
			return false
		}
		t := data[i+1]
		if t < 0xA1 || t == 0xFF {
			return false
		}
		sawMultibyte = true
		i++
	}
	return sawMultibyte
}
