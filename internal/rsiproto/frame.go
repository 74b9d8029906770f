package rsiproto

import (
	"bytes"
	"fmt"
	"strconv"
)

const (
	tagIPOCStart  = "<IPOC>"
	tagIPOCEnd    = "</IPOC>"
	tagRIstStart  = "<RIst"
	tagAIPosStart = "<AIPos"
)

// responseTemplate is the fixed KUKA RSI correction-frame schema. The six
// RKorr attributes are always rendered at exactly four fractional digits;
// the IPOC is echoed verbatim (it is a %s, never a re-parsed %d) so that
// any leading zeros the robot sent survive the round trip unchanged.
const responseTemplate = "<Sen Type=\"ImFree\">\n" +
	"<EStr>RSI Monitor</EStr>\n" +
	"<RKorr X=\"%.4f\" Y=\"%.4f\" Z=\"%.4f\" A=\"%.4f\" B=\"%.4f\" C=\"%.4f\" />\n" +
	"<IPOC>%s</IPOC>\n" +
	"</Sen>"

// ResponseBufferSize is the scratch buffer size the worker should render
// into; it comfortably fits the template for any realistic IPOC width.
const ResponseBufferSize = 512

// ParsedFrame is the result of parsing one inbound RSI sensor frame.
// HasCartesian/HasJoints gate whether the corresponding position was
// present in this cycle's frame at all (a client-visible distinction: a
// frame with <RIst> but no <AIPos> still gets a reply, but the joint
// buffer is left untouched and the data callback is not invoked).
type ParsedFrame struct {
	HasCartesian bool
	Cartesian    CartesianPosition

	HasJoints bool
	Joints    JointPosition

	// IPOCRaw is the literal byte sequence between <IPOC> and </IPOC>,
	// kept for byte-exact echo in the reply.
	IPOCRaw []byte
	IPOC    uint32
}

// ParseFrame parses an inbound RSI XML frame. It never allocates more than
// the returned ParsedFrame and a defensive copy of the IPOC bytes.
//
// A missing or unparseable <IPOC> is the only condition under which parsing
// fails outright: the frame must be dropped with no reply and no state
// update. A missing <RIst> or <AIPos> only clears the corresponding
// HasCartesian/HasJoints flag; the frame is still answered.
func ParseFrame(data []byte) (*ParsedFrame, error) {
	ipocRaw, ipoc, ok := extractIPOC(data)
	if !ok {
		return nil, ErrMissingIPOC
	}

	f := &ParsedFrame{
		IPOCRaw: ipocRaw,
		IPOC:    ipoc,
	}

	if region, found := findTagRegion(data, tagRIstStart); found {
		f.HasCartesian = true
		f.Cartesian.X = parseAttr(region, "X")
		f.Cartesian.Y = parseAttr(region, "Y")
		f.Cartesian.Z = parseAttr(region, "Z")
		f.Cartesian.A = parseAttr(region, "A")
		f.Cartesian.B = parseAttr(region, "B")
		f.Cartesian.C = parseAttr(region, "C")
		f.Cartesian.IPOC = ipoc
	}

	if region, found := findTagRegion(data, tagAIPosStart); found {
		f.HasJoints = true
		for i, name := range [6]string{"A1", "A2", "A3", "A4", "A5", "A6"} {
			f.Joints.Axis[i] = parseAttr(region, name)
		}
		f.Joints.IPOC = ipoc
	}

	return f, nil
}

// RenderCorrection renders the outbound correction frame into buf, echoing
// ipocRaw byte-for-byte. It returns the number of bytes written, or
// ErrBufferTooSmall if buf cannot hold the rendered frame.
func RenderCorrection(buf []byte, corr CartesianCorrection, ipocRaw []byte) (int, error) {
	rendered := fmt.Sprintf(responseTemplate,
		corr.X, corr.Y, corr.Z, corr.A, corr.B, corr.C,
		ipocRaw,
	)
	if len(rendered) > len(buf) {
		return 0, ErrBufferTooSmall
	}
	return copy(buf, rendered), nil
}

// extractIPOC locates the <IPOC>...</IPOC> element and parses its decimal
// text. It returns ok=false if the element is absent or its text is not a
// valid unsigned decimal integer.
func extractIPOC(data []byte) (raw []byte, value uint32, ok bool) {
	start := bytes.Index(data, []byte(tagIPOCStart))
	if start < 0 {
		return nil, 0, false
	}
	start += len(tagIPOCStart)

	end := bytes.Index(data[start:], []byte(tagIPOCEnd))
	if end < 0 {
		return nil, 0, false
	}

	raw = append([]byte(nil), data[start:start+end]...)
	n, err := strconv.ParseUint(string(bytes.TrimSpace(raw)), 10, 32)
	if err != nil {
		return nil, 0, false
	}
	return raw, uint32(n), true
}

// findTagRegion locates tagStart (e.g. "<RIst") and returns the byte slice
// of attributes up to (but not including) the tag's closing '>', bounding
// attribute lookups so a search for one tag's attributes never bleeds into
// the next tag.
func findTagRegion(data []byte, tagStart string) ([]byte, bool) {
	idx := bytes.Index(data, []byte(tagStart))
	if idx < 0 {
		return nil, false
	}
	rest := data[idx+len(tagStart):]
	end := bytes.IndexByte(rest, '>')
	if end < 0 {
		end = len(rest)
	}
	return rest[:end], true
}

// parseAttr finds name="..." within region and parses a floating-point
// prefix starting just after the opening quote. A missing attribute, or one
// whose value does not begin with a number, defaults to 0.0 — the frame is
// never rejected for a missing attribute, only for a missing <IPOC>.
func parseAttr(region []byte, name string) float64 {
	needle := []byte(name + `="`)
	idx := bytes.Index(region, needle)
	if idx < 0 {
		return 0
	}
	start := idx + len(needle)
	if start >= len(region) {
		return 0
	}
	return parseFloatPrefix(region[start:])
}

// parseFloatPrefix reads the longest leading substring of b that looks like
// a decimal float and parses it, mirroring the tolerance of C's atof: a
// non-numeric or empty prefix parses as 0.0 rather than erroring.
func parseFloatPrefix(b []byte) float64 {
	end := 0
	seenDigit := false
loop:
	for end < len(b) {
		switch c := b[end]; {
		case c >= '0' && c <= '9':
			seenDigit = true
			end++
		case (c == '-' || c == '+') && end == 0:
			end++
		case c == '.':
			end++
		case (c == 'e' || c == 'E') && seenDigit:
			end++
			if end < len(b) && (b[end] == '+' || b[end] == '-') {
				end++
			}
		default:
			break loop
		}
	}
	if !seenDigit {
		return 0
	}
	v, err := strconv.ParseFloat(string(b[:end]), 64)
	if err != nil {
		return 0
	}
	return v
}
