package hubclient

import (
	"bytes"
	"encoding/json"
)

// recordSeparator is the ASCII record separator (U+001E) that terminates
// every frame of the JSON hub protocol, on the wire and in the handshake.
const recordSeparator = byte(0x1E)

// encodeFrame serializes value as JSON and appends the record separator.
func encodeFrame(value any) ([]byte, error) {
	buf, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	buf = append(buf, recordSeparator)
	return buf, nil
}

// splitFrames splits a raw transport read on the record separator, dropping
// any empty fragments (a trailing separator produces no spurious frame; a
// non-empty read containing no separator at all is returned as one frame).
func splitFrames(data []byte) [][]byte {
	parts := bytes.Split(data, []byte{recordSeparator})
	out := make([][]byte, 0, len(parts))
	for _, p := range parts {
		if len(p) == 0 {
			continue
		}
		out = append(out, p)
	}
	return out
}
