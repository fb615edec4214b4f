package hubclient

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeFrameAppendsRecordSeparator(t *testing.T) {
	raw, err := encodeFrame(newPingFrame())
	require.NoError(t, err)
	require.Equal(t, recordSeparator, raw[len(raw)-1])
	require.NotEqual(t, recordSeparator, raw[len(raw)-2], "exactly one trailing separator expected")
}

func TestSplitFramesRoundTrip(t *testing.T) {
	a, err := encodeFrame(newSingleInvocation("A"))
	require.NoError(t, err)
	b, err := encodeFrame(newSingleInvocation("B"))
	require.NoError(t, err)

	concatenated := append(append([]byte{}, a...), b...)
	frames := splitFrames(concatenated)
	require.Len(t, frames, 2)

	var first, second Invocation
	require.NoError(t, decodeJSON(frames[0], &first))
	require.NoError(t, decodeJSON(frames[1], &second))
	require.Equal(t, "A", first.Target)
	require.Equal(t, "B", second.Target)
}

func TestSplitFramesDropsEmptyFragments(t *testing.T) {
	frames := splitFrames([]byte{recordSeparator, recordSeparator})
	require.Len(t, frames, 0)
}

func TestSplitFramesHandlesNFrames(t *testing.T) {
	var concatenated []byte
	for i := 0; i < 5; i++ {
		raw, err := encodeFrame(newPingFrame())
		require.NoError(t, err)
		concatenated = append(concatenated, raw...)
	}
	require.Len(t, splitFrames(concatenated), 5)
}
