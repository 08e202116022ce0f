package llm

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	app_errors "pagechat/backend/internal/errors"
)

// chunkedReader returns one element of reads per Read call.
type chunkedReader struct {
	reads [][]byte
}

func (r *chunkedReader) Read(p []byte) (int, error) {
	if len(r.reads) == 0 {
		return 0, io.EOF
	}
	n := copy(p, r.reads[0])
	r.reads[0] = r.reads[0][n:]
	if len(r.reads[0]) == 0 {
		r.reads = r.reads[1:]
	}
	return n, nil
}

func newChunkedReader(reads ...string) *chunkedReader {
	r := &chunkedReader{}
	for _, s := range reads {
		r.reads = append(r.reads, []byte(s))
	}
	return r
}

func collect(t *testing.T, body io.Reader) (string, []string) {
	t.Helper()
	var fragments []string
	msg, err := decodeStream(context.Background(), body, func(delta string) {
		fragments = append(fragments, delta)
	})
	require.NoError(t, err)
	return msg.Content.Text, fragments
}

func TestDecodeStream_SplitFrameMatchesWholeFrame(t *testing.T) {
	whole := "data: {\"choices\":[{\"delta\":{\"content\":\"hi\"}}]}\n"

	wholeText, wholeFragments := collect(t, newChunkedReader(whole))
	splitText, splitFragments := collect(t, newChunkedReader(
		"data: {\"choices\":",
		"[{\"delta\":{\"content\":\"hi\"}}]}\n",
	))

	assert.Equal(t, "hi", wholeText)
	assert.Equal(t, wholeText, splitText)
	assert.Equal(t, wholeFragments, splitFragments)
}

func TestDecodeStream_MultiByteCharacterSplitAcrossReads(t *testing.T) {
	frame := []byte("data: {\"choices\":[{\"delta\":{\"content\":\"héllo ✓\"}}]}\n")
	idx := strings.Index(string(frame), "✓")
	require.Greater(t, idx, 0)

	// Cut in the middle of the three-byte check mark.
	reader := &chunkedReader{reads: [][]byte{frame[:idx+1], frame[idx+1:]}}
	text, fragments := collect(t, reader)

	assert.Equal(t, "héllo ✓", text)
	assert.Equal(t, []string{"héllo ✓"}, fragments)
}

func TestDecodeStream_SentinelAndBlankLinesContributeNothing(t *testing.T) {
	text, fragments := collect(t, newChunkedReader(
		"\n\n   \n",
		"data: [DONE]\n",
		"  data: [DONE]  \r\n",
		": keep-alive comment\n",
	))
	assert.Empty(t, text)
	assert.Empty(t, fragments)
}

func TestDecodeStream_MalformedFrameIsSkipped(t *testing.T) {
	text, fragments := collect(t, newChunkedReader(
		"data: {\"choices\":[{\"delta\":{\"content\":\"a\"}}]}\n",
		"data: {not-json\n",
		"data: {\"choices\":[{\"delta\":{\"content\":\"b\"}}]}\n",
	))
	assert.Equal(t, "ab", text)
	assert.Equal(t, []string{"a", "b"}, fragments)
}

func TestDecodeStream_FragmentsConcatenateToFinalContent(t *testing.T) {
	var sb strings.Builder
	words := []string{"The", " quick", " brown", " fox", " ", "jumps", "\n", "over"}
	for _, w := range words {
		sb.WriteString("data: {\"choices\":[{\"delta\":{\"content\":")
		sb.WriteString(quote(w))
		sb.WriteString("}}]}\n\n")
	}
	sb.WriteString("data: [DONE]\n\n")

	// One byte per read is the worst case for frame reassembly.
	text, fragments := collect(t, iotest.OneByteReader(strings.NewReader(sb.String())))

	assert.Equal(t, words, fragments)
	assert.Equal(t, strings.Join(words, ""), text)
}

func TestDecodeStream_TrailingFrameWithoutNewline(t *testing.T) {
	text, _ := collect(t, newChunkedReader("data: {\"choices\":[{\"delta\":{\"content\":\"tail\"}}]}"))
	assert.Equal(t, "tail", text)
}

func TestDecodeStream_ReadFailureIsNetworkError(t *testing.T) {
	body := io.MultiReader(
		strings.NewReader("data: {\"choices\":[{\"delta\":{\"content\":\"partial\"}}]}\n"),
		iotest.ErrReader(errors.New("connection reset by peer")),
	)

	_, err := decodeStream(context.Background(), body, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, app_errors.ErrNetwork)
	assert.Contains(t, err.Error(), "connection reset by peer")
}

func TestDecodeStream_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := decodeStream(ctx, newChunkedReader("data: {}\n"), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDecodeFrame(t *testing.T) {
	delta, err := decodeFrame(`{"choices":[]}`)
	require.NoError(t, err)
	assert.Empty(t, delta)

	_, err = decodeFrame(`{`)
	assert.ErrorIs(t, err, app_errors.ErrStreamDecode)
}

func quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)
	return `"` + r.Replace(s) + `"`
}
