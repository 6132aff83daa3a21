package lpr

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wireFrame(payload string) []byte {
	var b bytes.Buffer
	b.WriteByte(STX)
	b.WriteString(payload)
	b.WriteByte(ETX)
	return b.Bytes()
}

func pushAll(e *Extractor, stream []byte, chunks []int) [][]byte {
	var frames [][]byte
	off := 0
	for _, n := range chunks {
		fs, _ := e.Push(stream[off : off+n])
		frames = append(frames, fs...)
		off += n
	}
	if off < len(stream) {
		fs, _ := e.Push(stream[off:])
		frames = append(frames, fs...)
	}
	return frames
}

func TestExtractor_SingleFrame(t *testing.T) {
	var e Extractor
	frames, discarded := e.Push(wireFrame("front|ABC1234|T1|/img/1.jpg"))

	require.Len(t, frames, 1)
	assert.Equal(t, "front|ABC1234|T1|/img/1.jpg", string(frames[0]))
	assert.Equal(t, 0, discarded)
	assert.Equal(t, 0, e.Pending())
}

func TestExtractor_ChunkBoundaryIndependence(t *testing.T) {
	var stream []byte
	want := []string{
		"front|ABC1234|T1|/img/1.jpg",
		"rear|XYZ9876|T2|/img/2.jpg",
		"front|KL5512|T3|/img/3.jpg",
	}
	for _, p := range want {
		stream = append(stream, wireFrame(p)...)
	}

	// One shot.
	var whole Extractor
	oneShot, _ := whole.Push(stream)
	require.Len(t, oneShot, len(want))

	// Arbitrarily small chunks, several random splits.
	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 20; trial++ {
		var chunks []int
		remaining := len(stream)
		for remaining > 0 {
			n := 1 + rng.Intn(7)
			if n > remaining {
				n = remaining
			}
			chunks = append(chunks, n)
			remaining -= n
		}

		var e Extractor
		frames := pushAll(&e, stream, chunks)
		require.Len(t, frames, len(oneShot), "trial %d", trial)
		for i := range frames {
			assert.Equal(t, string(oneShot[i]), string(frames[i]))
		}
	}
}

func TestExtractor_NoiseBeforeStartMarkerDropped(t *testing.T) {
	var e Extractor
	input := append([]byte("garbage\xff\x03noise"), wireFrame("front|ABC1234")...)
	frames, discarded := e.Push(input)

	require.Len(t, frames, 1)
	assert.Equal(t, "front|ABC1234", string(frames[0]))
	assert.Equal(t, len("garbage\xff\x03noise"), discarded)
}

func TestExtractor_UnmatchedDelimitersNeverEmitPartial(t *testing.T) {
	var e Extractor

	// End marker with no start: pure noise.
	frames, _ := e.Push([]byte("ABC\x03DEF"))
	assert.Empty(t, frames)
	assert.Equal(t, 0, e.Pending())

	// Start marker with no end yet: held, not emitted.
	frames, _ = e.Push([]byte{STX, 'p', 'a', 'r'})
	assert.Empty(t, frames)
	assert.Greater(t, e.Pending(), 0)

	// A valid pair reappears: the held frame completes first.
	frames, _ = e.Push(append([]byte("tial\x03"), wireFrame("rear|XYZ1")...))
	require.Len(t, frames, 2)
	assert.Equal(t, "partial", string(frames[0]))
	assert.Equal(t, "rear|XYZ1", string(frames[1]))
}

func TestExtractor_PartialPersistsAcrossPushes(t *testing.T) {
	var e Extractor
	full := wireFrame("front|ABC1234|T9|/img/9.jpg")

	frames, _ := e.Push(full[:5])
	assert.Empty(t, frames)
	frames, _ = e.Push(full[5:10])
	assert.Empty(t, frames)
	frames, _ = e.Push(full[10:])
	require.Len(t, frames, 1)
	assert.Equal(t, "front|ABC1234|T9|/img/9.jpg", string(frames[0]))
}

func TestExtractor_Reset(t *testing.T) {
	var e Extractor
	e.Push([]byte{STX, 'a', 'b'})
	require.Greater(t, e.Pending(), 0)

	dropped := e.Reset()
	assert.Equal(t, 3, dropped)
	assert.Equal(t, 0, e.Pending())

	// Clean slate after reset.
	frames, _ := e.Push(wireFrame("front|NEW111"))
	require.Len(t, frames, 1)
}

// A 150-byte payload holding exactly one frame, delivered as 40/60/50
// bytes, must yield exactly one correctly reassembled record.
func TestExtractor_SplitFrame40_60_50(t *testing.T) {
	payload := "front|WXY7745|TX900731|/data/images/2026/08/31/front-cam-0001.jpg"
	frame := wireFrame(payload)

	// The frame starts inside the first delivery and ends inside the
	// third, so reassembly spans all three receive callbacks.
	noiseHead := bytes.Repeat([]byte{0x00}, 35)
	noiseTail := bytes.Repeat([]byte{0x7f}, 150-len(frame)-len(noiseHead))
	stream := append(append(noiseHead, frame...), noiseTail...)
	require.Len(t, stream, 150)

	var e Extractor
	frames := pushAll(&e, stream, []int{40, 60, 50})

	require.Len(t, frames, 1)
	rec, err := ParseRecord(frames[0], DefaultSeparator)
	require.NoError(t, err)
	assert.Equal(t, "front", rec.Camera)
	assert.Equal(t, "WXY7745", rec.Plate)
	assert.Equal(t, "TX900731", rec.TransactionID)
	assert.Equal(t, "/data/images/2026/08/31/front-cam-0001.jpg", rec.ImagePath)
}

func TestParseRecord(t *testing.T) {
	rec, err := ParseRecord([]byte("front|ABC1234|T1|/img/1.jpg"), "|")
	require.NoError(t, err)
	assert.Equal(t, Record{
		Camera:        "front",
		Plate:         "ABC1234",
		TransactionID: "T1",
		ImagePath:     "/img/1.jpg",
	}, rec)

	// Optional trailing fields.
	rec, err = ParseRecord([]byte("rear|XYZ987"), "|")
	require.NoError(t, err)
	assert.Equal(t, "rear", rec.Camera)
	assert.Empty(t, rec.TransactionID)

	// Too few fields.
	_, err = ParseRecord([]byte("justone"), "|")
	assert.Error(t, err)

	// Empty mandatory fields.
	_, err = ParseRecord([]byte("|ABC1234"), "|")
	assert.Error(t, err)
}

func TestRecord_SerializeRoundTrip(t *testing.T) {
	rec := Record{Camera: "front", Plate: "ABC1234", TransactionID: "T5", ImagePath: "/img/5.jpg"}
	got, err := ParseRecord([]byte(rec.Serialize("|")), "|")
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}
