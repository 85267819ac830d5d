package recorder

import (
	"bytes"
	"encoding/binary"

	"github.com/braheezy/shine-mp3/pkg/mp3"
)

// mp3BlockSamples is the number of samples per channel the encoder
// consumes per granule. The tail of a clip is padded with silence up to
// a whole block.
const mp3BlockSamples = 1152

// encodeMP3 transcodes S16LE interleaved PCM into an MP3 stream.
func encodeMP3(pcm []byte, sampleRate, channels int) []byte {
	blockSize := mp3BlockSamples * channels

	samples := make([]int16, 0, len(pcm)/2+blockSize)
	for i := 0; i+1 < len(pcm); i += 2 {
		samples = append(samples, int16(binary.LittleEndian.Uint16(pcm[i:])))
	}
	if rem := len(samples) % blockSize; rem != 0 {
		samples = append(samples, make([]int16, blockSize-rem)...)
	}

	var buf bytes.Buffer
	encoder := mp3.NewEncoder(sampleRate, channels)
	encoder.Write(&buf, samples)
	return buf.Bytes()
}
