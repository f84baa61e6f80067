package playback

import (
	"encoding/binary"
	"fmt"
	"os"
)

// decodeWAV parses a PCM16 RIFF file into a mono clip. Multi-channel
// input is downmixed by averaging.
func decodeWAV(path string) (*clip, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPlaybackFailed, err)
	}
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, fmt.Errorf("%w: not a RIFF/WAVE file: %s", ErrPlaybackFailed, path)
	}

	var (
		sampleRate int
		channels   int
		bits       int
		pcm        []byte
	)

	pos := 12
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8
		if body+size > len(data) {
			size = len(data) - body
		}
		switch id {
		case "fmt ":
			if size < 16 {
				return nil, fmt.Errorf("%w: truncated fmt chunk", ErrPlaybackFailed)
			}
			format := binary.LittleEndian.Uint16(data[body:])
			channels = int(binary.LittleEndian.Uint16(data[body+2:]))
			sampleRate = int(binary.LittleEndian.Uint32(data[body+4:]))
			bits = int(binary.LittleEndian.Uint16(data[body+14:]))
			if format != 1 || bits != 16 {
				return nil, fmt.Errorf("%w: only PCM16 wav supported (format=%d bits=%d)", ErrPlaybackFailed, format, bits)
			}
		case "data":
			pcm = data[body : body+size]
		}
		// Chunks are word-aligned.
		pos = body + size + size%2
	}

	if sampleRate == 0 || channels == 0 || len(pcm) == 0 {
		return nil, fmt.Errorf("%w: missing fmt or data chunk: %s", ErrPlaybackFailed, path)
	}

	frames := len(pcm) / 2 / channels
	samples := make([]int16, frames)
	for i := 0; i < frames; i++ {
		var sum int
		for ch := 0; ch < channels; ch++ {
			off := (i*channels + ch) * 2
			sum += int(int16(binary.LittleEndian.Uint16(pcm[off:])))
		}
		samples[i] = int16(sum / channels)
	}

	return &clip{samples: samples, sampleRate: sampleRate}, nil
}
