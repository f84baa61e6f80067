package playback

import (
	"errors"
	"fmt"
	"io"

	"github.com/mewkiz/flac"
)

func decodeFLAC(path string) (*clip, error) {
	stream, err := flac.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPlaybackFailed, err)
	}
	defer stream.Close()

	info := stream.Info
	channels := int(info.NChannels)
	bps := int(info.BitsPerSample)
	if channels == 0 {
		return nil, fmt.Errorf("%w: flac with no channels: %s", ErrPlaybackFailed, path)
	}

	var samples []int16
	for {
		frame, err := stream.ParseNext()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: flac frame: %v", ErrPlaybackFailed, err)
		}
		n := frame.Subframes[0].NSamples
		for i := 0; i < n; i++ {
			var sum int64
			for ch := 0; ch < channels; ch++ {
				sum += int64(frame.Subframes[ch].Samples[i])
			}
			s := sum / int64(channels)
			switch {
			case bps > 16:
				s >>= uint(bps - 16)
			case bps < 16:
				s <<= uint(16 - bps)
			}
			samples = append(samples, int16(s))
		}
	}

	return &clip{samples: samples, sampleRate: int(info.SampleRate)}, nil
}
