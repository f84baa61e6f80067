package playback

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeWAV(t *testing.T, path string, sampleRate, channels int, samples []int16) {
	t.Helper()
	dataLen := len(samples) * 2
	buf := make([]byte, 44+dataLen)
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:], uint32(36+dataLen))
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:], 16)
	binary.LittleEndian.PutUint16(buf[20:], 1) // PCM
	binary.LittleEndian.PutUint16(buf[22:], uint16(channels))
	binary.LittleEndian.PutUint32(buf[24:], uint32(sampleRate))
	binary.LittleEndian.PutUint32(buf[28:], uint32(sampleRate*channels*2))
	binary.LittleEndian.PutUint16(buf[32:], uint16(channels*2))
	binary.LittleEndian.PutUint16(buf[34:], 16)
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:], uint32(dataLen))
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[44+i*2:], uint16(s))
	}
	if err := os.WriteFile(path, buf, 0644); err != nil {
		t.Fatal(err)
	}
}

func TestDecodeWAVMono(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calm.wav")
	writeWAV(t, path, 16000, 1, make([]int16, 16000))

	c, err := decodeWAV(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.sampleRate != 16000 {
		t.Errorf("sampleRate = %d, want 16000", c.sampleRate)
	}
	if len(c.samples) != 16000 {
		t.Errorf("samples = %d, want 16000", len(c.samples))
	}
	if got := c.duration(); got != time.Second {
		t.Errorf("duration = %v, want 1s", got)
	}
}

func TestDecodeWAVStereoDownmix(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stereo.wav")
	// Left=100, right=300 everywhere: downmix should average to 200.
	samples := make([]int16, 200)
	for i := 0; i < len(samples); i += 2 {
		samples[i] = 100
		samples[i+1] = 300
	}
	writeWAV(t, path, 44100, 2, samples)

	c, err := decodeWAV(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(c.samples) != 100 {
		t.Fatalf("frames = %d, want 100", len(c.samples))
	}
	if c.samples[0] != 200 {
		t.Errorf("downmixed sample = %d, want 200", c.samples[0])
	}
}

func TestDecodeWAVRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.wav")
	if err := os.WriteFile(path, []byte("this is not audio"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := decodeWAV(path)
	if !errors.Is(err, ErrPlaybackFailed) {
		t.Errorf("want ErrPlaybackFailed, got %v", err)
	}
}

func TestDecodeFileUnsupportedExtension(t *testing.T) {
	_, err := decodeFile("bark.mp3")
	if !errors.Is(err, ErrPlaybackFailed) {
		t.Errorf("want ErrPlaybackFailed, got %v", err)
	}
}

func TestFakePlayerRecordsPlays(t *testing.T) {
	p := NewFakePlayer()
	s, err := p.Load("a.wav")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Play(); err != nil {
		t.Fatal(err)
	}
	if got := p.Plays(); len(got) != 1 || got[0] != "a.wav" {
		t.Errorf("plays = %v", got)
	}

	p.FailPlay("b.wav", ErrPlaybackFailed)
	sb, _ := p.Load("b.wav")
	if err := sb.Play(); !errors.Is(err, ErrPlaybackFailed) {
		t.Errorf("want injected failure, got %v", err)
	}
}
