package main

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"barkd/audio"
)

// captureCalmingSound records from the default microphone for the given
// duration and writes a PCM16 WAV next to the settings file. Returns the
// written path.
func captureCalmingSound(level int, duration time.Duration) (string, error) {
	ctx, err := audio.NewContext()
	if err != nil {
		return "", fmt.Errorf("initializing audio: %w", err)
	}
	defer ctx.Close()

	capture, err := ctx.NewCapture(nil, audio.CaptureConfig{
		SampleRate: captureRate,
		Channels:   captureChannels,
	})
	if err != nil {
		return "", fmt.Errorf("initializing capture: %w", err)
	}
	defer capture.Close()

	var mu sync.Mutex
	var pcm []byte
	capture.SetCallback(func(data []byte, _ uint32) {
		mu.Lock()
		pcm = append(pcm, data...)
		mu.Unlock()
	})

	if err := capture.Start(); err != nil {
		return "", audio.WrapStartError(err)
	}
	fmt.Printf("Recording for %s. Say something calming to your dog...\n", duration)
	time.Sleep(duration)
	capture.Stop()
	capture.ClearCallback()

	mu.Lock()
	data := pcm
	mu.Unlock()
	if len(data) == 0 {
		return "", fmt.Errorf("no audio captured")
	}

	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	dir = filepath.Join(dir, "barkd", "recordings")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	path := filepath.Join(dir, fmt.Sprintf("level%d-%d.wav", level, time.Now().Unix()))
	if err := writePCM16WAV(path, data, captureRate); err != nil {
		return "", err
	}
	fmt.Printf("Saved %s\n", path)
	return path, nil
}

func writePCM16WAV(path string, pcm []byte, sampleRate uint32) error {
	const headerSize = 44
	buf := make([]byte, headerSize+len(pcm))
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(headerSize-8+len(pcm)))
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(buf[22:24], 1) // mono
	binary.LittleEndian.PutUint32(buf[24:28], sampleRate)
	binary.LittleEndian.PutUint32(buf[28:32], sampleRate*2)
	binary.LittleEndian.PutUint16(buf[32:34], 2)  // block align
	binary.LittleEndian.PutUint16(buf[34:36], 16) // bits per sample
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(len(pcm)))
	copy(buf[headerSize:], pcm)

	return os.WriteFile(path, buf, 0644)
}
