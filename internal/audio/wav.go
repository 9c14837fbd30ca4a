package audio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const wavBitDepth = 16

// WriteWAV persists a clip as a 16-bit PCM WAV file. The file is synced to
// disk before returning so a crash immediately afterwards cannot lose the
// recording.
func WriteWAV(path string, clip *Clip) error {
	if clip == nil || len(clip.Samples) == 0 {
		return errors.New("clip has no audio")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create recording directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create wav file: %w", err)
	}

	enc := wav.NewEncoder(f, clip.SampleRate, wavBitDepth, clip.Channels, 1)
	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: clip.Channels,
			SampleRate:  clip.SampleRate,
		},
		Data:           clip.Samples,
		SourceBitDepth: wavBitDepth,
	}
	if err := enc.Write(buf); err != nil {
		_ = enc.Close()
		_ = f.Close()
		return fmt.Errorf("write wav data: %w", err)
	}
	if err := enc.Close(); err != nil {
		_ = f.Close()
		return fmt.Errorf("finalize wav: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("sync wav file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close wav file: %w", err)
	}
	return nil
}

// Info describes a WAV file on disk.
type Info struct {
	SampleRate int
	Channels   int
	BitDepth   int
	Duration   time.Duration
	SizeBytes  int64
}

// Probe reads a WAV file's header and reports its format and duration.
func Probe(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, fmt.Errorf("open wav file: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	dec.ReadInfo()
	if err := dec.Err(); err != nil {
		return Info{}, fmt.Errorf("read wav header: %w", err)
	}
	if !dec.IsValidFile() {
		return Info{}, fmt.Errorf("%s is not a valid wav file", path)
	}

	// dec.Duration estimates from the RIFF chunk size, which counts header
	// bytes. Count actual PCM frames instead.
	if err := dec.FwdToPCM(); err != nil {
		return Info{}, fmt.Errorf("locate wav data chunk: %w", err)
	}
	bytesPerFrame := int64(dec.NumChans) * int64(dec.BitDepth) / 8
	if bytesPerFrame <= 0 || dec.SampleRate == 0 {
		return Info{}, fmt.Errorf("%s has an invalid wav format", path)
	}
	frames := dec.PCMLen() / bytesPerFrame
	duration := time.Duration(frames) * time.Second / time.Duration(dec.SampleRate)

	stat, err := f.Stat()
	if err != nil {
		return Info{}, fmt.Errorf("stat wav file: %w", err)
	}

	return Info{
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		BitDepth:   int(dec.BitDepth),
		Duration:   duration,
		SizeBytes:  stat.Size(),
	}, nil
}
