package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

const wavHeaderSize = 44

type waveHeader struct {
	RiffTag       [4]byte
	FileSize      uint32
	WaveTag       [4]byte
	FmtTag        [4]byte
	FmtSize       uint32
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	DataTag       [4]byte
	DataSize      uint32
}

// EncodeWAV wraps mono 16-bit PCM samples in a canonical 44-byte RIFF header.
func EncodeWAV(samples []int16, sampleRate int) ([]byte, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", sampleRate)
	}
	dataSize := uint32(len(samples) * 2)
	header := waveHeader{
		RiffTag:       [4]byte{'R', 'I', 'F', 'F'},
		FileSize:      36 + dataSize,
		WaveTag:       [4]byte{'W', 'A', 'V', 'E'},
		FmtTag:        [4]byte{'f', 'm', 't', ' '},
		FmtSize:       16,
		AudioFormat:   1,
		NumChannels:   1,
		SampleRate:    uint32(sampleRate),
		ByteRate:      uint32(sampleRate * 2),
		BlockAlign:    2,
		BitsPerSample: 16,
		DataTag:       [4]byte{'d', 'a', 't', 'a'},
		DataSize:      dataSize,
	}

	buf := bytes.NewBuffer(make([]byte, 0, wavHeaderSize+int(dataSize)))
	if err := binary.Write(buf, binary.LittleEndian, header); err != nil {
		return nil, fmt.Errorf("write wav header: %w", err)
	}
	if err := binary.Write(buf, binary.LittleEndian, samples); err != nil {
		return nil, fmt.Errorf("write wav data: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodePCM reads little-endian signed 16-bit samples. A trailing odd byte is dropped.
func DecodePCM(raw []byte) []int16 {
	samples := make([]int16, len(raw)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(raw[2*i:]))
	}
	return samples
}

// Normalize scales samples in place so the loudest one sits at int16 full
// scale. Silence is left untouched.
func Normalize(samples []int16) {
	var peak float64
	for _, s := range samples {
		if a := math.Abs(float64(s)); a > peak {
			peak = a
		}
	}
	if peak == 0 {
		return
	}

	scale := math.MaxInt16 / peak
	for i, s := range samples {
		v := math.Round(float64(s) * scale)
		if v > math.MaxInt16 {
			v = math.MaxInt16
		}
		if v < -math.MaxInt16 {
			v = -math.MaxInt16
		}
		samples[i] = int16(v)
	}
}

var errShortWAV = errors.New("wav data shorter than header")

// wavSampleRate reads the sample rate back out of a RIFF/WAVE header.
func wavSampleRate(wav []byte) (int, error) {
	if len(wav) < wavHeaderSize {
		return 0, errShortWAV
	}
	if string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" {
		return 0, errors.New("not a RIFF/WAVE file")
	}
	return int(binary.LittleEndian.Uint32(wav[24:28])), nil
}
