package download

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
)

// Stream is one entry from ffprobe's stream listing.
type Stream struct {
	Index     int               `json:"index"`
	CodecType string            `json:"codec_type"`
	Tags      map[string]string `json:"tags"`
}

// Language returns the stream's language tag, if any.
func (s Stream) Language() string {
	if s.Tags == nil {
		return ""
	}
	return s.Tags["language"]
}

type probeOutput struct {
	Streams []Stream `json:"streams"`
}

// Probe inspects a media file with ffprobe and returns its streams.
func Probe(ctx context.Context, path string) ([]Stream, error) {
	probePath, err := exec.LookPath("ffprobe")
	if err != nil {
		return nil, fmt.Errorf("ffprobe not found in PATH: %w", err)
	}

	cmd := exec.CommandContext(ctx, probePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("probing %s: %w", path, err)
	}

	var parsed probeOutput
	if err := json.Unmarshal(out, &parsed); err != nil {
		return nil, fmt.Errorf("parsing ffprobe output: %w", err)
	}
	return parsed.Streams, nil
}
