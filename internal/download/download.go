// Package download drives the yt-dlp / ffprobe / ffmpeg toolchain that turns
// a manifest URL into a finished media file on disk. All subprocesses are
// invoked with explicit argument slices; output paths are validated against
// directory traversal.
package download

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"vixbot/internal/httputil"
	"vixbot/internal/media"
	"vixbot/internal/subtitle"
)

// ToolError reports a failed subprocess. Path carries the partially
// produced file when one exists.
type ToolError struct {
	Tool string
	Path string
	Err  error
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Tool, e.Err)
}

func (e *ToolError) Unwrap() error { return e.Err }

// Options selects what to download and how to remux it.
type Options struct {
	ManifestURL string
	VariantURI  string // when set, downloaded instead of ManifestURL
	Title       string
	Kind        media.MediaType
	SeriesTitle string // series folder name for TV downloads
	Season      int
	AudioLang   string // preferred audio language for stream mapping
	SubLang     string // subtitle language passed to yt-dlp
	SubDownload bool
	BurnSubs    bool
}

// Downloader runs downloads under a fixed root directory.
type Downloader struct {
	root string
}

// New creates a Downloader writing under root.
func New(root string) *Downloader {
	return &Downloader{root: root}
}

var (
	forbiddenChars = regexp.MustCompile(`[\\/:*?"<>|]`)
	multiSpace     = regexp.MustCompile(`\s+`)
)

// CleanName turns a display title into a safe folder/file name.
func CleanName(name string) string {
	s := forbiddenChars.ReplaceAllString(name, "")
	s = strings.ReplaceAll(s, "-", " ")
	return strings.TrimSpace(multiSpace.ReplaceAllString(s, " "))
}

// parentDir returns the destination folder for a download.
func (d *Downloader) parentDir(opts Options) string {
	if opts.Kind == media.Movie {
		name := opts.SeriesTitle
		if name == "" {
			name = opts.Title
		}
		return filepath.Join(d.root, "movie", CleanName(name))
	}

	series := opts.SeriesTitle
	if series == "" {
		series = strings.SplitN(opts.Title, " - ", 2)[0]
	}
	return filepath.Join(d.root, "TV", CleanName(series), fmt.Sprintf("S%d", opts.Season))
}

// Run downloads and remuxes one item, returning the final file path.
func (d *Downloader) Run(ctx context.Context, opts Options) (string, error) {
	parent := d.parentDir(opts)
	if err := os.MkdirAll(parent, 0755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	safeTitle := CleanName(opts.Title)
	assembly := filepath.Join(parent, ".assembly_"+safeTitle)
	wipeDir(assembly)
	if err := os.MkdirAll(assembly, 0755); err != nil {
		return "", fmt.Errorf("creating assembly directory: %w", err)
	}
	defer wipeDir(assembly)

	tmpBase := filepath.Join(assembly, safeTitle+".tmp")
	merged := tmpBase + ".mkv"
	final, err := httputil.SafeDownloadPath(parent, safeTitle+".mp4")
	if err != nil {
		return "", fmt.Errorf("invalid output path: %w", err)
	}

	// Stage 1: fetch with yt-dlp.
	ytdlpPath, err := exec.LookPath("yt-dlp")
	if err != nil {
		return "", fmt.Errorf("yt-dlp not found in PATH: %w", err)
	}
	args := buildYtdlpArgs(opts, tmpBase)
	logrus.WithField("args", strings.Join(args, " ")).Debug("running yt-dlp")
	cmd := exec.CommandContext(ctx, ytdlpPath, args...)
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return "", &ToolError{Tool: "yt-dlp", Err: err}
	}

	if _, statErr := os.Stat(merged); statErr != nil {
		merged, err = findDownloadOutput(assembly, filepath.Base(tmpBase))
		if err != nil {
			return "", &ToolError{Tool: "yt-dlp", Err: err}
		}
	}

	subPath, _ := subtitle.FindSidecar(assembly, filepath.Base(tmpBase))

	// Stage 2: inspect the container layout.
	streams, err := Probe(ctx, merged)
	if err != nil {
		return "", &ToolError{Tool: "ffprobe", Path: merged, Err: err}
	}
	audioIdx := pickAudioStream(streams, opts.AudioLang)
	subIdx := pickSubtitleStream(streams)

	// Stage 3: remux (or burn in) with ffmpeg.
	ffmpegPath, err := exec.LookPath("ffmpeg")
	if err != nil {
		return "", fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}
	ffArgs := buildFfmpegArgs(merged, subPath, audioIdx, subIdx, opts.BurnSubs, final)
	logrus.WithField("args", strings.Join(ffArgs, " ")).Debug("running ffmpeg")
	ff := exec.CommandContext(ctx, ffmpegPath, ffArgs...)
	ff.Stdout = os.Stderr
	ff.Stderr = os.Stderr
	if err := ff.Run(); err != nil {
		partial := ""
		if _, statErr := os.Stat(final); statErr == nil {
			partial = final
		}
		return "", &ToolError{Tool: "ffmpeg", Path: partial, Err: err}
	}

	return final, nil
}

// buildYtdlpArgs assembles the yt-dlp invocation for the chosen target.
func buildYtdlpArgs(opts Options, tmpBase string) []string {
	args := []string{
		"--no-part",
		"--no-check-certificate",
		"-o", tmpBase + ".%(ext)s",
		"-f", "bestvideo+bestaudio/best",
		"--merge-output-format", "mkv",
	}

	if opts.SubDownload {
		args = append(args, "--write-sub", "--sub-format", "srt/best,vtt/best")
		if opts.SubLang != "" {
			args = append(args, "--sub-lang", opts.SubLang)
		}
	}

	target := opts.ManifestURL
	if opts.VariantURI != "" {
		target = opts.VariantURI
	}
	return append(args, target)
}

// buildFfmpegArgs assembles the remux command. With burn-in the video is
// re-encoded through the subtitles filter; otherwise streams are copied and
// any subtitle track is converted to mov_text for the mp4 container.
func buildFfmpegArgs(merged, subPath string, audioIdx, subIdx int, burn bool, final string) []string {
	if burn && subPath != "" {
		return []string{
			"-y", "-hide_banner", "-loglevel", "info",
			"-i", merged,
			"-i", subPath,
			"-filter_complex", "subtitles=" + subPath,
			"-c:v", "libx264", "-preset", "fast", "-crf", "20",
			"-c:a", "copy",
			final,
		}
	}

	args := []string{"-y", "-hide_banner", "-loglevel", "info", "-i", merged}
	if subPath != "" {
		args = append(args, "-i", subPath)
	}

	args = append(args, "-map", "0:v:0")
	if audioIdx >= 0 {
		args = append(args, "-map", fmt.Sprintf("0:%d", audioIdx))
	} else {
		args = append(args, "-map", "0:a:0")
	}
	switch {
	case subIdx >= 0:
		args = append(args, "-map", fmt.Sprintf("0:%d", subIdx))
	case subPath != "":
		args = append(args, "-map", "1:0")
	}

	if subIdx >= 0 || subPath != "" {
		args = append(args, "-c:v", "copy", "-c:a", "copy", "-c:s", "mov_text")
	} else {
		args = append(args, "-c", "copy")
	}
	return append(args, final)
}

// pickAudioStream chooses the audio stream index: the first stream whose
// language tag matches the preference, else the first audio stream, else -1.
func pickAudioStream(streams []Stream, preferred string) int {
	idx := -1
	for _, s := range streams {
		if s.CodecType != "audio" {
			continue
		}
		if idx < 0 {
			idx = s.Index
		}
		if preferred != "" && s.Language() != "" &&
			strings.HasPrefix(strings.ToLower(s.Language()), strings.ToLower(preferred)) {
			return s.Index
		}
	}
	return idx
}

// pickSubtitleStream returns the first subtitle stream index, or -1.
func pickSubtitleStream(streams []Stream) int {
	for _, s := range streams {
		if s.CodecType == "subtitle" {
			return s.Index
		}
	}
	return -1
}

// findDownloadOutput locates the merged file when yt-dlp chose a different
// container extension.
func findDownloadOutput(dir, prefix string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("reading assembly dir: %w", err)
	}
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), prefix+".") {
			return filepath.Join(dir, e.Name()), nil
		}
	}
	return "", fmt.Errorf("no download output found under %s", dir)
}

func wipeDir(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		_ = os.RemoveAll(filepath.Join(dir, e.Name()))
	}
	_ = os.Remove(dir)
}
