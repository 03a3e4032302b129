package extract

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	ytdl "github.com/kkdai/youtube/v2"
)

// youTubeHosts is the set of hostnames ResolveMediaPath treats as a
// YouTube video reference rather than a local path.
var youTubeHosts = map[string]bool{
	"youtube.com":     true,
	"www.youtube.com": true,
	"youtu.be":        true,
	"m.youtube.com":   true,
}

// ResolveMediaPath returns a local file path for media. If media is an
// http(s) URL on a YouTube host, its highest-bitrate audio format is
// downloaded into dir and its path returned; otherwise media is
// returned unchanged, treated as a path already on disk. Adapted from
// the teacher's internal/youtube/audio.go download flow.
func ResolveMediaPath(ctx context.Context, media, dir string) (string, error) {
	u, err := url.Parse(media)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || !youTubeHosts[u.Hostname()] {
		return media, nil
	}

	client := ytdl.Client{}
	video, err := client.GetVideo(media)
	if err != nil {
		return "", fmt.Errorf("resolve youtube video %s: %w", media, err)
	}

	var audioFormats []ytdl.Format
	for _, f := range video.Formats {
		if strings.HasPrefix(f.MimeType, "audio/") {
			audioFormats = append(audioFormats, f)
		}
	}
	if len(audioFormats) == 0 {
		return "", fmt.Errorf("no audio-capable formats for %s", media)
	}
	best := audioFormats[0]
	for _, f := range audioFormats {
		if f.Bitrate > best.Bitrate {
			best = f
		}
	}

	stream, _, err := client.GetStream(video, &best)
	if err != nil {
		return "", fmt.Errorf("open youtube stream for %s: %w", media, err)
	}
	defer stream.Close()

	outPath := filepath.Join(dir, sanitizeFilename(video.ID)+extensionFor(best.MimeType))
	out, err := os.Create(outPath)
	if err != nil {
		return "", fmt.Errorf("create temp media file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, stream); err != nil {
		os.Remove(outPath)
		return "", fmt.Errorf("download youtube media: %w", err)
	}

	return outPath, nil
}

func extensionFor(mimeType string) string {
	switch {
	case strings.Contains(mimeType, "mp4"):
		return ".mp4"
	case strings.Contains(mimeType, "webm"):
		return ".webm"
	default:
		return ".media"
	}
}

func sanitizeFilename(name string) string {
	replacer := strings.NewReplacer("/", "_", "\\", "_", ":", "_", "*", "_", "?", "_", "\"", "_", "<", "_", ">", "_", "|", "_")
	return replacer.Replace(name)
}
