package download

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/anatolykoptev/go_douyin/internal/engine"
)

// ReportFile is the default report name.
const ReportFile = "douyin_videos.txt"

const reportDescRunes = 100

// WriteReport writes the plain-text listing users feed to the downloader by hand.
func WriteReport(w io.Writer, items []engine.VideoItem) error {
	bw := bufio.NewWriter(w)
	fmt.Fprint(bw, "# Douyin video search results\n")
	fmt.Fprint(bw, "# Download manually with the downloader: --vid <ID>\n\n")
	for i, item := range items {
		url := item.ShareURL
		if url == "" {
			url = engine.VideoURL(item.ID)
		}
		fmt.Fprintf(bw, "%d. ID: %s\n", i+1, item.ID)
		fmt.Fprintf(bw, "   Description: %s\n", engine.TruncateRunes(engine.OneLine(item.Desc), reportDescRunes, ""))
		fmt.Fprintf(bw, "   URL: %s\n", url)
		fmt.Fprintf(bw, "   Likes: %d\n", item.LikeCount)
		fmt.Fprintf(bw, "   Author: %s\n\n", item.Author)
	}
	return bw.Flush()
}

// SaveReport writes the report to path, replacing any previous file.
// Missing parent directories are created.
func SaveReport(path string, items []engine.VideoItem) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	if err := WriteReport(f, items); err != nil {
		f.Close()
		return fmt.Errorf("write report: %w", err)
	}
	return f.Close()
}
