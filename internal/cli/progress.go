package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/Veraticus/panel-keeper/internal/panel"
	"github.com/schollz/progressbar/v3"
)

// NewMatchProgress returns a panel.ProgressFunc that draws a progress bar
// on w while attrited merchants are matched.
func NewMatchProgress(w io.Writer) panel.ProgressFunc {
	return func(total int) func() {
		if total == 0 {
			return func() {}
		}
		bar := progressbar.NewOptions(total,
			progressbar.OptionSetWriter(w),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionShowCount(),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionSetWidth(40),
			progressbar.OptionSetDescription("[cyan][bold]Matching attrited merchants...[reset]"),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "[green]=[reset]",
				SaucerHead:    "[green]>[reset]",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
			progressbar.OptionOnCompletion(func() {
				if _, err := fmt.Fprintln(w); err != nil {
					slog.Warn("Failed to write newline after progress bar", "error", err)
				}
			}),
		)
		return func() {
			if err := bar.Add(1); err != nil {
				slog.Warn("Failed to update progress bar", "error", err)
			}
		}
	}
}
