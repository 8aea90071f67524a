// Package export renders transcription results for download and clipboard.
package export

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/Angad-2002/Darwix-AI/internal/domain"
)

const (
	TextFileName = "transcription.txt"
	JSONFileName = "transcription.json"
)

// Format selects an export representation.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ToPlainText renders one "[Ns - Ms] text" line per segment, times floored to whole seconds.
func ToPlainText(result domain.TranscriptionResult) string {
	lines := lo.Map(result.Segments, func(seg domain.Segment, _ int) string {
		return fmt.Sprintf("[%ds - %ds] %s", floorSeconds(seg.StartSeconds), floorSeconds(seg.EndSeconds), seg.Text)
	})
	return strings.Join(lines, "\n")
}

// ToJSON renders the full result as two-space indented JSON.
func ToJSON(result domain.TranscriptionResult) (string, error) {
	if result.Segments == nil {
		result.Segments = []domain.Segment{}
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode transcription: %w", err)
	}
	return string(data), nil
}

// Render returns the content and default file name for format.
func Render(result domain.TranscriptionResult, format Format) (content string, fileName string, err error) {
	switch format {
	case FormatText:
		return ToPlainText(result), TextFileName, nil
	case FormatJSON:
		content, err := ToJSON(result)
		if err != nil {
			return "", "", err
		}
		return content, JSONFileName, nil
	default:
		return "", "", fmt.Errorf("unknown export format %q", format)
	}
}

func floorSeconds(seconds float64) int64 {
	return decimal.NewFromFloat(seconds).Floor().IntPart()
}
