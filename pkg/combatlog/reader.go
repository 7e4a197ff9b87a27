package combatlog

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/leighmacdonald/smitelog/pkg/log"
)

const utf8BOM = "\xef\xbb\xbf"

// maxLineSize caps a single log line. Real lines are a few hundred bytes;
// anything past this is a corrupt file, not a log.
const maxLineSize = 1024 * 1024

// readLines decodes the byte stream one line at a time. Malformed JSON is
// skipped and counted, never fatal. The context is checked between lines so a
// caller-supplied abort takes effect without finishing the file.
func readLines(ctx context.Context, reader io.Reader, summary *Summary) ([]Line, error) {
	var lines []Line

	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	lineNum := 0

	for scanner.Scan() {
		if errCtx := ctx.Err(); errCtx != nil {
			return nil, errCtx //nolint:wrapcheck
		}

		lineNum++

		text := scanner.Text()
		if lineNum == 1 {
			text = strings.TrimPrefix(text, utf8BOM)
		}

		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		// The SMITE log writer emits array-style lines with trailing commas.
		text = strings.TrimSuffix(text, ",")

		summary.LinesRead++

		var fields map[string]any
		if errDecode := json.Unmarshal([]byte(text), &fields); errDecode != nil {
			summary.LinesSkipped++

			slog.Warn("Skipping malformed line",
				slog.Int("line", lineNum), log.ErrAttr(errDecode))

			continue
		}

		lines = append(lines, classify(lineNum, fields))
	}

	if errScan := scanner.Err(); errScan != nil {
		return nil, fmt.Errorf("failed to read log stream: %w", errScan)
	}

	return lines, nil
}

// classify routes a decoded object into its event family and unpacks the
// loosely typed envelope. Unmappable envelopes keep UnknownFamily along with
// the raw fields so no input is silently lost.
func classify(lineNum int, fields map[string]any) Line {
	line := Line{Num: lineNum, Family: UnknownFamily, Fields: fields}

	var raw RawEvent
	if errDecode := unmarshalRaw(fields, &raw); errDecode != nil {
		slog.Warn("Failed to decode envelope",
			slog.Int("line", lineNum), log.ErrAttr(errDecode))

		return line
	}

	line.Raw = raw

	var family EventFamily
	if !ParseEventFamily(raw.EventType, &family) {
		return line
	}

	line.Family = family

	return line
}
