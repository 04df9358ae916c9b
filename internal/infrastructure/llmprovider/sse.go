package llmprovider

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// sseFrame is one server-sent event: an optional event name plus the data
// payload.
type sseFrame struct {
	event string
	data  string
}

// readFrame reads the next SSE frame from the reader, skipping comments and
// blank lines. A "[DONE]" sentinel ends the stream as io.EOF.
func readFrame(reader *bufio.Reader) (*sseFrame, error) {
	frame := &sseFrame{}
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("read line: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			if frame.data != "" {
				return frame, nil
			}
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		if name, ok := strings.CutPrefix(line, "event: "); ok {
			frame.event = name
			continue
		}
		if data, ok := strings.CutPrefix(line, "data: "); ok {
			if data == "[DONE]" {
				return nil, io.EOF
			}
			frame.data = data
			continue
		}
	}
}
