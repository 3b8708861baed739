package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/chatwire/chatwire-go/pkg/log"
)

// RunFilter reads the log file and writes the matching events to a new
// CBOR log file. Returns the number of events kept.
func RunFilter(path, output string, filter *log.Filter) (int, error) {
	reader, err := log.OpenFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	out, err := os.Create(output)
	if err != nil {
		return 0, fmt.Errorf("failed to create output file: %w", err)
	}
	defer out.Close()

	encoder := log.NewEncoder(out)

	kept := 0
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return kept, fmt.Errorf("failed to read event: %w", err)
		}
		if filter != nil && !filter.Matches(event) {
			continue
		}
		if err := encoder.Encode(event); err != nil {
			return kept, fmt.Errorf("failed to write event: %w", err)
		}
		kept++
	}
	return kept, nil
}
