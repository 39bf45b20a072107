package metrics

import (
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// WriteTextfile flushes the gathered metrics to path in the node exporter
// textfile format. Batch commands call it once before exiting; an empty path
// is a no-op.
func WriteTextfile(gatherer prometheus.Gatherer, path string) error {
	if strings.TrimSpace(path) == "" || gatherer == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, gatherer); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
