// SPDX-License-Identifier: MIT

package metrics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
)

// WriteTextfile writes every registered metric to path in the text format
// read by node_exporter's textfile collector. The write is atomic.
func WriteTextfile(path string) error {
	return WriteTextfileFrom(prometheus.DefaultGatherer, path)
}

// WriteTextfileFrom writes the metrics of g to path.
func WriteTextfileFrom(g prometheus.Gatherer, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create metrics dir: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
