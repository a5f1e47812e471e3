package commands

import (
	"fmt"

	"github.com/linectl/linectl-go/pkg/log"
)

// readEvents streams the capture at path through fn.
func readEvents(path string, filter log.Filter, fn func(log.Event) error) error {
	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("open capture: %w", err)
	}
	defer reader.Close()

	if err := reader.Each(fn); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return nil
}
