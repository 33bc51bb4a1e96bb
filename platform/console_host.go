//go:build !rp2040 && !rp2350

package platform

import (
	"io"
	"os"
)

// Console returns the writer demo output goes to: stdout on host builds.
func Console() io.Writer { return os.Stdout }
