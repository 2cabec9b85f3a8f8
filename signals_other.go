//go:build !unix

package livetune

import "os"

func defaultSignals() []os.Signal {
	return []os.Signal{os.Interrupt}
}
