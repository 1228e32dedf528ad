// Command statswatch keeps a live copy of the admin dashboard counters and
// logs every change.
package main

import (
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
