package sdm

import (
	"io"
	"log"
	"os"
)

// logger discards progress messages until SetLog enables them.
var logger = log.New(io.Discard, "sdm: ", log.LstdFlags)

// SetLog enables or disables progress logging on stderr.
func SetLog(enable bool) {
	if enable {
		logger.SetOutput(os.Stderr)
	} else {
		logger.SetOutput(io.Discard)
	}
}

// Log writes a progress message if logging is enabled.
func Log(f string, args ...interface{}) {
	logger.Printf(f, args...)
}
