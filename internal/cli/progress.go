package cli

import (
	"github.com/cheggaaa/pb/v3"
)

// hashProgress returns a progress callback backed by a terminal progress
// bar, plus a finish function. Enabled in verbose human-output mode only.
func hashProgress() (func(done, total int), func()) {
	var bar *pb.ProgressBar

	callback := func(done, total int) {
		if bar == nil {
			bar = pb.StartNew(total)
		}
		bar.SetCurrent(int64(done))
	}

	finish := func() {
		if bar != nil {
			bar.Finish()
		}
	}

	return callback, finish
}

// progressEnabled reports whether hashing progress should be displayed
func progressEnabled() bool {
	return globalFlags.Verbose && !globalFlags.Quiet && globalFlags.Output != "json"
}
