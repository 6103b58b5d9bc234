//go:build !linux

package file

import "os"

// adviseSequential is a no-op on platforms without posix_fadvise.
func adviseSequential(*os.File) {}
