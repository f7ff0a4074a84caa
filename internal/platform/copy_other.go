//go:build !linux

package platform

import "os"

var strategies []strategy

func isFallbackErr(error) bool { return false }

func preallocate(*os.File, int64) {}
