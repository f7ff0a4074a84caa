//go:build !unix

package platform

// SameDevice always reports false without unix device ids, so callers copy
// instead of linking.
func SameDevice(string, string) bool { return false }
