//go:build windows

package services

// checkSystemSupport reports that Windows has no systemctl equivalent.
func checkSystemSupport() error {
	return UnsupportedPlatformError{Kind: KindSystem, OS: "windows"}
}
