//go:build !windows

package services

func checkSystemSupport() error {
	return nil
}
