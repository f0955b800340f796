package services

import (
	"fmt"
	"os"
	"strings"

	"github.com/mitchellh/go-homedir"
)

// ExpandLocation resolves a leading ~ in a service path.
func ExpandLocation(location string) (string, error) {
	expanded, err := homedir.Expand(strings.TrimSpace(location))
	if err != nil {
		return "", fmt.Errorf("failed to expand path %s: %w", location, err)
	}
	return expanded, nil
}

// ValidateLocation checks that location is set, exists and is a directory.
// It returns the expanded path.
func ValidateLocation(location string) (string, error) {
	if strings.TrimSpace(location) == "" {
		return "", MissingLocationError{}
	}

	expanded, err := ExpandLocation(location)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(expanded)
	if err != nil {
		if os.IsNotExist(err) {
			return "", PathNotFoundError{Path: expanded}
		}
		return "", fmt.Errorf("failed to stat %s: %w", expanded, err)
	}
	if !info.IsDir() {
		return "", NotADirectoryError{Path: expanded}
	}

	return expanded, nil
}
