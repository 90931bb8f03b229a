package utils

import "path/filepath"

// GetPathInfo resolves relPath against the working directory and also
// returns the directory containing it.
func GetPathInfo(relPath string) (fullPath string, parentDir string, err error) {
	// Convert to absolute path (resolves ../../ and cleans the path)
	fullPath, err = filepath.Abs(relPath)
	if err != nil {
		return "", "", err
	}

	parentDir = filepath.Dir(fullPath)

	return fullPath, parentDir, nil
}

// ResolveRelative anchors p at base unless p is already absolute. Profile
// files use it so their include paths stay valid wherever the profile
// file lives.
func ResolveRelative(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}
