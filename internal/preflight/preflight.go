package preflight

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"bindery/internal/config"
	"bindery/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every applicable check for the given config: directory
// access for each configured path, free space on the working volumes, and
// the external binaries.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	dirs := []struct {
		name string
		path string
	}{
		{"Profile directory", cfg.Paths.ProfileDir},
		{"Audio directory", cfg.Paths.AudioDir},
		{"Converted directory", cfg.Paths.ConvertedDir},
		{"Images directory", cfg.Paths.ImagesDir},
		{"Documents directory", cfg.Paths.DocumentsDir},
		{"Log directory", cfg.Paths.LogDir},
	}
	for _, dir := range dirs {
		if dir.path == "" {
			continue
		}
		results = append(results, CheckDirectoryAccess(dir.name, dir.path))
	}

	if cfg.Preflight.MinFreeGiB > 0 {
		results = append(results, CheckFreeSpace("Audio volume", cfg.Paths.AudioDir, cfg.Preflight.MinFreeGiB))
		results = append(results, CheckFreeSpace("Converted volume", cfg.Paths.ConvertedDir, cfg.Preflight.MinFreeGiB))
	}

	for _, status := range deps.CheckBinaries(deps.For(cfg)) {
		result := Result{Name: status.Name, Passed: status.Available || status.Optional}
		if status.Available {
			result.Detail = status.Command
		} else {
			result.Detail = status.Detail
		}
		results = append(results, result)
	}

	return results
}

// Passed reports whether every result passed.
func Passed(results []Result) bool {
	for _, result := range results {
		if !result.Passed {
			return false
		}
	}
	return true
}

// CheckDirectoryAccess verifies that the directory exists and is
// readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckFreeSpace verifies the volume holding path has at least minGiB free.
func CheckFreeSpace(name, path string, minGiB int) Result {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}
	freeBytes := stat.Bavail * uint64(stat.Bsize)
	freeGiB := float64(freeBytes) / (1 << 30)
	if freeGiB < float64(minGiB) {
		return Result{Name: name, Detail: fmt.Sprintf("%s (%.1f GiB free, %d GiB required)", path, freeGiB, minGiB)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%.1f GiB free)", path, freeGiB)}
}
