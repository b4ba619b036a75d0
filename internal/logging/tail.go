package logging

import (
	"bufio"
	"os"
	"path/filepath"
	"sort"
)

// LogsDir returns the directory logs are written to
// (<workspace>/.zerorepo/logs once Initialize has succeeded, whether or
// not debug mode is on), or "" if Initialize hasn't been called.
func LogsDir() string {
	return logsDir
}

// TailRecent reads every file in the logs directory in file-name order
// (date, then category), concatenates their lines, and returns the last
// limit of them. Lines from different files are not interleaved by
// timestamp, so the result ends with the tail of the alphabetically last
// file rather than the most recently written lines. It is the boundary-only
// read path the job facade's GET /api/logs exposes; it never blocks on
// anything but disk I/O and tolerates a missing logs directory.
func TailRecent(limit int) ([]string, error) {
	if limit <= 0 {
		limit = 100
	}
	dir := LogsDir()
	if dir == "" {
		return nil, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)

	var lines []string
	for _, p := range paths {
		fileLines, err := readLines(p)
		if err != nil {
			continue
		}
		lines = append(lines, fileLines...)
	}

	if len(lines) > limit {
		lines = lines[len(lines)-limit:]
	}
	return lines, nil
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines, scanner.Err()
}
