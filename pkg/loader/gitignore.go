package loader

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// gitignoreComment heads the block EnsureIgnored appends.
const gitignoreComment = "# arbor view state and snapshots"

// EnsureIgnored makes sure projectDir/.gitignore covers dir (e.g. ".arbor").
// It creates the file when missing, leaves it alone when dir is already
// listed, and otherwise appends "dir/" after a short comment. An empty
// projectDir means the working directory.
func EnsureIgnored(projectDir, dir string) error {
	if projectDir == "" {
		var err error
		projectDir, err = os.Getwd()
		if err != nil {
			return err
		}
	}
	dir = strings.Trim(dir, "/")

	gitignorePath := filepath.Join(projectDir, ".gitignore")
	present, err := isIgnored(gitignorePath, dir)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	if present {
		return nil
	}
	return appendToGitignore(gitignorePath, dir+"/")
}

// isIgnored checks if dir is already covered by the .gitignore at path.
func isIgnored(path, dir string) (bool, error) {
	file, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if coversDir(line, dir) {
			return true, nil
		}
	}
	return false, scanner.Err()
}

// coversDir reports whether a gitignore line ignores the whole of dir:
// "dir", "dir/", "dir/*", "dir/**" or "dir/**/*", optionally rooted with "/".
func coversDir(line, dir string) bool {
	rest, ok := strings.CutPrefix(strings.TrimPrefix(line, "/"), dir)
	if !ok {
		return false
	}
	switch rest {
	case "", "/", "/*", "/**", "/**/*":
		return true
	}
	return false
}

// appendToGitignore appends pattern, creating the file if needed and
// keeping a blank line between it and existing content.
func appendToGitignore(path, pattern string) error {
	content, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	var toWrite string
	if len(content) > 0 {
		if content[len(content)-1] != '\n' {
			toWrite = "\n"
		}
		toWrite += "\n"
	}
	toWrite += gitignoreComment + "\n" + pattern + "\n"

	_, err = file.WriteString(toWrite)
	return err
}
