package source

import (
	"os"
	"path/filepath"
	"strings"
)

// ScanDir discovers session logs one level below claudeDir/projects.
// Agent logs (agent-*.jsonl) are skipped; they are loaded on demand.
// A missing projects directory yields no files and no error.
func ScanDir(claudeDir string) ([]DiscoveredFile, error) {
	projectsDir := filepath.Join(claudeDir, "projects")

	projects, err := os.ReadDir(projectsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var files []DiscoveredFile
	for _, p := range projects {
		if !p.IsDir() {
			continue
		}
		entries, err := os.ReadDir(filepath.Join(projectsDir, p.Name()))
		if err != nil {
			continue // unreadable project directory
		}

		project := decodeProjectName(p.Name())
		for _, e := range entries {
			name := e.Name()
			if e.IsDir() || !IsSessionFile(name) {
				continue
			}
			files = append(files, DiscoveredFile{
				Path:       filepath.Join(projectsDir, p.Name(), name),
				Project:    project,
				ProjectDir: p.Name(),
				SessionID:  strings.TrimSuffix(name, sessionFileExt),
			})
		}
	}

	return files, nil
}

// IsSessionFile reports whether name is an ordinary session log.
func IsSessionFile(name string) bool {
	return len(name) > len(sessionFileExt) &&
		strings.HasSuffix(name, sessionFileExt) &&
		!strings.HasPrefix(name, agentFilePrefix)
}

// decodeProjectName extracts a human-readable project name from the encoded directory name.
// Claude Code encodes absolute paths by replacing "/" with "-", so:
//
//	"-Users-tayloreernisse-projects-gitlore" -> "gitlore"
//	"-Users-tayloreernisse-projects-my-cool-project" -> "my-cool-project"
//
// We find the last known path component ("projects", "repos", "src", "code", "home")
// and take everything after it. Falls back to the last non-empty segment.
func decodeProjectName(dirName string) string {
	parts := strings.Split(dirName, "-")

	// Known parent directory names that commonly precede the project name
	knownParents := map[string]bool{
		"projects": true, "repos": true, "src": true,
		"code": true, "workspace": true, "dev": true,
	}

	// Scan for the last known parent marker and join everything after it
	for i := len(parts) - 2; i >= 0; i-- {
		if knownParents[strings.ToLower(parts[i])] {
			name := strings.Join(parts[i+1:], "-")
			if name != "" {
				return name
			}
		}
	}

	// Fallback: return the last non-empty segment
	for i := len(parts) - 1; i >= 0; i-- {
		if parts[i] != "" {
			return parts[i]
		}
	}

	return dirName
}

// CountProjects returns the number of unique projects in a set of discovered files.
func CountProjects(files []DiscoveredFile) int {
	seen := make(map[string]struct{})
	for _, f := range files {
		seen[f.Project] = struct{}{}
	}
	return len(seen)
}
