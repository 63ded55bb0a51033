package deps

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// Requirement defines an external dependency the renderer relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	// WorkDir, when set, is searched for node_modules/.bin/<Command> before PATH.
	WorkDir string
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// CheckBinaries evaluates the provided requirements and reports availability.
// Command records the resolved path when the binary is found.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		resolved, err := Resolve(cmd, req.WorkDir)
		if err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Command = resolved
		status.Available = true
		results = append(results, status)
	}
	return results
}

// Resolve locates command, preferring a project-local node_modules/.bin
// entry under workDir over PATH.
func Resolve(command, workDir string) (string, error) {
	command = strings.TrimSpace(command)
	if workDir = strings.TrimSpace(workDir); workDir != "" && !strings.ContainsRune(command, filepath.Separator) {
		local := filepath.Join(workDir, "node_modules", ".bin", command)
		if isExecutableFile(local) {
			return local, nil
		}
	}
	return exec.LookPath(command)
}
