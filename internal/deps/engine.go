package deps

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// packageRunners execute a tool named by their first argument.
var packageRunners = map[string]struct{}{
	"npx":  {},
	"bunx": {},
	"pnpx": {},
}

// RenderRequirements lists the binaries needed to run the render command.
// For package runners such as npx the invoked tool (for example remotion) is
// also required, resolved from the project's node_modules.
func RenderRequirements(command string, args []string, workDir string) []Requirement {
	command = strings.TrimSpace(command)
	reqs := []Requirement{{
		Name:        "Render engine",
		Command:     command,
		Description: "Required to render the menu video",
		WorkDir:     workDir,
	}}
	if _, ok := packageRunners[filepath.Base(command)]; !ok {
		return reqs
	}
	reqs = append(reqs, Requirement{
		Name:        "Node.js",
		Command:     "node",
		Description: "Runtime for the render project",
	})
	if tool := runnerTool(args); tool != "" {
		reqs = append(reqs, Requirement{
			Name:        tool,
			Command:     tool,
			Description: "Render CLI installed in the render project",
			WorkDir:     workDir,
			// npx can download the tool on first use.
			Optional: true,
		})
	}
	return reqs
}

// runnerTool returns the first non-flag argument, the tool a package runner executes.
func runnerTool(args []string) string {
	for _, arg := range args {
		arg = strings.TrimSpace(arg)
		if arg == "" || strings.HasPrefix(arg, "-") {
			continue
		}
		if strings.Contains(arg, "{") {
			return ""
		}
		return arg
	}
	return ""
}

func isExecutableFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return isExecutable(info)
}

func isExecutable(info os.FileInfo) bool {
	if info == nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
