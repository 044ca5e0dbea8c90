package verifier

import (
	"os"
	"path/filepath"
)

// BuildSystem is a detected convention for building/testing a workspace.
type BuildSystem struct {
	Name       string
	BuildCmd   string
	TestCmd    string
	DetectedAt string
}

var buildSystemChecks = []struct {
	file     string
	name     string
	buildCmd string
	testCmd  string
}{
	{"package.json", "npm", "npm run build", "npm test"},
	{"go.mod", "go", "go build ./...", "go test ./..."},
	{"Cargo.toml", "cargo", "cargo build", "cargo test"},
	{"Makefile", "make", "make", "make test"},
	{"build.gradle", "gradle", "./gradlew build", "./gradlew test"},
	{"pom.xml", "maven", "mvn compile", "mvn test"},
}

// DetectBuildCommand scans workDir for the first recognised build system,
// returning its build and test commands. Reports nothing found via ok=false.
func DetectBuildCommand(workDir string) (BuildSystem, bool) {
	for _, check := range buildSystemChecks {
		path := filepath.Join(workDir, check.file)
		if _, err := os.Stat(path); err == nil {
			return BuildSystem{
				Name:       check.name,
				BuildCmd:   check.buildCmd,
				TestCmd:    check.testCmd,
				DetectedAt: path,
			}, true
		}
	}
	return BuildSystem{}, false
}
