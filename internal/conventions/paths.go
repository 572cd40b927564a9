package conventions

import "path/filepath"

const (
	// DefaultDataDir is the default packrun data directory name (relative to home).
	DefaultDataDir = ".packrun"
	// DBFile is the default SQLite database filename.
	DBFile = "packrun.db"
	// PacksDir is the default subdirectory that holds the installed packs.
	PacksDir = "packs"
	// VirtualenvsDir is the subdirectory for the pack environments.
	VirtualenvsDir = "virtualenvs"

	// Pack-level files.

	// ActionsDir is the pack subdirectory with the action scripts.
	ActionsDir = "actions"
	// ManifestFile is the pack dependency manifest, one specifier per line.
	ManifestFile = "requirements.txt"
	// MetadataFile is the optional pack metadata file.
	MetadataFile = "pack.yaml"

	// Environment-level files.

	// LibDir is the installed dependency library directory inside an environment.
	// Its presence marks a completely provisioned environment.
	LibDir = "lib"
	// EnvManifestFile is the normalized requirements copy kept in the environment.
	EnvManifestFile = "requirements.txt"
)

// VirtualenvsPath returns the directory holding all the pack environments.
func VirtualenvsPath(basePath string) string {
	return filepath.Join(basePath, VirtualenvsDir)
}

// EnvPath returns the environment root for a pack.
func EnvPath(basePath, pack string) string {
	return filepath.Join(VirtualenvsPath(basePath), pack)
}

// EnvLibPath returns the library directory of a pack environment.
func EnvLibPath(basePath, pack string) string {
	return filepath.Join(EnvPath(basePath, pack), LibDir)
}

// EnvLockPath returns the lock file used to serialize the provisioning of a pack.
func EnvLockPath(basePath, pack string) string {
	return filepath.Join(VirtualenvsPath(basePath), "."+pack+".lock")
}

// EnvTmpPath returns a build directory for a pack environment, renamed into place once complete.
func EnvTmpPath(basePath, pack, suffix string) string {
	return filepath.Join(VirtualenvsPath(basePath), "."+pack+".tmp-"+suffix)
}

// EnvTmpPattern returns the glob matching every build directory of a pack environment.
func EnvTmpPattern(basePath, pack string) string {
	return EnvTmpPath(basePath, pack, "*")
}

// PackPath returns the root of a pack.
func PackPath(packsPath, pack string) string {
	return filepath.Join(packsPath, pack)
}

// PackFilePath returns the full path to a file inside a pack directory.
func PackFilePath(packsPath, pack, filename string) string {
	return filepath.Join(PackPath(packsPath, pack), filename)
}
