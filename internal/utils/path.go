package utils

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/charmbracelet/log"
)

// AppName names the config directory and the default resource files.
const AppName = "wordfix"

// DictionaryNames are the file names searched when no dictionary path is given.
var DictionaryNames = []string{"dictionary.msgpack", "dictionary.txt", "dictionary.tsv"}

// ErrDictionaryNotFound is returned when no dictionary candidate exists.
var ErrDictionaryNotFound = errors.New("dictionary not found")

// PathResolver provides robust path resolution for the wordfix binary
type PathResolver struct {
	executablePath string
	executableDir  string
	homeDir        string
	configDir      string
}

// NewPathResolver creates a new path resolver that determines the executable location
func NewPathResolver() (*PathResolver, error) {
	execPath, err := os.Executable()
	if err != nil {
		return nil, err
	}
	// Resolve any symlinks to get the actual binary location
	execPath, err = filepath.EvalSymlinks(execPath)
	if err != nil {
		return nil, err
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Warnf("Could not determine home directory: %v", err)
		homeDir = os.TempDir()
	}

	pr := &PathResolver{
		executablePath: execPath,
		executableDir:  filepath.Dir(execPath),
		homeDir:        homeDir,
		configDir:      getConfigDir(homeDir),
	}
	log.Debugf("PathResolver initialized: exec=%s, configDir=%s", execPath, pr.configDir)
	return pr, nil
}

// getConfigDir returns the appropriate config directory for the platform
func getConfigDir(homeDir string) string {
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(homeDir, ".config", AppName)
	case "linux":
		if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
			return filepath.Join(configHome, AppName)
		}
		return filepath.Join(homeDir, ".config", AppName)
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, AppName)
		}
		return filepath.Join(homeDir, "AppData", "Roaming", AppName)
	default:
		return filepath.Join(homeDir, "."+AppName)
	}
}

// ResolveDictionary finds the dictionary file to load.
// A user-specified path is tried as given, then relative to the executable.
// Without one, the default names are searched in the working directory,
// next to the executable, in its data/ dir and in the config dir.
func (pr *PathResolver) ResolveDictionary(userPath string) (string, error) {
	candidates := pr.dictionaryCandidates(userPath)
	for _, path := range candidates {
		if isRegularFile(path) {
			log.Debugf("Using dictionary: %s", path)
			return path, nil
		}
		log.Debugf("Dictionary candidate not found: %s", path)
	}
	if userPath != "" {
		return "", &os.PathError{Op: "resolve", Path: userPath, Err: ErrDictionaryNotFound}
	}
	return "", ErrDictionaryNotFound
}

func (pr *PathResolver) dictionaryCandidates(userPath string) []string {
	if userPath != "" {
		if filepath.IsAbs(userPath) {
			return []string{userPath}
		}
		return []string{userPath, filepath.Join(pr.executableDir, userPath)}
	}

	var dirs []string
	if cwd, err := os.Getwd(); err == nil {
		dirs = append(dirs, cwd)
	}
	dirs = append(dirs,
		pr.executableDir,
		filepath.Join(pr.executableDir, "data"),
		filepath.Join(pr.configDir, "data"),
		pr.configDir,
	)

	candidates := make([]string, 0, len(dirs)*len(DictionaryNames))
	for _, dir := range dirs {
		for _, name := range DictionaryNames {
			candidates = append(candidates, filepath.Join(dir, name))
		}
	}
	return candidates
}

// GetConfigPath returns the full path for a config file
// It ensures the config directory exists and handles read-only filesystem issues
func (pr *PathResolver) GetConfigPath(filename string) (string, error) {
	configPath := filepath.Join(pr.configDir, filename)
	if pr.ensureConfigDir(pr.configDir) {
		return configPath, nil
	}

	fallbackDirs := []string{
		filepath.Join(pr.homeDir, "."+AppName),
		filepath.Join(os.TempDir(), AppName),
		pr.executableDir,
	}
	for _, dir := range fallbackDirs {
		if pr.ensureConfigDir(dir) {
			path := filepath.Join(dir, filename)
			log.Warnf("Using fallback config location: %s", path)
			return path, nil
		}
	}

	tempPath := filepath.Join(os.TempDir(), filename)
	log.Warnf("Using temporary config file: %s", tempPath)
	return tempPath, nil
}

// ensureConfigDir creates the directory if it doesn't exist and tests writability
func (pr *PathResolver) ensureConfigDir(dir string) bool {
	return CheckDirStatus(dir).Writable
}

// GetRuntimeInfo returns debug information about the current runtime environment
func (pr *PathResolver) GetRuntimeInfo() map[string]string {
	cwd, _ := os.Getwd()

	info := map[string]string{
		"executable_path": pr.executablePath,
		"executable_dir":  pr.executableDir,
		"current_dir":     cwd,
		"config_dir":      pr.configDir,
		"os":              runtime.GOOS,
		"arch":            runtime.GOARCH,
	}
	for _, envVar := range []string{"XDG_CONFIG_HOME", "APPDATA"} {
		if value := os.Getenv(envVar); value != "" {
			info["env_"+strings.ToLower(envVar)] = value
		}
	}
	return info
}

func isRegularFile(path string) bool {
	stat, err := os.Stat(path)
	return err == nil && stat.Mode().IsRegular()
}
