// Package initcmd scaffolds finroad configuration and a starter roadmap.
package initcmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/npratt/finroad/internal/config"
)

// Options configures the init command behavior.
type Options struct {
	DryRun  bool
	Force   bool
	Minimal bool      // Config only, no starter journey
	Global  bool      // Write the user config instead of the project one
	Dir     string    // Project root (defaults to the working directory)
	Writer  io.Writer // Output writer (defaults to os.Stdout)
	Now     func() time.Time
}

// InstallFile represents a file to be installed.
type InstallFile struct {
	Path    string // Relative path within the target directory
	Content string
}

// Result contains the outcome of the init operation.
type Result struct {
	TargetDir   string
	Created     []string
	Skipped     []string
	Unchanged   []string
	Overwritten []string
	Backups     []string
}

// FileStatus represents the status of a file to be installed.
type FileStatus struct {
	Path      string // Relative path within the target directory
	Exists    bool   // True if file exists
	Unchanged bool   // True if existing content matches new content
	Diff      string // Unified diff if changed (empty if unchanged or new)
}

const configHeader = "# finroad configuration. Environment variables (FINROAD_*) and flags override these values.\n"

// BuildFileList returns the files to install based on options.
func BuildFileList(opts Options) ([]InstallFile, error) {
	cfg := config.Default()
	if !opts.Minimal && !opts.Global {
		cfg.Journey.Path = StarterJourneyFile
	}
	data, err := config.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("render config: %w", err)
	}

	configPath := filepath.Join(config.ProjectConfigDir, config.ProjectConfigFile)
	if opts.Global {
		configPath = config.GlobalConfigFile
	}
	files := []InstallFile{{Path: configPath, Content: configHeader + string(data)}}

	if opts.Minimal || opts.Global {
		return files, nil
	}

	starter, err := starterContent()
	if err != nil {
		return nil, fmt.Errorf("render starter journey: %w", err)
	}
	files = append(files, InstallFile{Path: StarterJourneyFile, Content: starter})
	return files, nil
}

// Run executes the init command with the given options.
func Run(opts Options) (*Result, error) {
	if opts.Writer == nil {
		opts.Writer = os.Stdout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	targetDir, err := getTargetDir(opts)
	if err != nil {
		return nil, err
	}

	files, err := BuildFileList(opts)
	if err != nil {
		return nil, err
	}

	statuses := checkFileStatuses(targetDir, files)

	if opts.DryRun {
		return showDryRun(opts.Writer, targetDir, files, statuses)
	}

	hasChanges := false
	for _, s := range statuses {
		if s.Exists && !s.Unchanged {
			hasChanges = true
			break
		}
	}
	if hasChanges && !opts.Force {
		return showChanges(opts.Writer, targetDir, statuses)
	}

	return installFiles(opts, targetDir, files, statuses)
}

// getTargetDir returns the directory the file list is relative to.
func getTargetDir(opts Options) (string, error) {
	if opts.Global {
		base := os.Getenv("XDG_CONFIG_HOME")
		if base == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("get home directory: %w", err)
			}
			base = filepath.Join(home, ".config")
		}
		return filepath.Join(base, config.GlobalConfigDir), nil
	}
	if opts.Dir != "" {
		return opts.Dir, nil
	}
	return ".", nil
}

// checkFileStatuses checks each file and returns its status.
func checkFileStatuses(targetDir string, files []InstallFile) []FileStatus {
	statuses := make([]FileStatus, 0, len(files))
	for _, f := range files {
		status := FileStatus{Path: f.Path}
		existing, err := os.ReadFile(filepath.Join(targetDir, f.Path))
		if err == nil {
			status.Exists = true
			if string(existing) == f.Content {
				status.Unchanged = true
			} else {
				status.Diff = UnifiedDiff("existing", "new", string(existing), f.Content)
			}
		}
		statuses = append(statuses, status)
	}
	return statuses
}

// showDryRun displays what would be changed without making changes.
func showDryRun(w io.Writer, targetDir string, files []InstallFile, statuses []FileStatus) (*Result, error) {
	_, _ = fmt.Fprintln(w, "DRY RUN - No changes will be made")
	_, _ = fmt.Fprintln(w)

	result := &Result{TargetDir: targetDir}
	for i, f := range files {
		path := filepath.Join(targetDir, f.Path)
		status := statuses[i]
		switch {
		case status.Exists && status.Unchanged:
			_, _ = fmt.Fprintf(w, "Already up to date: %s\n", path)
			result.Unchanged = append(result.Unchanged, f.Path)
		case status.Exists:
			_, _ = fmt.Fprintf(w, "Would overwrite (has changes): %s\n", path)
			_, _ = fmt.Fprintln(w, status.Diff)
			result.Skipped = append(result.Skipped, f.Path)
		default:
			_, _ = fmt.Fprintf(w, "Would create: %s\n", path)
			_, _ = fmt.Fprintln(w, "--- BEGIN FILE ---")
			_, _ = fmt.Fprint(w, f.Content)
			_, _ = fmt.Fprintln(w, "--- END FILE ---")
			_, _ = fmt.Fprintln(w)
			result.Created = append(result.Created, f.Path)
		}
	}

	_, _ = fmt.Fprintln(w, "Run without --dry-run to apply changes.")
	return result, nil
}

// showChanges displays files with changes and their diffs.
func showChanges(w io.Writer, targetDir string, statuses []FileStatus) (*Result, error) {
	result := &Result{TargetDir: targetDir}

	_, _ = fmt.Fprintln(w, "The following files have changes:")
	_, _ = fmt.Fprintln(w)
	for _, s := range statuses {
		if !s.Exists {
			continue
		}
		if s.Unchanged {
			result.Unchanged = append(result.Unchanged, s.Path)
			continue
		}
		_, _ = fmt.Fprintf(w, "%s:\n", filepath.Join(targetDir, s.Path))
		_, _ = fmt.Fprintln(w, s.Diff)
		result.Skipped = append(result.Skipped, s.Path)
	}

	_, _ = fmt.Fprintln(w, "Use --force to overwrite changed files (the old versions are kept as backups).")
	return result, fmt.Errorf("files have changes (use --force to overwrite)")
}

// installFiles creates directories and writes files. Changed files are
// renamed to a timestamped backup before being replaced.
func installFiles(opts Options, targetDir string, files []InstallFile, statuses []FileStatus) (*Result, error) {
	w := opts.Writer
	result := &Result{TargetDir: targetDir}
	stamp := opts.Now().Format("20060102-150405")

	for i, f := range files {
		path := filepath.Join(targetDir, f.Path)
		status := statuses[i]

		if status.Exists && status.Unchanged {
			_, _ = fmt.Fprintf(w, "Already up to date: %s\n", path)
			result.Unchanged = append(result.Unchanged, f.Path)
			continue
		}

		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return result, fmt.Errorf("create directory %s: %w", dir, err)
		}

		if status.Exists {
			backup := path + ".bak-" + stamp
			if err := os.Rename(path, backup); err != nil {
				return result, fmt.Errorf("backup %s: %w", path, err)
			}
			result.Backups = append(result.Backups, backup)
		}

		if err := os.WriteFile(path, []byte(f.Content), 0644); err != nil {
			return result, fmt.Errorf("write %s: %w", path, err)
		}

		if status.Exists {
			_, _ = fmt.Fprintf(w, "Overwritten: %s (backup %s)\n", path, filepath.Base(result.Backups[len(result.Backups)-1]))
			result.Overwritten = append(result.Overwritten, f.Path)
		} else {
			_, _ = fmt.Fprintf(w, "Created: %s\n", path)
			result.Created = append(result.Created, f.Path)
		}
	}

	_, _ = fmt.Fprintln(w)
	if len(result.Created) == 0 && len(result.Overwritten) == 0 {
		_, _ = fmt.Fprintln(w, "finroad configuration is already up to date.")
		return result, nil
	}

	_, _ = fmt.Fprintln(w, "finroad initialized successfully!")
	if !opts.Global && !opts.Minimal {
		_, _ = fmt.Fprintf(w, "You can now run 'finroad view %s' to open the roadmap.\n", StarterJourneyFile)
	}
	return result, nil
}
