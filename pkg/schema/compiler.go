package schema

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/protoloom/protoloom/pkg/logging"
	"github.com/protoloom/protoloom/pkg/metrics"
)

// maxImportSearchDepth bounds the directory walk used to resolve
// unresolved imports laid out under a prefix (e.g. vendor/google/type/...).
const maxImportSearchDepth = 3

var importRe = regexp.MustCompile(`(?m)^\s*import\s+"([^"]+)"\s*;`)
var serviceRe = regexp.MustCompile(`(?m)\bservice\s+\w+\s*\{`)

// Compiler drives protoc to turn proto sources into a DescriptorPool.
type Compiler struct {
	log        *slog.Logger
	protocPath string // override; empty means "protoc" resolved via PATH
}

// NewCompiler constructs a Compiler. An empty protocPath resolves protoc
// from PATH at compile time.
func NewCompiler(protocPath string) *Compiler {
	return &Compiler{log: logging.Nop(), protocPath: protocPath}
}

// SetLogger installs a structured logger, replacing the no-op default.
func (c *Compiler) SetLogger(log *slog.Logger) {
	if log != nil {
		c.log = log
	}
}

// ToolchainInfo reports the resolved protoc binary and version string.
type ToolchainInfo struct {
	Path    string
	Version string
}

// CheckToolchain resolves the protoc binary and queries "protoc --version",
// returning the install hint from ErrProtocNotFound when it cannot be
// found — a small diagnostic used by CLI "doctor"-style commands.
func (c *Compiler) CheckToolchain(ctx context.Context) (ToolchainInfo, error) {
	path, err := c.resolveProtoc()
	if err != nil {
		return ToolchainInfo{}, err
	}
	out, err := exec.CommandContext(ctx, path, "--version").Output() //nolint:gosec
	if err != nil {
		return ToolchainInfo{}, fmt.Errorf("schema: protoc --version failed: %w", err)
	}
	return ToolchainInfo{Path: path, Version: strings.TrimSpace(string(out))}, nil
}

func (c *Compiler) resolveProtoc() (string, error) {
	if c.protocPath != "" {
		return c.protocPath, nil
	}
	path, err := exec.LookPath("protoc")
	if err != nil {
		return "", ErrProtocNotFound
	}
	return path, nil
}

// Compile implements the §4.C algorithm: discover files, infer proto_path
// entries from the configured roots and from unresolved imports, select
// the compilation set (files declaring at least one service), invoke
// protoc with --include_imports, and decode the resulting
// FileDescriptorSet into a DescriptorPool.
func (c *Compiler) Compile(ctx context.Context, roots []ImportRoot) (pool *DescriptorPool, warnings []string, err error) {
	defer func() {
		if metrics.DescriptorCompilesTotal == nil {
			return
		}
		status := "ok"
		if err != nil {
			status = "error"
		}
		if vec, vecErr := metrics.DescriptorCompilesTotal.WithLabels(status); vecErr == nil {
			_ = vec.Inc()
		}
	}()

	var files []string
	files, warnings = Discover(roots)
	if len(files) == 0 {
		return nil, warnings, ErrNoServices
	}

	protoPaths, err := c.resolveProtoPaths(roots, files)
	if err != nil {
		return nil, warnings, err
	}

	compileSet, err := selectCompilationSet(files)
	if err != nil {
		return nil, warnings, err
	}

	protocPath, err := c.resolveProtoc()
	if err != nil {
		return nil, warnings, err
	}

	tmp, err := os.CreateTemp("", "protoloom-*.pb")
	if err != nil {
		return nil, warnings, fmt.Errorf("schema: create descriptor temp file: %w", err)
	}
	tmpPath := tmp.Name()
	_ = tmp.Close()
	defer os.Remove(tmpPath)

	args := []string{"--descriptor_set_out=" + tmpPath, "--include_imports"}
	for _, p := range protoPaths {
		args = append(args, "--proto_path="+filepath.ToSlash(p))
	}
	for _, f := range compileSet {
		args = append(args, normalizeProtocPath(f, protoPaths))
	}

	c.log.Debug("invoking protoc", "path", protocPath, "files", len(compileSet), "proto_paths", len(protoPaths))

	cmd := exec.CommandContext(ctx, protocPath, args...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if runErr := cmd.Run(); runErr != nil {
		return nil, warnings, fmt.Errorf("schema: protoc exited with error: %s", strings.TrimSpace(stderr.String()))
	}

	raw, err := os.ReadFile(tmpPath)
	if err != nil {
		return nil, warnings, fmt.Errorf("schema: read descriptor set: %w", err)
	}

	var set descriptorpb.FileDescriptorSet
	if err := proto.Unmarshal(raw, &set); err != nil {
		return nil, warnings, fmt.Errorf("schema: decode descriptor set: %w", err)
	}

	pool, err = NewDescriptorPool(&set)
	if err != nil {
		return nil, warnings, err
	}

	c.log.Info("compiled descriptor pool", "services", len(pool.Services()), "files", len(set.File))
	return pool, warnings, nil
}

// resolveProtoPaths builds the proto_path list: directory roots directly,
// file roots' parent directories, plus directories discovered by walking
// for unresolved imports (step 4 of §4.C).
func (c *Compiler) resolveProtoPaths(roots []ImportRoot, files []string) ([]string, error) {
	var protoPaths []string
	seen := make(map[string]struct{})
	add := func(p string) {
		clean := filepath.Clean(p)
		if _, ok := seen[clean]; ok {
			return
		}
		seen[clean] = struct{}{}
		protoPaths = append(protoPaths, clean)
	}

	var searchDirs []string
	for _, root := range roots {
		if !root.Enabled {
			continue
		}
		switch root.Kind {
		case KindDir:
			add(root.Path)
			searchDirs = append(searchDirs, root.Path)
		case KindFile:
			dir := filepath.Dir(root.Path)
			add(dir)
			searchDirs = append(searchDirs, dir)
		}
	}

	imports := extractImports(files)
	for _, imp := range imports {
		if resolvedUnder(imp, protoPaths) {
			continue
		}
		if dir, ok := searchForImport(imp, searchDirs, maxImportSearchDepth); ok {
			add(dir)
		}
	}

	return protoPaths, nil
}

func extractImports(files []string) []string {
	seen := make(map[string]struct{})
	var imports []string
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			continue
		}
		for _, m := range importRe.FindAllStringSubmatch(string(data), -1) {
			imp := m[1]
			if _, ok := seen[imp]; ok {
				continue
			}
			seen[imp] = struct{}{}
			imports = append(imports, imp)
		}
	}
	sort.Strings(imports)
	return imports
}

func resolvedUnder(imp string, protoPaths []string) bool {
	for _, p := range protoPaths {
		if _, err := os.Stat(filepath.Join(p, imp)); err == nil {
			return true
		}
	}
	return false
}

// searchForImport looks under every search root to depth <= maxDepth for a
// directory whose name matches the import's first path segment, such that
// joining the rest of the import resolves to an existing file.
func searchForImport(imp string, searchRoots []string, maxDepth int) (string, bool) {
	segments := strings.Split(filepath.ToSlash(imp), "/")
	if len(segments) == 0 {
		return "", false
	}
	first, rest := segments[0], strings.Join(segments[1:], "/")

	for _, root := range searchRoots {
		found := ""
		_ = walkDepth(root, maxDepth, func(dir string) bool {
			if filepath.Base(dir) != first {
				return true
			}
			candidate := filepath.Join(filepath.Dir(dir), first, rest)
			if _, err := os.Stat(candidate); err == nil {
				found = filepath.Dir(dir)
				return false
			}
			return true
		})
		if found != "" {
			return found, true
		}
	}
	return "", false
}

// walkDepth visits directories under root up to maxDepth levels deep,
// calling visit(dirPath) for each; visit returns false to stop early.
func walkDepth(root string, maxDepth int, visit func(dir string) bool) error {
	var walk func(dir string, depth int) bool
	walk = func(dir string, depth int) bool {
		if !visit(dir) {
			return false
		}
		if depth >= maxDepth {
			return true
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			return true
		}
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			if !walk(filepath.Join(dir, e.Name()), depth+1) {
				return false
			}
		}
		return true
	}
	walk(root, 0)
	return nil
}

// selectCompilationSet keeps only files declaring at least one service;
// dependency files are brought in transitively by --include_imports.
func selectCompilationSet(files []string) ([]string, error) {
	var set []string
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			continue
		}
		if serviceRe.Match(data) {
			set = append(set, f)
		}
	}
	if len(set) == 0 {
		return nil, ErrNoServices
	}
	return set, nil
}

// normalizeProtocPath expresses path relative to the first proto_path
// root that yields a non-empty relative path (the tie-break rule), using
// forward slashes as protoc requires.
func normalizeProtocPath(path string, protoPaths []string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	for _, root := range protoPaths {
		rootAbs, err := filepath.Abs(root)
		if err != nil {
			rootAbs = root
		}
		rel, err := filepath.Rel(rootAbs, abs)
		if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
			continue
		}
		return filepath.ToSlash(rel)
	}
	return filepath.ToSlash(path)
}
