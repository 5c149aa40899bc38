// Package collect builds file size snapshots by walking build output
// directories.
package collect

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/Sumatoshi-tech/sizeimpact/pkg/glob"
	"github.com/Sumatoshi-tech/sizeimpact/pkg/snapshot"
	"github.com/Sumatoshi-tech/sizeimpact/pkg/track"
)

// Sentinel errors.
var (
	ErrUnknownTransformation = errors.New("unknown transformation")
	ErrInvalidManifest       = errors.New("invalid manifest")
	ErrInvalidGroup          = errors.New("invalid group")
)

// Group describes one output directory to snapshot.
type Group struct {
	Name string

	// Directory is relative to the collection root.
	Directory string

	// Manifest is an optional JSON file, relative to Directory, mapping
	// rename-stable identities to output paths.
	Manifest string

	Tracking track.Config
}

// Options tunes Collect.
type Options struct {
	// Workers bounds concurrent file measurement. Zero means GOMAXPROCS.
	Workers int
	Logger  *slog.Logger
}

type candidate struct {
	relPath string
	absPath string
}

// Collect snapshots every group under root. Files are hashed and measured
// with each transformation. Only files whose identity is tracked by the
// group policy are recorded. An empty transformations list means raw only.
func Collect(ctx context.Context, root string, groups []Group, transformations []string, opts Options) (snapshot.Snapshot, error) {
	if len(transformations) == 0 {
		transformations = []string{TransformationRaw}
	}

	err := ValidateTransformations(transformations)
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	snap := make(snapshot.Snapshot, len(groups))

	for _, group := range groups {
		if group.Name == "" {
			return nil, fmt.Errorf("%w: empty name", ErrInvalidGroup)
		}

		if _, dup := snap[group.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate name %q", ErrInvalidGroup, group.Name)
		}

		groupSnap, groupErr := collectGroup(ctx, root, group, transformations, opts.Workers)
		if groupErr != nil {
			return nil, fmt.Errorf("group %q: %w", group.Name, groupErr)
		}

		logger.InfoContext(ctx, "collected group",
			"group", group.Name, "files", len(groupSnap.Report), "transformations", transformations)

		snap[group.Name] = groupSnap
	}

	return snap, nil
}

func collectGroup(ctx context.Context, root string, group Group, transformations []string, workers int) (snapshot.GroupSnapshot, error) {
	dir := filepath.Join(root, filepath.FromSlash(group.Directory))

	manifest, err := readManifest(dir, group.Manifest)
	if err != nil {
		return snapshot.GroupSnapshot{}, err
	}

	files, err := listFiles(ctx, dir)
	if err != nil {
		return snapshot.GroupSnapshot{}, err
	}

	identityOf := make(map[string]string, len(manifest))
	for identity, output := range manifest {
		identityOf[output] = identity
	}

	manifestPath := path.Clean(filepath.ToSlash(group.Manifest))
	policy := group.Tracking.Compile()

	tracked := make([]candidate, 0, len(files))

	for _, file := range files {
		if group.Manifest != "" && file.relPath == manifestPath {
			continue
		}

		identity, ok := identityOf[file.relPath]
		if !ok {
			identity = file.relPath
		}

		if policy.Tracks(identity) {
			tracked = append(tracked, file)
		}
	}

	records, err := measureAll(ctx, tracked, transformations, workers)
	if err != nil {
		return snapshot.GroupSnapshot{}, err
	}

	report := make(map[string]snapshot.SizeRecord, len(tracked))
	for i, file := range tracked {
		report[file.relPath] = records[i]
	}

	policyCopy := slices.Clone(group.Tracking)
	if policyCopy == nil {
		policyCopy = track.Config{}
	}

	return snapshot.GroupSnapshot{Manifest: manifest, TrackingConfig: &policyCopy, Report: report}, nil
}

// readManifest loads an identity to output path mapping. A missing manifest
// file yields a nil manifest.
func readManifest(dir, name string) (map[string]string, error) {
	if name == "" {
		return nil, nil
	}

	data, readErr := os.ReadFile(filepath.Join(dir, filepath.FromSlash(name)))
	if errors.Is(readErr, fs.ErrNotExist) {
		return nil, nil
	}

	if readErr != nil {
		return nil, fmt.Errorf("read manifest: %w", readErr)
	}

	var raw map[string]string

	unmarshalErr := json.Unmarshal(data, &raw)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrInvalidManifest, name, unmarshalErr)
	}

	manifest := make(map[string]string, len(raw))
	for identity, output := range raw {
		manifest[glob.Normalize(identity)] = glob.Normalize(output)
	}

	return manifest, nil
}

// listFiles returns the regular files below dir in path order, with
// forward-slash paths relative to dir.
func listFiles(ctx context.Context, dir string) ([]candidate, error) {
	var files []candidate

	walkErr := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		ctxErr := ctx.Err()
		if ctxErr != nil {
			return ctxErr
		}

		if !d.Type().IsRegular() {
			return nil
		}

		rel, relErr := filepath.Rel(dir, p)
		if relErr != nil {
			return relErr
		}

		files = append(files, candidate{relPath: filepath.ToSlash(rel), absPath: p})

		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, walkErr)
	}

	return files, nil
}

func measureAll(ctx context.Context, files []candidate, transformations []string, workers int) ([]snapshot.SizeRecord, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	records := make([]snapshot.SizeRecord, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, file := range files {
		g.Go(func() error {
			ctxErr := gctx.Err()
			if ctxErr != nil {
				return ctxErr
			}

			content, readErr := os.ReadFile(file.absPath)
			if readErr != nil {
				return fmt.Errorf("read %s: %w", file.relPath, readErr)
			}

			rec, measureErr := Measure(content, transformations)
			if measureErr != nil {
				return fmt.Errorf("%s: %w", file.relPath, measureErr)
			}

			records[i] = rec

			return nil
		})
	}

	err := g.Wait()
	if err != nil {
		return nil, err
	}

	return records, nil
}
