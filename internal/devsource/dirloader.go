package devsource

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	datasource "github.com/hanpama/gramps/internal/datasource"
	mock "github.com/hanpama/gramps/internal/mock"
)

// ManifestName is the file DirLoader looks for in a data source directory.
const ManifestName = "datasource.yaml"

// Manifest describes a data source directory.
type Manifest struct {
	Namespace      string         `yaml:"namespace"`
	TypeDefs       []string       `yaml:"typeDefs"`
	Context        map[string]any `yaml:"context"`
	Mocks          map[string]any `yaml:"mocks"`
	PrefixTypes    bool           `yaml:"prefixTypes"`
	NamespaceQuery bool           `yaml:"namespaceQuery"`
}

// DirLoader loads a data source from a directory holding a datasource.yaml
// manifest, or from the manifest file itself. Type definitions are the files
// the manifest lists, relative to its directory, or else every .graphql file
// below it in lexical order.
type DirLoader struct{}

func (DirLoader) Load(ctx context.Context, path string) (*datasource.DataSource, error) {
	manifestPath := path
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, err
	}
	if info.IsDir() {
		manifestPath = filepath.Join(path, ManifestName)
	}
	dir := filepath.Dir(manifestPath)

	raw, err := os.ReadFile(manifestPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, manifestPath)
		}
		return nil, fmt.Errorf("failed to read manifest %q: %w", manifestPath, err)
	}
	var m Manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %q: %w", manifestPath, err)
	}

	files := make([]string, 0, len(m.TypeDefs))
	for _, f := range m.TypeDefs {
		files = append(files, filepath.Join(dir, f))
	}
	if len(files) == 0 {
		if files, err = graphqlFiles(ctx, dir); err != nil {
			return nil, err
		}
	}
	sdl := make([]string, 0, len(files))
	for _, f := range files {
		content, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("failed to read type definitions %q: %w", f, err)
		}
		sdl = append(sdl, string(content))
	}

	ds := &datasource.DataSource{
		Namespace:      m.Namespace,
		TypeDefs:       datasource.Static(sdl...),
		PrefixTypes:    m.PrefixTypes,
		NamespaceQuery: m.NamespaceQuery,
	}
	if m.Context != nil {
		ds.Context = datasource.StaticContext(m.Context)
	}
	if len(m.Mocks) > 0 {
		ds.Mocks = make(mock.Map, len(m.Mocks))
		for typeName, v := range m.Mocks {
			v := v
			ds.Mocks[typeName] = func() any { return v }
		}
	}
	return ds, nil
}

func graphqlFiles(ctx context.Context, dir string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(d.Name()) != ".graphql" {
			return nil
		}
		out = append(out, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk data source directory %q: %w", dir, err)
	}
	return out, nil
}
