// Package publish copies a finished results directory somewhere other people can see it.
package publish

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
)

// Publisher uploads every file below a local directory, keeping relative paths.
type Publisher interface {
	Publish(ctx context.Context, dir string) error
}

type PublisherKind string

const (
	None PublisherKind = "none"
	S3   PublisherKind = "s3"
	SFTP PublisherKind = "sftp"
)

func ExplainPublishers() string {
	kinds := []string{string(None), string(S3), string(SFTP)}
	for i, k := range kinds {
		kinds[i] = fmt.Sprintf("%q", k)
	}
	return strings.Join(kinds, ", ")
}

// localFile is a regular file below the published directory. Rel uses forward slashes.
type localFile struct {
	Path string
	Rel  string
	Size int64
}

func listFiles(dir string) ([]localFile, error) {
	var out []localFile
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		out = append(out, localFile{Path: path, Rel: filepath.ToSlash(rel), Size: info.Size()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing %s failed: %w", dir, err)
	}
	slices.SortFunc(out, func(a, b localFile) int {
		return strings.Compare(a.Rel, b.Rel)
	})
	return out, nil
}
