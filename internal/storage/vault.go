// Package storage maps vault-relative, slash separated paths onto a
// directory on disk.
package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// ErrExists is returned by Create when the target is already present.
var ErrExists = errors.New("file already exists")

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

type Vault struct {
	Root string
}

func NewVault(root string) (*Vault, error) {
	if root == "" {
		return nil, fmt.Errorf("vault directory is not set")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve vault directory: %w", err)
	}
	return &Vault{Root: abs}, nil
}

// resolve maps a vault path to disk, refusing anything outside Root.
func (v *Vault) resolve(rel string) (string, error) {
	clean := path.Clean("/" + filepath.ToSlash(rel))
	if clean == "/" {
		return "", fmt.Errorf("invalid vault path %q", rel)
	}
	full := filepath.Join(v.Root, filepath.FromSlash(strings.TrimPrefix(clean, "/")))
	if full != v.Root && !strings.HasPrefix(full, v.Root+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes the vault", rel)
	}
	return full, nil
}

func (v *Vault) Read(rel string) ([]byte, error) {
	full, err := v.resolve(rel)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(full)
}

// Create writes a new text file. It never replaces an existing file and
// returns ErrExists instead. Missing folders are created.
func (v *Vault) Create(rel string, content []byte) error {
	full, err := v.resolve(rel)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), dirPerm); err != nil {
		return fmt.Errorf("create folder for %s: %w", rel, err)
	}
	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, filePerm)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%s: %w", rel, ErrExists)
		}
		return err
	}
	if _, err := f.Write(content); err != nil {
		f.Close()
		os.Remove(full)
		return fmt.Errorf("write %s: %w", rel, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(full)
		return fmt.Errorf("close %s: %w", rel, err)
	}
	return nil
}

// CreateBinary writes data, replacing any previous file at rel.
func (v *Vault) CreateBinary(rel string, data []byte) error {
	full, err := v.resolve(rel)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), dirPerm); err != nil {
		return fmt.Errorf("create folder for %s: %w", rel, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(full), ".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", rel, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), filePerm); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), full)
}

func (v *Vault) Exists(rel string) (bool, error) {
	full, err := v.resolve(rel)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(full)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}

// List returns the names of regular files in folder, sorted. A missing
// folder is empty.
func (v *Vault) List(folder string) ([]string, error) {
	full, err := v.resolve(folder)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && !strings.HasPrefix(e.Name(), ".") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
