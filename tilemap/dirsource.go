package tilemap

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
)

var tileExtensions = []string{".png", ".jpg", ".jpeg"}

// DirSource reads tiles laid out as
// {root}/{level}/{row:06d}/{row:06d}_{column:06d}.{png,jpg}.
type DirSource struct {
	root string
}

// NewDirSource returns a source rooted at dir.
func NewDirSource(dir string) *DirSource {
	return &DirSource{root: dir}
}

// Root returns the directory the source reads from.
func (s *DirSource) Root() string { return s.root }

// Path returns the file path of a tile with the given extension.
func (s *DirSource) Path(id TileID, ext string) string {
	row := fmt.Sprintf("%06d", id.Row)
	return filepath.Join(s.root, strconv.Itoa(id.Level), row,
		fmt.Sprintf("%s_%06d%s", row, id.Column, ext))
}

func (s *DirSource) Fetch(ctx context.Context, id TileID) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, ext := range tileExtensions {
		path := s.Path(id, ext)
		f, err := os.Open(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("opening tile %s failed: %w", path, err)
		}
		img, err := decodeTile(bufio.NewReader(f), path)
		f.Close()
		return img, err
	}
	return nil, fmt.Errorf("tile %s in %s: %w", id, s.root, ErrTileNotFound)
}

// Store writes img as the PNG file of id, creating directories as needed.
func (s *DirSource) Store(id TileID, img image.Image) error {
	path := s.Path(id, ".png")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating tile directory failed: %w", err)
	}
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating %s failed: %w", tmp, err)
	}
	w := bufio.NewWriter(f)
	if err := png.Encode(w, img); err != nil {
		f.Close()
		return fmt.Errorf("encoding tile %s failed: %w", id, err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("writing %s failed: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s failed: %w", tmp, err)
	}
	return os.Rename(tmp, path)
}

// MaxLevel returns the deepest level directory that holds at least one row
// directory, or -1 when the root has no levels.
func (s *DirSource) MaxLevel() (int, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return -1, fmt.Errorf("scanning %s failed: %w", s.root, err)
	}
	maxLevel := -1
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		level, err := strconv.Atoi(e.Name())
		if err != nil || level <= maxLevel {
			continue
		}
		rows, err := os.ReadDir(filepath.Join(s.root, e.Name()))
		if err != nil || len(rows) == 0 {
			continue
		}
		maxLevel = level
	}
	return maxLevel, nil
}
