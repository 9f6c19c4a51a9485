// Package checkpoint stores the architecture of a search (and, optionally, its weights) after every
// epoch, and keeps a copy of the best epoch so far.
//
// A checkpoint directory looks like:
//
//	<root>/<epoch>/alpha_normal.json
//	<root>/<epoch>/alpha_reduce.json
//	<root>/<epoch>/weights.json      (only if weights are saved)
//	<root>/best/...                  (the same files, for the best epoch)
//
// Every file is written under a temporary name and then renamed, so a checkpoint that is being
// written is never mistaken for a complete one.
package checkpoint

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"
	hd "github.com/sharnoff/hdarts"
)

// Best is the epoch given to Load (and Dir) to refer to the best checkpoint
const Best = -1

const (
	normalFile  = "alpha_normal.json"
	reduceFile  = "alpha_reduce.json"
	weightsFile = "weights.json"
	bestDir     = "best"
)

// Dir returns the directory of the checkpoint of the given epoch, or of the best one.
func Dir(root string, epoch int) string {
	if epoch == Best {
		return filepath.Join(root, bestDir)
	}
	return filepath.Join(root, strconv.Itoa(epoch))
}

// Save writes both Alpha structures to the directory of the epoch under root, and to the best
// directory as well if isBest is true.
func Save(normal, reduce *hd.Alpha, epoch int, root string, isBest bool) error {
	if normal == nil || reduce == nil {
		return errors.New("Can't save a nil alpha")
	} else if epoch < 0 {
		return errors.Errorf("Can't save checkpoint for epoch %d", epoch)
	}

	files := map[string]interface{}{
		normalFile: normal,
		reduceFile: reduce,
	}

	return save(files, root, epoch, isBest)
}

func save(files map[string]interface{}, root string, epoch int, isBest bool) error {
	dirs := []string{Dir(root, epoch)}
	if isBest {
		dirs = append(dirs, Dir(root, Best))
	}

	for name, v := range files {
		b, err := json.Marshal(v)
		if err != nil {
			return errors.Wrapf(err, "Failed to encode %q for epoch %d", name, epoch)
		}

		for _, dir := range dirs {
			if err := writeFile(dir, name, b); err != nil {
				return err
			}
		}
	}

	return nil
}

// writeFile writes b to name in dirPath, through a temporary file in the same directory
func writeFile(dirPath, name string, b []byte) error {
	if err := os.MkdirAll(dirPath, 0700); err != nil {
		return errors.Wrapf(err, "Failed to create directory %q", dirPath)
	}

	f, err := os.CreateTemp(dirPath, "."+name+".tmp-*")
	if err != nil {
		return errors.Wrapf(err, "Failed to create temporary file for %q in %q", name, dirPath)
	}

	tmp := f.Name()
	_, err = f.Write(b)
	if err == nil {
		err = f.Sync()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}

	if err == nil {
		err = os.Rename(tmp, filepath.Join(dirPath, name))
	}

	if err != nil {
		os.Remove(tmp)
		return errors.Wrapf(err, "Failed to write file %q in %q", name, dirPath)
	}

	return nil
}

func readFile(dirPath, name string, v interface{}) error {
	b, err := os.ReadFile(filepath.Join(dirPath, name))
	if err != nil {
		return errors.Wrapf(err, "Failed to open file %q in %q", name, dirPath)
	}

	if err = json.Unmarshal(b, v); err != nil {
		return errors.Wrapf(err, "Failed to decode JSON from file %q in %q", name, dirPath)
	}

	return nil
}

// Load reads both Alpha structures from the checkpoint of the given epoch under root, or from the
// best checkpoint if epoch is Best. Every value is exactly as it was saved.
func Load(root string, epoch int) (normal, reduce *hd.Alpha, err error) {
	dir := Dir(root, epoch)

	normal, reduce = new(hd.Alpha), new(hd.Alpha)
	if err = readFile(dir, normalFile, normal); err != nil {
		return nil, nil, err
	} else if err = readFile(dir, reduceFile, reduce); err != nil {
		return nil, nil, err
	}

	return normal, reduce, nil
}
