package startup

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/brokerd/queueindex"
)

// Run implements the broker-start hook: it lists rootDir's immediate
// subdirectories, decodes each back to a logical queue name, deletes
// every one that catalog does not recognise as durable, and then calls
// store.Recover once with a Walker over the directories that survived.
// Deletion happens before the walk so a concurrent body-store recovery
// never sees a transient queue's directory appear in its count
// reconstruction.
func Run(rootDir string, catalog Catalog, store MessageStore, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	ents, err := os.ReadDir(rootDir)
	if err != nil {
		return fmt.Errorf("startup: listing %s: %w", rootDir, err)
	}

	var durableDirs []string
	for _, ent := range ents {
		if !ent.IsDir() {
			continue
		}
		dirName := ent.Name()
		name, err := queueindex.DecodeQueueDirName(dirName)
		if err != nil {
			logger.Warn("startup: unrecognised queue directory, removing", "dir", dirName, "err", err)
			if rmErr := os.RemoveAll(filepath.Join(rootDir, dirName)); rmErr != nil {
				return fmt.Errorf("startup: removing unrecognised directory %s: %w", dirName, rmErr)
			}
			continue
		}
		if catalog.IsDurable(name) {
			durableDirs = append(durableDirs, dirName)
			continue
		}
		logger.Info("startup: deleting transient queue directory", "queue", name, "dir", dirName)
		if rmErr := os.RemoveAll(filepath.Join(rootDir, dirName)); rmErr != nil {
			return fmt.Errorf("startup: removing transient directory %s: %w", dirName, rmErr)
		}
	}

	w := newWalker(rootDir, durableDirs, logger)
	return store.Recover(w)
}
