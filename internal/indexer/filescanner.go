package indexer

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/glsld/glsld/internal/errors"
	"github.com/glsld/glsld/internal/glsl"
	"github.com/glsld/glsld/internal/logger"
	"go.etcd.io/bbolt"
	"go.uber.org/zap"
)

var fileStateBucket = []byte("file_states")

var defaultSkipDirs = map[string]bool{
	"node_modules": true,
	"build":        true,
	"out":          true,
	"bin":          true,
	"obj":          true,
	"target":       true,
	".git":         true,
	".github":      true,
	".gitlab":      true,
	".cache":       true,
	".idea":        true,
	".vscode":      true,
	".vs":          true,
}

// DefaultDebounce is how long the watcher waits for a burst of file events
// to settle before reindexing.
const DefaultDebounce = 200 * time.Millisecond

// ScannerOptions configures a FileScanner.
type ScannerOptions struct {
	// Extensions lists the shader file extensions to index, with dot.
	Extensions []string
	// SkipDirs adds directory names to the built-in skip list.
	SkipDirs []string
	Debounce time.Duration
}

// FileScanner scans the workspace for shader files and tracks changes.
type FileScanner struct {
	projectRoot string
	extensions  []string
	skipDirs    map[string]bool
	debounce    time.Duration

	db       *bbolt.DB
	indexers []Indexer
	onUpdate func(paths []string)
	log      *zap.SugaredLogger

	watcher    *fsnotify.Watcher
	watcherCtx context.Context
	cancel     context.CancelFunc
	watcherWg  sync.WaitGroup
}

// NewFileScanner opens the change-state database at dbPath.
func NewFileScanner(projectRoot, dbPath string, opts ScannerOptions) (*FileScanner, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create scanner state directory")
	}

	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{
		Timeout:      time.Second,
		NoSync:       true,
		FreelistType: bbolt.FreelistMapType,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to open scanner state database")
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(fileStateBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to initialize scanner state")
	}

	skipDirs := make(map[string]bool, len(defaultSkipDirs)+len(opts.SkipDirs))
	for dir := range defaultSkipDirs {
		skipDirs[dir] = true
	}
	for _, dir := range opts.SkipDirs {
		skipDirs[dir] = true
	}

	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &FileScanner{
		projectRoot: projectRoot,
		extensions:  opts.Extensions,
		skipDirs:    skipDirs,
		debounce:    debounce,
		db:          db,
		log:         logger.ComponentLogger("indexer.scanner"),
		watcherCtx:  ctx,
		cancel:      cancel,
	}, nil
}

// SetOnUpdate registers a callback that receives the paths touched by each
// indexing or removal pass.
func (fs *FileScanner) SetOnUpdate(onUpdate func(paths []string)) {
	fs.onUpdate = onUpdate
}

func (fs *FileScanner) AddIndexer(indexer Indexer) {
	fs.indexers = append(fs.indexers, indexer)
}

func (fs *FileScanner) isShader(path string) bool {
	return glsl.IsShaderFile(path, fs.extensions)
}

// skipped reports whether path lies below one of the skipped directories.
func (fs *FileScanner) skipped(path string) bool {
	rel, err := filepath.Rel(fs.projectRoot, path)
	if err != nil {
		return false
	}
	for _, part := range strings.Split(rel, string(os.PathSeparator)) {
		if fs.skipDirs[part] {
			return true
		}
	}
	return false
}

// StartWatcher watches the workspace and reindexes changed shader files
// once events have been quiet for the debounce interval.
func (fs *FileScanner) StartWatcher() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create file watcher")
	}
	fs.watcher = watcher
	fs.watcherWg.Add(1)

	go func() {
		defer fs.watcherWg.Done()
		defer func() { _ = watcher.Close() }()

		pendingAdds := make(map[string]bool)
		pendingRemoves := make(map[string]bool)
		debounceTimer := time.NewTimer(time.Hour)
		debounceTimer.Stop()

		resetTimer := func() {
			if !debounceTimer.Stop() {
				select {
				case <-debounceTimer.C:
				default:
				}
			}
			debounceTimer.Reset(fs.debounce)
		}

		processChanges := func() {
			if len(pendingAdds) > 0 {
				files := sortedKeys(pendingAdds)
				pendingAdds = make(map[string]bool)
				fs.log.Debugw("Reindexing changed files", logger.FieldCount, len(files))
				if err := fs.IndexFiles(fs.watcherCtx, files); err != nil {
					fs.log.Warnw("Failed to index changed files", logger.FieldError, err)
				}
			}
			if len(pendingRemoves) > 0 {
				files := sortedKeys(pendingRemoves)
				pendingRemoves = make(map[string]bool)
				fs.log.Debugw("Dropping deleted files", logger.FieldCount, len(files))
				if err := fs.RemoveFiles(files); err != nil {
					fs.log.Warnw("Failed to remove deleted files", logger.FieldError, err)
				}
			}
		}

		for {
			select {
			case <-fs.watcherCtx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if fs.skipped(event.Name) {
					continue
				}

				info, err := os.Stat(event.Name)
				if err == nil && info.IsDir() {
					if event.Has(fsnotify.Create) {
						fs.addDirectoryToWatcher(event.Name)
					}
					continue
				}
				if !fs.isShader(event.Name) {
					continue
				}

				switch {
				case err == nil && event.Op&(fsnotify.Create|fsnotify.Write) != 0:
					pendingAdds[event.Name] = true
					delete(pendingRemoves, event.Name)
				case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
					pendingRemoves[event.Name] = true
					delete(pendingAdds, event.Name)
				default:
					continue
				}
				resetTimer()

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				fs.log.Warnw("File watcher error", logger.FieldError, err)

			case <-debounceTimer.C:
				processChanges()
			}
		}
	}()

	fs.addDirectoryToWatcher(fs.projectRoot)
	return nil
}

// StopWatcher stops the watcher goroutine and waits for it to exit.
func (fs *FileScanner) StopWatcher() {
	if fs.watcher == nil {
		return
	}
	fs.cancel()
	fs.watcherWg.Wait()
	fs.watcher = nil
}

func (fs *FileScanner) addDirectoryToWatcher(dir string) {
	_ = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if path != fs.projectRoot && fs.skipped(path) {
			return filepath.SkipDir
		}
		if err := fs.watcher.Add(path); err != nil {
			fs.log.Debugw("Cannot watch directory", logger.FieldPath, path, logger.FieldError, err)
		}
		return nil
	})
}

// Close stops the watcher and closes the state database and all indexers.
func (fs *FileScanner) Close() error {
	fs.StopWatcher()
	fs.cancel()

	var result error
	for _, indexer := range fs.indexers {
		result = errors.CombineErrors(result, indexer.Close())
	}
	if fs.db != nil {
		result = errors.CombineErrors(result, fs.db.Close())
	}
	return result
}

// Files lists every shader file in the workspace, sorted.
func (fs *FileScanner) Files() ([]string, error) {
	var files []string
	err := filepath.WalkDir(fs.projectRoot, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != fs.projectRoot && fs.skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if fs.isShader(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to walk workspace")
	}
	sort.Strings(files)
	return files, nil
}

// IndexAll indexes every shader file of the workspace that changed since
// the last run and drops files that disappeared.
func (fs *FileScanner) IndexAll(ctx context.Context) error {
	files, err := fs.Files()
	if err != nil {
		return err
	}

	start := time.Now()
	if err := fs.IndexFiles(ctx, files); err != nil {
		return errors.Wrap(err, "failed to index workspace")
	}

	gone, err := fs.vanishedFiles(files)
	if err != nil {
		return err
	}
	if err := fs.RemoveFiles(gone); err != nil {
		return err
	}

	fs.log.Infow("Workspace indexed",
		logger.FieldCount, len(files),
		logger.FieldDurationMS, time.Since(start).Milliseconds(),
	)
	return nil
}

// vanishedFiles returns tracked files that are no longer in present.
func (fs *FileScanner) vanishedFiles(present []string) ([]string, error) {
	seen := make(map[string]bool, len(present))
	for _, path := range present {
		seen[path] = true
	}
	var gone []string
	err := fs.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(fileStateBucket).ForEach(func(k, _ []byte) error {
			if !seen[string(k)] {
				gone = append(gone, string(k))
			}
			return nil
		})
	})
	return gone, errors.Wrap(err, "failed to list tracked files")
}

// fileNeedsIndexing compares size and mtime against the stored state and
// reads the content of changed files.
func (fs *FileScanner) fileNeedsIndexing(path string) (bool, []byte, os.FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, nil, nil, err
	}

	changed := true
	_ = fs.db.View(func(tx *bbolt.Tx) error {
		state := tx.Bucket(fileStateBucket).Get([]byte(path))
		if len(state) != 16 {
			return nil
		}
		size := binary.LittleEndian.Uint64(state[:8])
		mtime := binary.LittleEndian.Uint64(state[8:])
		changed = size != uint64(info.Size()) || mtime != uint64(info.ModTime().UnixNano())
		return nil
	})
	if !changed {
		return false, nil, info, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return false, nil, info, err
	}
	return true, content, info, nil
}

// RemoveFiles drops files from every indexer and forgets their state.
func (fs *FileScanner) RemoveFiles(paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	for _, indexer := range fs.indexers {
		if err := indexer.RemovedFiles(paths); err != nil {
			return errors.Wrapf(err, "indexer %s failed to remove files", indexer.ID())
		}
	}

	err := fs.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(fileStateBucket)
		for _, path := range paths {
			if err := bucket.Delete([]byte(path)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "failed to forget removed files")
	}

	if fs.onUpdate != nil {
		fs.onUpdate(paths)
	}
	return nil
}

func (fs *FileScanner) updateFileStates(items []fileWork) error {
	return fs.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(fileStateBucket)
		for _, item := range items {
			state := make([]byte, 16)
			binary.LittleEndian.PutUint64(state[:8], uint64(item.info.Size()))
			binary.LittleEndian.PutUint64(state[8:], uint64(item.info.ModTime().UnixNano()))
			if err := bucket.Put([]byte(item.path), state); err != nil {
				return err
			}
		}
		return nil
	})
}

type fileWork struct {
	path    string
	content []byte
	info    os.FileInfo
}

// IndexFiles parses the changed files among paths on a worker pool and
// feeds them to the indexers. Per-file failures are logged, not returned.
func (fs *FileScanner) IndexFiles(ctx context.Context, paths []string) error {
	files := make([]string, 0, len(paths))
	for _, path := range paths {
		if !fs.skipped(path) && fs.isShader(path) {
			files = append(files, path)
		}
	}
	if len(files) == 0 {
		return nil
	}

	workerCount := min(runtime.NumCPU()+2, 16)
	fileChan := make(chan string, 100)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		indexed []string
	)

	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			const batchSize = 50
			batch := make([]fileWork, 0, batchSize)

			flush := func() {
				if len(batch) == 0 {
					return
				}
				done := make([]fileWork, 0, len(batch))
				for _, item := range batch {
					if fs.indexFile(item) {
						done = append(done, item)
					}
				}
				if err := fs.updateFileStates(done); err != nil {
					fs.log.Warnw("Failed to record file states", logger.FieldError, err)
				}
				mu.Lock()
				for _, item := range done {
					indexed = append(indexed, item.path)
				}
				mu.Unlock()
				batch = batch[:0]
			}

			for path := range fileChan {
				needsIndexing, content, info, err := fs.fileNeedsIndexing(path)
				if err != nil {
					fs.log.Debugw("Skipping unreadable file", logger.FieldPath, path, logger.FieldError, err)
					continue
				}
				if !needsIndexing {
					continue
				}
				batch = append(batch, fileWork{path: path, content: content, info: info})
				if len(batch) >= batchSize {
					flush()
				}
			}
			flush()
		}()
	}

	var err error
dispatch:
	for _, path := range files {
		select {
		case <-ctx.Done():
			err = ctx.Err()
			break dispatch
		case fileChan <- path:
		}
	}
	close(fileChan)
	wg.Wait()

	if len(indexed) > 0 && fs.onUpdate != nil {
		sort.Strings(indexed)
		fs.onUpdate(indexed)
	}
	return err
}

// indexFile parses one file and hands it to every indexer. It reports
// whether all indexers accepted it.
func (fs *FileScanner) indexFile(item fileWork) bool {
	unit := glsl.ParseWithOptions(string(item.content), glsl.ParseOptions{URI: glsl.PathToURI(item.path)})
	ok := true
	for _, indexer := range fs.indexers {
		if err := indexer.Index(item.path, unit, item.content); err != nil {
			fs.log.Warnw("Indexer failed",
				logger.FieldComponent, indexer.ID(),
				logger.FieldPath, item.path,
				logger.FieldError, err,
			)
			ok = false
		}
	}
	return ok
}

// ClearHashes clears every indexer and all file states so the next
// IndexAll rebuilds from scratch.
func (fs *FileScanner) ClearHashes() error {
	for _, indexer := range fs.indexers {
		if err := indexer.Clear(); err != nil {
			return errors.Wrapf(err, "failed to clear indexer %s", indexer.ID())
		}
	}

	return fs.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(fileStateBucket); err != nil {
			return errors.Wrap(err, "failed to drop file states")
		}
		_, err := tx.CreateBucket(fileStateBucket)
		return errors.Wrap(err, "failed to recreate file states")
	})
}
