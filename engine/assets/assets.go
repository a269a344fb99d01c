package assets

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spaghettifunk/cumulus/engine/core"
)

type AssetType int

const (
	AssetTypeNone AssetType = iota
	AssetTypeShader
	AssetTypeFont
	AssetTypeBitmapFont
	AssetTypeImage
)

func (t AssetType) String() string {
	switch t {
	case AssetTypeShader:
		return "shader"
	case AssetTypeFont:
		return "font"
	case AssetTypeBitmapFont:
		return "bitmap_font"
	case AssetTypeImage:
		return "image"
	default:
		return "none"
	}
}

type AssetInfo struct {
	Path       string
	Type       AssetType
	LastLoaded time.Time
}

// changeBuffer bounds how many notifications wait for the frame thread.
// Further changes are coalesced until it catches up.
const changeBuffer = 16

// AssetManager indexes the asset directories and reports files that are
// created or rewritten while the application runs.
type AssetManager struct {
	assets map[string]AssetInfo
	mutex  sync.RWMutex

	done     chan struct{}
	stopped  chan struct{}
	fsnotify *fsnotify.Watcher
	isClosed bool
	started  bool
	changes  chan AssetInfo
}

func NewAssetManager() (*AssetManager, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &AssetManager{
		assets:   make(map[string]AssetInfo),
		fsnotify: fsWatch,
		changes:  make(chan AssetInfo, changeBuffer),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}, nil
}

// Initialize indexes and starts watching every directory in dirs and their
// sub-directories.
func (am *AssetManager) Initialize(dirs ...string) error {
	for _, dir := range dirs {
		if err := am.addRecursive(dir); err != nil {
			return err
		}
	}
	am.started = true
	go am.start()
	return nil
}

// Changes delivers assets that were written after Initialize.
func (am *AssetManager) Changes() <-chan AssetInfo {
	return am.changes
}

// Lookup returns the indexed asset at path.
func (am *AssetManager) Lookup(path string) (AssetInfo, bool) {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	info, ok := am.assets[filepath.Clean(path)]
	return info, ok
}

// Assets returns every indexed asset of type t.
func (am *AssetManager) Assets(t AssetType) []AssetInfo {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	var out []AssetInfo
	for _, info := range am.assets {
		if info.Type == t {
			out = append(out, info)
		}
	}
	return out
}

// Close stops the watcher. It is safe to call more than once.
func (am *AssetManager) Close() error {
	if am.isClosed {
		return nil
	}
	am.isClosed = true
	if !am.started {
		close(am.changes)
		return am.fsnotify.Close()
	}
	close(am.done)
	<-am.stopped
	return nil
}

// AddRecursive starts watching the named directory and all sub-directories.
func (am *AssetManager) addRecursive(name string) error {
	if am.isClosed {
		return errors.New("asset watcher already closed")
	}
	return am.watchRecursive(name, false)
}

func (am *AssetManager) start() {
	defer close(am.stopped)
	for {
		select {
		case e, ok := <-am.fsnotify.Events:
			if !ok {
				return
			}
			am.handleEvent(e)

		case err, ok := <-am.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError("asset watcher: %s", err)

		case <-am.done:
			am.fsnotify.Close()
			close(am.changes)
			return
		}
	}
}

func (am *AssetManager) handleEvent(e fsnotify.Event) {
	if e.Has(fsnotify.Create) {
		if s, err := os.Stat(e.Name); err == nil && s.IsDir() {
			if err := am.watchRecursive(e.Name, false); err != nil {
				core.LogWarn("failed to watch %s: %s", e.Name, err)
			}
			return
		}
	}
	// Can't stat a deleted path, so it is always removed from both the
	// index and the watch list.
	if e.Has(fsnotify.Remove) || e.Has(fsnotify.Rename) {
		am.removeAsset(e.Name)
		_ = am.fsnotify.Remove(e.Name)
		return
	}
	if e.Has(fsnotify.Create) || e.Has(fsnotify.Write) {
		if info, ok := am.handleFileEvent(e.Name); ok {
			am.notify(info)
		}
	}
}

// notify never blocks the watcher; when the frame thread is behind, the
// change is dropped since a pending notification already triggers a reload.
func (am *AssetManager) notify(info AssetInfo) {
	select {
	case am.changes <- info:
	default:
		core.LogDebug("asset change for %s coalesced", info.Path)
	}
}

// watchRecursive adds all directories under the given one to the watch list
// and indexes the files it finds.
func (am *AssetManager) watchRecursive(path string, unWatch bool) error {
	return filepath.WalkDir(path, func(walkPath string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if unWatch {
				return am.fsnotify.Remove(walkPath)
			}
			return am.fsnotify.Add(walkPath)
		}
		am.handleFileEvent(walkPath)
		return nil
	})
}

// Handle the creation or modification of a file
func (am *AssetManager) handleFileEvent(path string) (AssetInfo, bool) {
	assetType := determineAssetType(path)
	if assetType == AssetTypeNone {
		return AssetInfo{}, false
	}
	info := AssetInfo{
		Path:       filepath.Clean(path),
		Type:       assetType,
		LastLoaded: time.Now(),
	}

	am.mutex.Lock()
	am.assets[info.Path] = info
	am.mutex.Unlock()
	return info, true
}

// Remove the asset from the index if it was deleted
func (am *AssetManager) removeAsset(path string) {
	am.mutex.Lock()
	defer am.mutex.Unlock()

	delete(am.assets, filepath.Clean(path))
}

func determineAssetType(path string) AssetType {
	switch filepath.Ext(path) {
	case ".spv", ".msl", ".dxil":
		return AssetTypeShader
	case ".ttf", ".otf":
		return AssetTypeFont
	case ".fnt":
		return AssetTypeBitmapFont
	case ".png":
		return AssetTypeImage
	default:
		return AssetTypeNone
	}
}
