package file

import (
	"errors"

	"github.com/fsnotify/fsnotify"

	"github.com/ninja0404/token-radar/pkg/config/source"
)

type watcher struct {
	f    *file
	fw   *fsnotify.Watcher
	exit chan struct{}
}

func newWatcher(f *file) (source.Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := fw.Add(f.path); err != nil {
		fw.Close()
		return nil, err
	}

	return &watcher{
		f:    f,
		fw:   fw,
		exit: make(chan struct{}),
	}, nil
}

func (w *watcher) Next() (*source.ChangeSet, error) {
	for {
		select {
		case <-w.exit:
			return nil, errors.New("watcher stopped")
		case event, ok := <-w.fw.Events:
			if !ok {
				return nil, errors.New("watcher channel closed")
			}
			// 编辑器保存常以 rename+create 实现，重新挂载监听
			if event.Op&(fsnotify.Rename|fsnotify.Remove) != 0 {
				_ = w.fw.Add(w.f.path)
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			return w.f.Read()
		case err, ok := <-w.fw.Errors:
			if !ok {
				return nil, errors.New("watcher channel closed")
			}
			return nil, err
		}
	}
}

func (w *watcher) Stop() error {
	close(w.exit)
	return w.fw.Close()
}
