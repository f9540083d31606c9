package file

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/ninja0404/token-radar/pkg/config/source"
)

const (
	DEFAULT_CONFIG_FILE_NAME   = "config"
	DEFAULT_CONFIG_FILE_FORMAT = "yaml"
)

type file struct {
	path string
	opts source.Options
}

type filePathKey struct{}

// WithPath 指定配置文件路径
func WithPath(p string) source.Option {
	return func(o *source.Options) {
		if o.Context == nil {
			o.Context = context.Background()
		}
		o.Context = context.WithValue(o.Context, filePathKey{}, p)
	}
}

func (f *file) Read() (*source.ChangeSet, error) {
	fh, err := os.Open(f.path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	info, err := fh.Stat()
	if err != nil {
		return nil, err
	}

	b, err := os.ReadFile(f.path)
	if err != nil {
		return nil, err
	}

	cs := &source.ChangeSet{
		Format:    f.opts.Format,
		Source:    f.String(),
		Timestamp: info.ModTime(),
		Data:      b,
	}
	cs.Checksum = cs.Sum()

	return cs, nil
}

func (f *file) Watch() (source.Watcher, error) {
	if _, err := os.Stat(f.path); err != nil {
		return nil, err
	}
	return newWatcher(f)
}

func (f *file) String() string {
	return "file"
}

func NewSource(opts ...source.Option) source.Source {
	options := source.NewOptions(opts...)

	path, ok := options.Context.Value(filePathKey{}).(string)
	if !ok {
		path = DEFAULT_CONFIG_FILE_NAME + "." + DEFAULT_CONFIG_FILE_FORMAT
	}

	// 未显式指定格式时按扩展名推断
	if options.Format == "" {
		ext := strings.TrimPrefix(filepath.Ext(path), ".")
		if ext == "" {
			ext = DEFAULT_CONFIG_FILE_FORMAT
		}
		if ext == "yml" {
			ext = "yaml"
		}
		options.Format = ext
	}

	return &file{opts: options, path: path}
}
