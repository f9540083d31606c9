package config

import (
	"encoding/json"
	"sync"

	simple "github.com/bitly/go-simplejson"
	"github.com/pkg/errors"

	"github.com/ninja0404/token-radar/pkg/config/encoder"
	jsonenc "github.com/ninja0404/token-radar/pkg/config/encoder/json"
	tomlenc "github.com/ninja0404/token-radar/pkg/config/encoder/toml"
	yamlenc "github.com/ninja0404/token-radar/pkg/config/encoder/yaml"
	"github.com/ninja0404/token-radar/pkg/config/source"
)

// Manager 配置管理器：从Source读取快照并提供类型化访问
type Manager struct {
	mutex    sync.RWMutex
	sj       *simple.Json
	sources  []source.Source
	watchers []source.Watcher
	encoders map[string]encoder.Encoder
}

var defaultManager = NewManager()

// NewManager 创建配置管理器
func NewManager() *Manager {
	return &Manager{
		sj: simple.New(),
		encoders: map[string]encoder.Encoder{
			"json": jsonenc.NewJsonEncoder(),
			"yaml": yamlenc.NewYamlEncoder(),
			"toml": tomlenc.NewTomlEncoder(),
		},
	}
}

// Load 读取所有Source并合并为一棵配置树，后加载的覆盖先加载的
func (m *Manager) Load(sources ...source.Source) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for _, s := range sources {
		cs, err := s.Read()
		if err != nil {
			return errors.Wrapf(err, "read config source %s", s.String())
		}
		if err := m.apply(cs); err != nil {
			return errors.Wrapf(err, "parse config source %s", s.String())
		}
		m.sources = append(m.sources, s)
	}
	return nil
}

// apply 解析一次快照并覆盖合并进配置树
func (m *Manager) apply(cs *source.ChangeSet) error {
	enc, ok := m.encoders[cs.Format]
	if !ok {
		return errors.Errorf("unsupported config format: %s", cs.Format)
	}

	var raw map[string]interface{}
	data := replaceEnvVars(cs.Data)
	if err := enc.Decode(data, &raw); err != nil {
		return err
	}

	// 统一转成JSON树，访问端不再关心原始格式
	b, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	sj := simple.New()
	if err := sj.UnmarshalJSON(b); err != nil {
		return err
	}
	m.sj = sj
	return nil
}

// Get 按路径取值，如 Get("logger") / Get("sources", "pumpfun")
func (m *Manager) Get(path ...string) Value {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return &jsonValue{sj: m.sj.GetPath(path...)}
}

// Scan 把整棵配置树反序列化进结构体
func (m *Manager) Scan(v interface{}) error {
	m.mutex.RLock()
	b, err := m.sj.MarshalJSON()
	m.mutex.RUnlock()
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

// Watch 监听所有可监听的Source，配置变更时回调（快照解析失败则忽略本次变更）
func (m *Manager) Watch(onChange func()) error {
	m.mutex.Lock()
	srcs := make([]source.Source, len(m.sources))
	copy(srcs, m.sources)
	m.mutex.Unlock()

	for _, s := range srcs {
		w, err := s.Watch()
		if err != nil {
			return err
		}
		m.mutex.Lock()
		m.watchers = append(m.watchers, w)
		m.mutex.Unlock()

		go func(w source.Watcher) {
			for {
				cs, err := w.Next()
				if err != nil {
					return
				}
				m.mutex.Lock()
				applyErr := m.apply(cs)
				m.mutex.Unlock()
				if applyErr == nil && onChange != nil {
					onChange()
				}
			}
		}(w)
	}
	return nil
}

// Close 停止所有watcher
func (m *Manager) Close() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	for _, w := range m.watchers {
		_ = w.Stop()
	}
	m.watchers = nil
	return nil
}

// 包级便捷入口，操作默认管理器

func Load(sources ...source.Source) error {
	return defaultManager.Load(sources...)
}

func Get(path ...string) Value {
	return defaultManager.Get(path...)
}

func Scan(v interface{}) error {
	return defaultManager.Scan(v)
}

func Watch(onChange func()) error {
	return defaultManager.Watch(onChange)
}

func Close() error {
	return defaultManager.Close()
}
