package variant

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"assetmatrix/internal/logger"

	"github.com/fsnotify/fsnotify"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// rulesSchema 约束规则文件的结构，避免带着写错的规则静默跑完整个矩阵。
const rulesSchema = `{
  "type": "object",
  "required": ["rules"],
  "properties": {
    "rules": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["name", "pattern", "template"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "pattern": {"type": "string", "minLength": 1},
          "template": {"type": "string", "minLength": 1}
        }
      }
    }
  }
}`

// rulesFile 映射规则文件。
type rulesFile struct {
	Rules []RuleSpec `yaml:"rules"`
}

// Snapshot 公开的规则快照。
type Snapshot struct {
	Version  int64
	LoadedAt time.Time
	Rules    []RewriteRule
}

// Registry 管理可配置的改写规则，并在文件更新时重载。
type Registry struct {
	path string
	v    *viper.Viper

	mu       sync.RWMutex
	snapshot Snapshot
}

// NewRegistry 读取规则文件并监听更新。
func NewRegistry(path string) (*Registry, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("rule registry requires path")
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read rewrite rules failed: %w", err)
	}
	r := &Registry{path: path, v: v}
	if err := r.reload(); err != nil {
		return nil, err
	}
	v.OnConfigChange(func(evt fsnotify.Event) {
		if err := r.reload(); err != nil {
			logger.Errorf("rewrite rules reload failed: %v", err)
		}
	})
	v.WatchConfig()
	return r, nil
}

// Rules 返回当前规则集的拷贝。
func (r *Registry) Rules() []RewriteRule {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]RewriteRule(nil), r.snapshot.Rules...)
}

// Snapshot 返回当前快照。
func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snap := r.snapshot
	snap.Rules = append([]RewriteRule(nil), r.snapshot.Rules...)
	return snap
}

func (r *Registry) reload() error {
	rules, err := LoadRulesFile(r.path)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.snapshot = Snapshot{
		Version:  r.snapshot.Version + 1,
		LoadedAt: time.Now(),
		Rules:    rules,
	}
	r.mu.Unlock()
	logger.Infof("改写规则已加载：%d 条（%s）", len(rules), filepath.Base(r.path))
	return nil
}

// LoadRulesFile 读取、校验并编译一个规则文件。
func LoadRulesFile(path string) ([]RewriteRule, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rewrite rules failed: %w", err)
	}
	if err := validateRulesDocument(raw); err != nil {
		return nil, err
	}
	var file rulesFile
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("parse rewrite rules failed: %w", err)
	}
	rules := make([]RewriteRule, 0, len(file.Rules))
	for _, spec := range file.Rules {
		rule, err := spec.Compile()
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

func validateRulesDocument(raw []byte) error {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parse rewrite rules failed: %w", err)
	}
	// jsonschema 只认 JSON 类型，经一次 JSON 往返归一化。
	jsonRaw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	var instance any
	if err := json.Unmarshal(jsonRaw, &instance); err != nil {
		return err
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("rules.json", strings.NewReader(rulesSchema)); err != nil {
		return err
	}
	schema, err := compiler.Compile("rules.json")
	if err != nil {
		return err
	}
	if err := schema.Validate(instance); err != nil {
		return fmt.Errorf("rewrite rules schema validation failed: %w", err)
	}
	return nil
}
