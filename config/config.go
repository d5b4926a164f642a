package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Role 选择进程以协调者还是缓存节点身份运行
type Role string

const (
	RoleCoordinator Role = "coordinator"
	RoleNode        Role = "node"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config 是进程启动时读取一次的配置，运行期间不再变化
type Config struct {
	Role Role `toml:"role"`
	// 监听端口
	Port int `toml:"port"`
	// 向协调者注册时使用的主机名
	AdvertiseHost string `toml:"advertise_host"`
	// 协调者地址 host:port，缓存节点启动时向它注册
	Coordinator string `toml:"coordinator"`
	// 本地缓存的最大条目数
	Capacity int `toml:"capacity"`
	// 每个节点的虚拟节点数
	Replicas int `toml:"replicas"`
	// 并发处理请求的上限
	MaxWorkers int `toml:"max_workers"`
	// 单次转发的超时时间，如 "10s"
	ForwardTimeout time.Duration `toml:"forward_timeout"`
	// 协调者上的热点 key 阈值，0 表示不统计
	HotKeyThreshold uint64 `toml:"hot_key_threshold"`
	// 热点计数的衰减间隔
	HotKeyDecay time.Duration `toml:"hot_key_decay"`
	// 为空时不启动监控服务器
	MetricsAddr string `toml:"metrics_addr"`
	LogLevel    string `toml:"log_level"`
	// text 或 json
	LogFormat string `toml:"log_format"`
}

// Default 返回默认配置
func Default() Config {
	return Config{
		Role:           RoleCoordinator,
		Port:           50051,
		AdvertiseHost:  "localhost",
		Coordinator:    "localhost:50051",
		Capacity:       100,
		Replicas:       50,
		MaxWorkers:     10,
		ForwardTimeout: 10 * time.Second,
		HotKeyDecay:    time.Minute,
		LogLevel:       "info",
		LogFormat:      "text",
	}
}

// Load 在默认配置之上读取 TOML 文件
func Load(path string) (Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return Config{}, fmt.Errorf("%w: unknown keys %s", ErrInvalidConfig, strings.Join(keys, ", "))
	}
	return cfg, nil
}

// Validate 检查配置是否可用
func (c Config) Validate() error {
	var errs []error
	if c.Role != RoleCoordinator && c.Role != RoleNode {
		errs = append(errs, fmt.Errorf("role must be %q or %q, got %q", RoleCoordinator, RoleNode, c.Role))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port out of range: %d", c.Port))
	}
	if c.Role == RoleNode {
		if _, _, err := net.SplitHostPort(c.Coordinator); err != nil {
			errs = append(errs, fmt.Errorf("coordinator address %q: %v", c.Coordinator, err))
		}
		if c.AdvertiseHost == "" {
			errs = append(errs, errors.New("advertise_host is required for a cache node"))
		}
	}
	if c.Capacity <= 0 {
		errs = append(errs, fmt.Errorf("capacity must be positive, got %d", c.Capacity))
	}
	if c.Replicas <= 0 {
		errs = append(errs, fmt.Errorf("replicas must be positive, got %d", c.Replicas))
	}
	if c.MaxWorkers <= 0 {
		errs = append(errs, fmt.Errorf("max_workers must be positive, got %d", c.MaxWorkers))
	}
	if c.ForwardTimeout <= 0 {
		errs = append(errs, fmt.Errorf("forward_timeout must be positive, got %s", c.ForwardTimeout))
	}
	if c.HotKeyThreshold > 0 && c.HotKeyDecay <= 0 {
		errs = append(errs, fmt.Errorf("hot_key_decay must be positive, got %s", c.HotKeyDecay))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("log_format must be text or json, got %q", c.LogFormat))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// ListenAddr 返回 gRPC 服务器的监听地址
func (c Config) ListenAddr() string {
	return ":" + strconv.Itoa(c.Port)
}

// AdvertiseAddr 返回向协调者注册的节点地址
func (c Config) AdvertiseAddr() string {
	return net.JoinHostPort(c.AdvertiseHost, strconv.Itoa(c.Port))
}
