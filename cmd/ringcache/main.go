package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/simplely77/ringcache"
	"github.com/simplely77/ringcache/config"
)

const usage = `usage:
  ringcache coordinator [flags]          start a coordinator
  ringcache node [flags]                 start a cache node
  ringcache get    [-addr a] key         read a key
  ringcache put    [-addr a] key value   write a key
  ringcache remove [-addr a] key         delete a key
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "coordinator":
		err = runServer(config.RoleCoordinator, args)
	case "node":
		err = runServer(config.RoleNode, args)
	case "get", "put", "remove":
		err = runClient(cmd, args)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		logrus.WithError(err).Fatal("ringcache")
	}
}

// loadConfig 读取配置文件，再用显式设置的命令行参数覆盖
func loadConfig(role config.Role, args []string) (config.Config, error) {
	fs := flag.NewFlagSet(string(role), flag.ExitOnError)
	path := fs.String("config", "", "TOML config file")
	port := fs.Int("port", 0, "listen port")
	coordinator := fs.String("coordinator", "", "coordinator address host:port (node only)")
	advertise := fs.String("advertise-host", "", "host the coordinator uses to reach this node")
	capacity := fs.Int("capacity", 0, "max entries in the local cache (node only)")
	replicas := fs.Int("replicas", 0, "virtual nodes per cache node (coordinator only)")
	workers := fs.Int("max-workers", 0, "max concurrently handled requests")
	timeout := fs.Duration("forward-timeout", 0, "timeout of a single forward (coordinator only)")
	hotKeys := fs.Uint64("hot-key-threshold", 0, "accesses before a key is reported hot, 0 to disable (coordinator only)")
	metrics := fs.String("metrics-addr", "", "address of the metrics server, empty to disable")
	level := fs.String("log-level", "", "log level")
	format := fs.String("log-format", "", "log format: text or json")
	if err := fs.Parse(args); err != nil {
		return config.Config{}, err
	}

	cfg := config.Default()
	if *path != "" {
		var err error
		if cfg, err = config.Load(*path); err != nil {
			return config.Config{}, err
		}
	}
	cfg.Role = role

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			cfg.Port = *port
		case "coordinator":
			cfg.Coordinator = *coordinator
		case "advertise-host":
			cfg.AdvertiseHost = *advertise
		case "capacity":
			cfg.Capacity = *capacity
		case "replicas":
			cfg.Replicas = *replicas
		case "max-workers":
			cfg.MaxWorkers = *workers
		case "forward-timeout":
			cfg.ForwardTimeout = *timeout
		case "hot-key-threshold":
			cfg.HotKeyThreshold = *hotKeys
		case "metrics-addr":
			cfg.MetricsAddr = *metrics
		case "log-level":
			cfg.LogLevel = *level
		case "log-format":
			cfg.LogFormat = *format
		}
	})
	return cfg, cfg.Validate()
}

func setupLogger(cfg config.Config) error {
	l := logrus.New()
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	l.SetLevel(level)
	if cfg.LogFormat == "json" {
		l.SetFormatter(&logrus.JSONFormatter{})
	}
	ringcache.SetLogger(l)
	return nil
}

func runServer(role config.Role, args []string) error {
	cfg, err := loadConfig(role, args)
	if err != nil {
		return err
	}
	if err := setupLogger(cfg); err != nil {
		return err
	}
	log := ringcache.Logger().WithField("role", cfg.Role)

	var svc ringcache.Service
	switch cfg.Role {
	case config.RoleCoordinator:
		c := ringcache.NewCoordinator(ringcache.DialPeer, cfg.Replicas)
		c.SetForwardTimeout(cfg.ForwardTimeout)
		if cfg.HotKeyThreshold > 0 {
			c.SetHotKeyTracker(ringcache.NewHotKeyTracker(cfg.HotKeyThreshold, cfg.HotKeyDecay))
		}
		defer c.Close()
		svc = c
	case config.RoleNode:
		svc = ringcache.NewCacheNode(cfg.Capacity)
	}

	if cfg.MetricsAddr != "" {
		ringcache.EnableMetrics()
		ms := ringcache.StartMetricsServerAsync(cfg.MetricsAddr, svc)
		defer ms.Stop()
	}

	// 先监听再注册，保证协调者转发过来时已经可以接收请求
	lis, err := net.Listen("tcp", cfg.ListenAddr())
	if err != nil {
		return err
	}
	server := ringcache.NewGRPCServer(cfg.AdvertiseAddr(), svc, cfg.MaxWorkers)
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ServeListener(lis)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Role == config.RoleNode {
		if err := register(ctx, cfg); err != nil {
			server.Stop()
			return err
		}
		defer deregister(cfg)
	}
	log.Infof("%s started on port %d", cfg.Role, cfg.Port)

	select {
	case <-ctx.Done():
		log.Info("shutting down")
		server.Stop()
		return nil
	case err := <-serveErr:
		return err
	}
}

// register 向协调者注册本节点
func register(ctx context.Context, cfg config.Config) error {
	client, err := ringcache.NewClient(cfg.Coordinator)
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	resp, err := client.RegisterNode(ctx, cfg.AdvertiseHost, cfg.Port)
	if err != nil {
		return fmt.Errorf("register with %s: %w", cfg.Coordinator, err)
	}
	if !resp.Success {
		return fmt.Errorf("register with %s: %s", cfg.Coordinator, resp.Message)
	}
	ringcache.Logger().WithField("coordinator", cfg.Coordinator).Info(resp.Message)
	return nil
}

// deregister 退出时通知协调者，失败只记录日志
func deregister(cfg config.Config) {
	client, err := ringcache.NewClient(cfg.Coordinator)
	if err != nil {
		return
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	resp, err := client.DeregisterNode(ctx, cfg.AdvertiseHost, cfg.Port)
	if err != nil {
		ringcache.Logger().WithError(err).Warn("deregister")
		return
	}
	ringcache.Logger().Info(resp.Message)
}

func runClient(cmd string, args []string) error {
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	addr := fs.String("addr", "localhost:50051", "coordinator address")
	timeout := fs.Duration("timeout", 5*time.Second, "request timeout")
	if err := fs.Parse(args); err != nil {
		return err
	}
	want := map[string]int{"get": 1, "put": 2, "remove": 1}[cmd]
	if fs.NArg() != want {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	client, err := ringcache.NewClient(*addr)
	if err != nil {
		return err
	}
	defer client.Close()
	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	var resp ringcache.Response
	switch cmd {
	case "get":
		item, err := client.Get(ctx, fs.Arg(0))
		if err != nil {
			return err
		}
		if !item.Found() {
			return errors.New("key not found")
		}
		fmt.Println(item.Value)
		return nil
	case "put":
		resp, err = client.Put(ctx, ringcache.Item{Key: fs.Arg(0), Value: fs.Arg(1)})
	case "remove":
		resp, err = client.Remove(ctx, fs.Arg(0))
	}
	if err != nil {
		return err
	}
	fmt.Println(resp.Message)
	if !resp.Success {
		os.Exit(1)
	}
	return nil
}
