package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/icn-epc/icn-epc/internal/config"
	"github.com/icn-epc/icn-epc/internal/eventloop"
	"github.com/icn-epc/icn-epc/internal/fw"
	"github.com/icn-epc/icn-epc/internal/logging"
	"github.com/icn-epc/icn-epc/internal/repo"
	"github.com/icn-epc/icn-epc/internal/server"
	"github.com/icn-epc/icn-epc/internal/server/routes"
	"github.com/icn-epc/icn-epc/internal/sim"
	"github.com/icn-epc/icn-epc/internal/version"
)

// cliOptions 汇总 CLI 标志解析后的结果，便于在测试中注入。
type cliOptions struct {
	configPath  string
	checkOnly   bool
	showVersion bool
}

var (
	stdOut io.Writer = os.Stdout
	stdErr io.Writer = os.Stderr
)

const shutdownTimeout = 5 * time.Second

func main() {
	opts, err := parseCLIFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(stdErr, err.Error())
		os.Exit(2)
	}
	os.Exit(run(opts))
}

// run 根据解析到的 CLI 选项执行业务流程，并返回退出码，方便测试。
func run(opts cliOptions) int {
	if opts.showVersion {
		printVersion()
		return 0
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(stdErr, "加载配置失败: %v\n", err)
		return 1
	}

	logger, err := logging.InitLogger(cfg.Global)
	if err != nil {
		fmt.Fprintf(stdErr, "初始化日志失败: %v\n", err)
		return 1
	}

	if opts.checkOnly {
		fields := summaryFields(cfg, logging.BaseFields("check_config", opts.configPath))
		fields["result"] = "ok"
		logger.WithFields(fields).Info("配置校验通过")
		return 0
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, cfg, opts.configPath, logger); err != nil {
		fmt.Fprintf(stdErr, "服务运行失败: %v\n", err)
		return 1
	}
	return 0
}

// serve 按“配置 → 指标 → 事件循环 → 内容仓库 → 拓扑 → Fiber server”顺序装配，
// 所有节点共享同一个事件循环，HTTP 层只通过 Loop.Call 访问节点状态。
func serve(ctx context.Context, cfg *config.Config, configPath string, logger *logrus.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := fw.NewMetrics(reg)
	queueLength := promauto.With(reg).NewGauge(prometheus.GaugeOpts{
		Name: "icn_eventloop_queue_length",
		Help: "Number of events waiting in the shared event loop.",
	})

	loop := eventloop.New(logger, eventloop.WithLengthObserver(func(n int) {
		queueLength.Set(float64(n))
	}))

	store, err := repo.NewStore(cfg.Global.RepoPath)
	if err != nil {
		return fmt.Errorf("初始化内容仓库失败: %w", err)
	}

	topo, err := sim.Build(cfg, sim.Deps{
		Loop:       loop,
		Logger:     logger,
		Metrics:    metrics,
		SimMetrics: sim.NewMetrics(reg),
		Store:      store,
	})
	if err != nil {
		return fmt.Errorf("构建拓扑失败: %w", err)
	}

	registry, err := server.NewNodeRegistry(cfg, topo.Node)
	if err != nil {
		return fmt.Errorf("构建节点注册表失败: %w", err)
	}

	app, err := server.NewApp(server.AppOptions{
		Logger:     logger,
		Registry:   registry,
		Metrics:    promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		ListenPort: cfg.Global.ListenPort,
	})
	if err != nil {
		return err
	}
	routes.RegisterNodeRoutes(app, registry, loop, routes.Options{
		Workload: func() any { return topo.ConsumerStats() },
	})
	server.RegisterFallback(app, logger)

	fields := summaryFields(cfg, logging.BaseFields("startup", configPath))
	fields["listen_port"] = cfg.Global.ListenPort
	fields["repo_path"] = cfg.Global.RepoPath
	fields["version"] = version.Full()
	logger.WithFields(fields).Info("配置加载完成")

	loopDone := make(chan error, 1)
	go func() { loopDone <- loop.Run(ctx) }()
	waitConsumers := topo.StartConsumers(ctx)

	go func() {
		<-ctx.Done()
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			logger.WithField("action", "shutdown").Warn(err.Error())
		}
	}()

	logger.WithFields(logrus.Fields{
		"action": "listen",
		"port":   cfg.Global.ListenPort,
	}).Info("Fiber 服务启动")

	listenErr := app.Listen(fmt.Sprintf(":%d", cfg.Global.ListenPort))
	if listenErr != nil && ctx.Err() == nil {
		return listenErr
	}

	waitConsumers()
	if err := <-loopDone; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.WithFields(logrus.Fields{
		"action":    "shutdown",
		"consumers": topo.ConsumerStats(),
	}).Info("服务已停止")
	return nil
}

// summaryFields 附加拓扑规模信息，check-config 与启动日志共用。
func summaryFields(cfg *config.Config, fields logrus.Fields) logrus.Fields {
	fields["nodes"] = cfg.NodeNames()
	fields["bearers"] = len(cfg.Bearers)
	fields["consumers"] = len(cfg.Consumers)
	fields["passthrough"] = cfg.Global.PassthroughAddrs
	return fields
}

// parseCLIFlags 解析 CLI 参数，并结合环境变量计算最终的配置路径。
func parseCLIFlags(args []string) (cliOptions, error) {
	fs := flag.NewFlagSet("icn-epc", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		configFlag string
		checkOnly  bool
		showVer    bool
	)

	fs.StringVar(&configFlag, "config", "", "配置文件路径（默认 ./config.toml，可被 ICN_EPC_CONFIG 覆盖）")
	fs.BoolVar(&checkOnly, "check-config", false, "仅校验配置后退出")
	fs.BoolVar(&showVer, "version", false, "显示版本信息")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, fmt.Errorf("解析参数失败: %w", err)
	}

	path := os.Getenv("ICN_EPC_CONFIG")
	if configFlag != "" {
		path = configFlag
	}
	if path == "" {
		path = "config.toml"
	}

	return cliOptions{
		configPath:  path,
		checkOnly:   checkOnly,
		showVersion: showVer,
	}, nil
}
