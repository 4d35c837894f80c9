package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"imgproc.szuro.net/internal/cache"
	"imgproc.szuro.net/internal/config"
	"imgproc.szuro.net/internal/logger"
	"imgproc.szuro.net/internal/metrics"
	"imgproc.szuro.net/internal/plugin"
	"imgproc.szuro.net/internal/processor"
)

func printVersionInfo() {
	fmt.Printf("imgproc %s\n", config.Version)
	fmt.Printf("Git commit: %s\n", config.Commit)
	fmt.Printf("Compilation time: %s\n", config.BuildDate)
}

func main() {
	confPath := flag.String("c", "", "Path of config file")
	version := flag.Bool("v", false, "Show version info")
	input := flag.String("input", "", "Input image path")
	output := flag.String("output", "", "Output image path")
	filterName := flag.String("plugin", "", "Plugin name (builtin:<name> and rpc:<name> are also accepted)")
	paramsPath := flag.String("params", "", "Path to text file with processing params")
	pluginPath := flag.String("plugin-path", "", "Directory with plugin libraries, overrides plugins_dir")
	flag.Parse()

	if *version {
		printVersionInfo()
		os.Exit(0)
	}

	if err := plugin.CheckPlatform(); err != nil {
		logger.Error("Cannot load native plugins on this platform", slog.Any("error", err))
		os.Exit(1)
	}

	if *input == "" || *output == "" || *filterName == "" {
		fmt.Fprintln(os.Stderr, "-input, -output and -plugin are required")
		flag.Usage()
		os.Exit(2)
	}

	conf := config.Default()
	if *confPath != "" {
		var err error
		conf, err = config.ParseHostConfig(*confPath)
		if err != nil {
			logger.Error("Failed to load config", slog.Any("error", err))
			os.Exit(1)
		}
	}
	if *pluginPath != "" {
		conf.PluginsDir = *pluginPath
	}
	logger.SetLogLevel(conf.GetLogLevel())
	metrics.BuildInfo.Set(1)

	if err := run(conf, *input, *output, *filterName, *paramsPath); err != nil {
		logger.Error("Processing failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(conf config.HostConf, input, output, filterName, paramsPath string) error {
	var params string
	if paramsPath != "" {
		raw, err := os.ReadFile(paramsPath)
		if err != nil {
			return fmt.Errorf("cannot read params: %w", err)
		}
		params = string(raw)
	}

	registry := plugin.NewRegistry(conf)
	defer func() {
		if err := registry.Close(); err != nil {
			logger.Warn("Failed to unload plugins", slog.Any("error", err))
		}
	}()

	var rc *cache.ResultCache
	if conf.Cache.Enabled() {
		var err error
		rc, err = cache.Open(conf.Cache)
		if err != nil {
			return err
		}
		defer rc.Close()
	}

	defer func() {
		if err := metrics.Push(conf.Metrics); err != nil {
			logger.Warn("Failed to push metrics", slog.Any("error", err))
		}
	}()

	err := processor.New(registry, rc).Process(processor.Request{
		Input:  input,
		Output: output,
		Filter: filterName,
		Params: params,
	})
	for _, info := range registry.ListPlugins() {
		logger.Debug("Loaded plugin",
			slog.String("name", info.Name),
			slog.String("kind", info.Kind),
			slog.String("path", info.Path),
			slog.String("abi", info.ABI))
	}
	return err
}
