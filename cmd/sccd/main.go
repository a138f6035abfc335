//go:build linux

// sccd's hardware-facing stack (uinput virtual devices, libusb/hidraw
// transport) is Linux-only; cmd/sccd is not built for other platforms.
package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/scc-go/sccd/internal/cmd"
	"github.com/scc-go/sccd/internal/configpaths"
	sclog "github.com/scc-go/sccd/internal/log"

	"github.com/alecthomas/kong"
	kongtoml "github.com/alecthomas/kong-toml"
	kongyaml "github.com/alecthomas/kong-yaml"
)

// CLI is the top-level Kong command set.
type CLI struct {
	Log struct {
		Level  string `help:"Log level" enum:"debug,info,warn,error" default:"info"`
		Format string `help:"Log format" enum:"text,json" default:"text"`
	} `embed:"" prefix:"log."`

	Server    cmd.Server    `cmd:"" help:"Run the daemon in the foreground"`
	Config    cmd.ConfigCommand `cmd:"" help:"Configuration file tools"`
	Install   cmd.Install   `cmd:"" help:"Install sccd as a systemd service"`
	Uninstall cmd.Uninstall `cmd:"" help:"Remove the sccd systemd service"`
}

func main() {
	userCfg := findUserConfig(os.Args[1:])
	jsonPaths, yamlPaths, tomlPaths := configpaths.ConfigCandidatePaths(userCfg)

	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("sccd"),
		kong.Description("Gamepad mediation daemon"),
		kong.UsageOnError(),
		kong.Configuration(kong.JSON, jsonPaths...),
		kong.Configuration(kongyaml.Loader, yamlPaths...),
		kong.Configuration(kongtoml.Loader, tomlPaths...),
	)

	level := slog.LevelInfo
	_ = level.UnmarshalText([]byte(cli.Log.Level))
	logger := sclog.NewLogger(cli.Log.Format, level)

	ctx.Bind(logger)

	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}

func findUserConfig(args []string) string {
	for i := 0; i < len(args); i++ {
		a := args[i]
		if strings.HasPrefix(a, "--config=") {
			return a[len("--config="):]
		}
		if a == "--config" && i+1 < len(args) {
			return args[i+1]
		}
	}
	if v := os.Getenv("SCCD_CONFIG"); v != "" {
		return v
	}
	return ""
}
