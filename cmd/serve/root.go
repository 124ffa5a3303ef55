package serve

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	cmdUtil "github.com/ValentinKolb/hKV/cmd/util"
	"github.com/ValentinKolb/hKV/rpc/common"
	"github.com/ValentinKolb/hKV/rpc/serializer"
	"github.com/ValentinKolb/hKV/rpc/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	serveCmdConfig = &common.ServerConfig{}
	ServeCmd       = &cobra.Command{
		Use:     "serve",
		Short:   "Start the hKV server",
		Long:    `Start the hKV server with the specified configuration. The configuration can be set via command line flags or environment variables. The format of the environment variables is HKV_<flag> (e.g. HKV_DATA_DIR=/var/lib/hkv)`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	// initialize viper
	cobra.OnInitialize(cmdUtil.InitConfig)

	// add flags
	key := "shards"
	ServeCmd.PersistentFlags().String(key, "100=memory", cmdUtil.WrapString("Comma-separated list of shards to serve. Format: ID=TYPE where TYPE is one of: memory, btree, pebble, bolt"))

	key = "data-dir"
	ServeCmd.PersistentFlags().String(key, "data", cmdUtil.WrapString("Directory of the persistent shards (pebble, bolt). Each shard is stored in <data-dir>/shard-<id>"))

	key = "no-sync"
	ServeCmd.PersistentFlags().Bool(key, false, cmdUtil.WrapString("Do not fsync writes of persistent shards (faster, the last writes may be lost on a crash)"))

	key = "timeout"
	ServeCmd.PersistentFlags().Int64(key, 5, cmdUtil.WrapString("Timeout in seconds for writing a response"))

	key = "endpoint"
	ServeCmd.PersistentFlags().String(key, "0.0.0.0:8080", cmdUtil.WrapString("The address on which the API will listen (e.g. localhost:8080 or /tmp/hkv.sock for the unix transport)"))

	key = "workers-per-conn"
	ServeCmd.PersistentFlags().Int(key, 100, cmdUtil.WrapString("Maximum number of requests processed concurrently per connection (tcp and unix)"))

	key = "buffer-size"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("Size of the pooled frame buffers in KB (tcp and unix, 0 = transport default)"))

	key = "tcp-nodelay"
	ServeCmd.PersistentFlags().Bool(key, true, cmdUtil.WrapString("Whether to enable TCP_NODELAY (only for tcp)"))

	key = "tcp-keepalive"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("The keepalive interval in seconds (only for tcp, 0 = disabled)"))

	key = "tcp-linger"
	ServeCmd.PersistentFlags().Int(key, -1, cmdUtil.WrapString("The linger time in seconds (only for tcp, negative = OS default)"))

	key = "log-level"
	ServeCmd.PersistentFlags().String(key, "info", cmdUtil.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))

	key = "log-encoding"
	ServeCmd.PersistentFlags().String(key, "console", cmdUtil.WrapString("Log encoding (console or json)"))

	key = "log-file"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("Write logs to this file instead of stderr. The file is rotated"))

	key = "log-max-size"
	ServeCmd.PersistentFlags().Int(key, 100, cmdUtil.WrapString("Maximum size of a log file in MB before it is rotated"))

	key = "log-max-backups"
	ServeCmd.PersistentFlags().Int(key, 3, cmdUtil.WrapString("Maximum number of rotated log files to keep"))

	key = "log-max-age"
	ServeCmd.PersistentFlags().Int(key, 28, cmdUtil.WrapString("Maximum number of days to keep rotated log files"))

	key = "log-compress"
	ServeCmd.PersistentFlags().Bool(key, false, cmdUtil.WrapString("Compress rotated log files"))

	key = "metrics"
	ServeCmd.PersistentFlags().Bool(key, false, cmdUtil.WrapString("Collect store metrics. The http transport serves them on GET /metrics"))
}

// processConfig reads the configuration from the command line flags and environment variables and converts them to the server configuration
func processConfig(cmd *cobra.Command, _ []string) error {
	// bind the flags to viper
	if err := cmdUtil.BindCommandFlags(cmd); err != nil {
		return err
	}

	shards, err := common.ParseShards(viper.GetString("shards"))
	if err != nil {
		return err
	}

	*serveCmdConfig = common.ServerConfig{
		Shards:        shards,
		DataDir:       viper.GetString("data-dir"),
		NoSync:        viper.GetBool("no-sync"),
		TimeoutSecond: viper.GetInt64("timeout"),
		Transport: common.ServerTransportConfig{
			Endpoint:        viper.GetString("endpoint"),
			WorkersPerConn:  viper.GetInt("workers-per-conn"),
			BufferSize:      viper.GetInt("buffer-size") * 1024,
			TCPNoDelay:      viper.GetBool("tcp-nodelay"),
			TCPKeepAliveSec: viper.GetInt("tcp-keepalive"),
			TCPLingerSec:    viper.GetInt("tcp-linger"),
		},
		Log: common.LogConfig{
			Level:      viper.GetString("log-level"),
			Encoding:   viper.GetString("log-encoding"),
			File:       viper.GetString("log-file"),
			MaxSizeMB:  viper.GetInt("log-max-size"),
			MaxBackups: viper.GetInt("log-max-backups"),
			MaxAgeDays: viper.GetInt("log-max-age"),
			Compress:   viper.GetBool("log-compress"),
		},
		Metrics: viper.GetBool("metrics"),
	}

	// the loggers are configured before anything is logged
	return common.InitLoggers(serveCmdConfig.Log)
}

// run starts the hKV server and stops it on SIGINT or SIGTERM
func run(_ *cobra.Command, _ []string) error {
	s, err := serializer.ByName(viper.GetString("serializer"))
	if err != nil {
		return err
	}

	t, err := cmdUtil.GetServerTransport(serveCmdConfig.Transport)
	if err != nil {
		return err
	}

	serv := server.NewRPCServer(*serveCmdConfig, t, s)

	done := make(chan error, 1)
	go func() { done <- serv.Serve() }()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(signals)

	select {
	case err := <-done:
		// Serve failed, release whatever was opened
		if closeErr := serv.Close(); closeErr != nil {
			server.Logger.Warningf("Failed to close server: %v", closeErr)
		}
		return err
	case sig := <-signals:
		server.Logger.Infof("Received %s, shutting down", sig)
		if err := serv.Close(); err != nil {
			return fmt.Errorf("failed to close server: %w", err)
		}
		return <-done
	}
}
