package main

// export GOPARCEL_CONF_PATH="$HOME/.goparcel.yaml"
// export GOPARCEL_LOGGING_LEVEL=-1

import (
	"context"
	"errors"
	"fmt"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/aaronwong1989/goparcel/binder"
	"github.com/aaronwong1989/goparcel/comm"
	"github.com/aaronwong1989/goparcel/comm/logging"
	"github.com/aaronwong1989/goparcel/config"
	"github.com/aaronwong1989/goparcel/relay"
	"github.com/aaronwong1989/goparcel/store"
	"github.com/aaronwong1989/goparcel/telecom"
)

var log = logging.GetDefaultLogger()

func main() {
	var (
		confPath  string
		port      int
		multicore bool
		pprof     bool
	)
	// Example command: parcel-relay --conf goparcel.yaml --port 9200 --multicore=true
	pflag.StringVarP(&confPath, "conf", "c", config.Path(), "yaml config file")
	pflag.IntVarP(&port, "port", "p", 0, "listen port, overrides config")
	pflag.BoolVar(&multicore, "multicore", true, "use multiple event loops, overrides config")
	pflag.BoolVar(&pprof, "pprof", false, "serve pprof on port+1")
	pflag.Parse()

	conf, err := loadConfig(confPath, pflag.CommandLine.Changed("conf"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config %s: %v\n", confPath, err)
		os.Exit(1)
	}
	if port > 0 {
		conf.Port = port
	}
	if pflag.CommandLine.Changed("multicore") {
		conf.Multicore = multicore
	}
	if err := logging.Setup(conf.LoggingOptions()); err != nil {
		fmt.Fprintf(os.Stderr, "setup logging: %v\n", err)
		os.Exit(1)
	}
	defer logging.Cleanup()
	log.Infof("[%-9s] \n%s", "Conf", conf)

	if err := run(conf, pprof); err != nil {
		log.Errorf("[%-9s] %v", "Main", err)
		logging.Cleanup()
		os.Exit(1)
	}
}

// loadConfig 未显式指定且默认路径不存在时使用内置默认值
func loadConfig(path string, explicit bool) (*config.Config, error) {
	conf, err := config.Load(path)
	if err != nil && !explicit && errors.Is(err, os.ErrNotExist) {
		return config.Default(), nil
	}
	return conf, err
}

// newHandler 配置了 store-path 时落盘，否则只记录日志
func newHandler(conf *config.Config, codec *telecom.ConferenceCodec) (relay.Handler, func(), error) {
	if conf.StorePath == "" {
		return relay.LogHandler{Codec: codec}, func() {}, nil
	}
	enc, err := conf.Encoding()
	if err != nil {
		return nil, nil, err
	}
	st, err := store.Open(store.Options{Path: conf.StorePath, Codec: codec, Encoding: enc, Sync: conf.StoreSync})
	if err != nil {
		return nil, nil, err
	}
	log.Infof("[%-9s] conferences are stored in %s", "Store", conf.StorePath)
	return st, func() {
		if err := st.Close(); err != nil {
			log.Errorf("[%-9s] close: %v", "Store", err)
		}
	}, nil
}

func run(conf *config.Config, pprof bool) error {
	relay.Seq32 = comm.NewCycleSequence(conf.DataCenterId, conf.WorkerId)
	log.Infof("current pid is %s.", comm.SavePid("parcel-relay.pid"))
	if pprof {
		comm.StartMonitor(conf.Port)
	}

	pool, err := relay.NewPool(conf)
	if err != nil {
		return err
	}
	defer pool.Release()

	codec := telecom.NewConferenceCodec(
		telecom.WithTransport(binder.NewTable()),
		telecom.WithSchemaGuard(conf.SchemaGuard),
	)
	handler, closeHandler, err := newHandler(conf, codec)
	if err != nil {
		return err
	}
	defer closeHandler()

	server, err := relay.NewServer(conf, pool, codec, handler)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Run()
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("server(%s) exits with error: %w", server.Addr(), err)
	case s := <-sig:
		log.Warnf("[%-9s] received %s, stopping %s", "Main", s, server.Addr())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Stop(ctx); err != nil {
		return err
	}
	return <-errCh
}
