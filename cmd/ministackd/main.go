package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/gin-gonic/gin"
	"github.com/natefinch/lumberjack"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/ministack/ministack/internal/api"
	"github.com/ministack/ministack/internal/capture"
	"github.com/ministack/ministack/internal/dispatch"
	"github.com/ministack/ministack/pkg/builder"
	"github.com/ministack/ministack/pkg/layers"
	"github.com/ministack/ministack/pkg/utils"
)

const logoAscii = `            o         |              |
 |/|/\ | |/\ | /\// \/|/ /\ /\ // \ \|/
 |   | |     |          |`

var (
	version bool
	verbose bool
	addr    string
	ifaces  []string
	promisc bool
)

func main() {
	pflag.BoolVarP(&version, "version", "V", false, "Print version")
	pflag.BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	pflag.StringVar(&addr, "addr", ":9921", "API listen address")
	pflag.StringSliceVarP(&ifaces, "interface", "i", nil, "Interfaces to capture")
	pflag.BoolVarP(&promisc, "promisc", "p", false, "Enable promiscuous mode")
	pflag.Parse()

	if version {
		fmt.Println(color.HiBlueString(logoAscii))
		fmt.Println(builder.BuildInfo())
		os.Exit(0)
	}

	if verbose {
		gin.SetMode(gin.DebugMode)
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		gin.SetMode(gin.ReleaseMode)
		logrus.SetLevel(logrus.InfoLevel)
		logrus.SetOutput(&lumberjack.Logger{
			Filename:   "/var/log/ministack/ministackd.log",
			MaxSize:    100,
			MaxBackups: 10,
			MaxAge:     60,
			Compress:   true,
		})
	}

	logrus.WithField("pid", os.Getpid()).Info("///ministackd start")
	defer logrus.WithField("pid", os.Getpid()).Info("///ministackd quit")

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		logrus.WithError(err).Fatal("Fatal to listen")
	}
	logrus.WithField("addr", lis.Addr()).Info("Listen on")

	var sockOpts []capture.SocketOpt
	if promisc {
		sockOpts = append(sockOpts, capture.WithPromiscuous())
	}
	svc, err := capture.NewService(ifaces, logEchoRequest, sockOpts...)
	if err != nil {
		logrus.WithError(err).Fatal("Fatal to new capture service")
	}
	logrus.WithField("ifaces", ifaces).Info("New capture service")

	closers := utils.NamedClosers{
		{Name: "capture.Service", Close: svc.Close},
		{Name: "net.Listener", Close: lis.Close},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logrus.WithField("sig", sig).Info("Recv signal")
		cancel()
		lis.Close()
	}()

	go svc.Run(ctx)

	g := gin.Default()
	api.SetStatsRouter(g, svc)
	err = g.RunListener(lis)
	if err != nil {
		logrus.WithError(err).Error("Serve api exited")
	}

	cancel()
	closers.Close(&utils.CloseOpt{ReverseOrder: true, Output: logrus.Info, ErrorOutput: logrus.Error})
}

func logEchoRequest(iface string, res *dispatch.Result) {
	if res.ICMPv4 == nil || res.ICMPv4.Type != layers.ICMPv4TypeEchoRequest {
		return
	}
	logrus.WithFields(logrus.Fields{
		"iface": iface,
		"icmp":  layers.FormatICMPv4(res.ICMPv4),
		"ipv4":  layers.FormatIPv4(res.IPv4),
	}).Debug("Recv icmp echo request")
}
