// Command ctpnode is a minimal demonstration of the ctp endpoint: its demo
// subcommand drives two in-process nodes over a radio.Loopback pair, the
// other subcommands drive one node over radio.UDPRadio when --local and
// --peer are both given (or over an unpeered loopback otherwise), and it
// exposes connect, hello, listen, demo, and serve subcommands.
package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cristiantrapero/ctp-node"
	"github.com/cristiantrapero/ctp-node/endpoint"
	"github.com/cristiantrapero/ctp-node/internal"
	"github.com/cristiantrapero/ctp-node/radio"
)

var (
	cfgFile   string
	flagEUI   string
	flagPeer  string
	flagLocal string
	flagDest  string
)

var rootCmd = &cobra.Command{
	Use:   "ctpnode",
	Short: "Demonstrate a CTP endpoint over LoRa or UDP",
	Long: `ctpnode drives one CTP endpoint. Unless both --local and --peer are
set, it uses an in-process loopback radio with no neighbor on the other
end; the demo subcommand instead runs a connect/listen exchange between
two in-process nodes. With --local and --peer set it opens a UDP-backed
radio.Socket, for a two-process demonstration.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./ctpnode.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagEUI, "eui", "00112233AABBCCDD", "this node's hardware EUI (the string's bytes are used as-is, not hex-decoded)")
	rootCmd.PersistentFlags().StringVar(&flagLocal, "local", "", "UDP address to bind (enables UDPRadio backend)")
	rootCmd.PersistentFlags().StringVar(&flagPeer, "peer", "", "UDP address of the peer node (enables UDPRadio backend)")
	viper.BindPFlag("eui", rootCmd.PersistentFlags().Lookup("eui"))
	viper.BindPFlag("local", rootCmd.PersistentFlags().Lookup("local"))
	viper.BindPFlag("peer", rootCmd.PersistentFlags().Lookup("peer"))

	connectCmd.Flags().StringVar(&flagDest, "dest", "", "destination short address, hex (default broadcast)")
	rootCmd.AddCommand(connectCmd, helloCmd, listenCmd, demoCmd, serveCmd)

	serveCmd.Flags().Duration("hello-interval", 30*time.Second, "interval between hello broadcasts")
	serveCmd.Flags().String("metrics-addr", ":9110", "address to serve /metrics on")
	viper.BindPFlag("hello_interval", serveCmd.Flags().Lookup("hello-interval"))
	viper.BindPFlag("metrics_addr", serveCmd.Flags().Lookup("metrics-addr"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("ctpnode")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}
	viper.SetEnvPrefix("CTPNODE")
	viper.AutomaticEnv()
	viper.ReadInConfig() // best-effort: a missing config file is not an error here.
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

func newSocketPair(log *slog.Logger) (sendSock, recvSock radio.Socket, closeFn func()) {
	local := viper.GetString("local")
	peer := viper.GetString("peer")
	if local == "" || peer == "" {
		a, _ := radio.NewLoopbackPair([]byte(viper.GetString("eui")), []byte("peer-demo"))
		log.Info("using in-process loopback radio (no real peer process; see 'demo' for a two-node run)")
		return a, a.Handle(), func() {}
	}
	eui := []byte(viper.GetString("eui"))
	u, err := radio.NewUDPRadio(local, peer, eui)
	if err != nil {
		log.Error("failed to open UDP radio", "err", err)
		os.Exit(1)
	}
	log.Info("using UDP radio backend", "local", local, "peer", peer)
	return u, u, func() { u.Close() }
}

func parseDest(s string) ctp.Address {
	if s == "" {
		return ctp.Broadcast
	}
	a, err := ctp.ParseAddress(s)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid --dest %q: %v\n", s, err)
		os.Exit(1)
	}
	return a
}

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Send the CONNECT handshake to a neighbor",
	Run: func(cmd *cobra.Command, args []string) {
		log := newLogger()
		sendSock, recvSock, closeFn := newSocketPair(log)
		defer closeFn()
		ep := endpoint.New(endpoint.Config{HardwareEUI: []byte(viper.GetString("eui")), Log: log}, sendSock, recvSock)
		res := ep.Connect(parseDest(flagDest))
		log.Info("connect finished", "receiver", res.Receiver, "failed", res.Failed, "retransmits", res.Retransmits)
	},
}

var helloCmd = &cobra.Command{
	Use:   "hello",
	Short: "Broadcast this node's neighbor set",
	Run: func(cmd *cobra.Command, args []string) {
		log := newLogger()
		sendSock, recvSock, closeFn := newSocketPair(log)
		defer closeFn()
		ep := endpoint.New(endpoint.Config{HardwareEUI: []byte(viper.GetString("eui")), Log: log}, sendSock, recvSock)
		res := ep.Hello(ctp.Broadcast)
		log.Info("hello sent", "packets", res.PacketsSent)
	},
}

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Wait for one CONNECT handshake",
	Run: func(cmd *cobra.Command, args []string) {
		log := newLogger()
		sendSock, recvSock, closeFn := newSocketPair(log)
		defer closeFn()
		ep := endpoint.New(endpoint.Config{HardwareEUI: []byte(viper.GetString("eui")), Log: log}, sendSock, recvSock)
		res := ep.Listen(ctp.Broadcast)
		log.Info("listen finished", "sender", res.Sender, "is_connect", res.IsConnect)
	},
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run a self-contained connect+send demo over a loopback pair",
	Run: func(cmd *cobra.Command, args []string) {
		log := newLogger()
		sockA, sockB := radio.NewLoopbackPair([]byte("node-a"), []byte("node-b"))
		nodeA := endpoint.New(endpoint.Config{HardwareEUI: []byte("node-a"), Log: log}, sockA, sockA.Handle())
		nodeB := endpoint.New(endpoint.Config{HardwareEUI: []byte("node-b"), Log: log}, sockB, sockB.Handle())

		done := make(chan endpoint.ListenResult, 1)
		go func() { done <- nodeB.Listen(ctp.Broadcast) }()
		time.Sleep(10 * time.Millisecond)
		connRes := nodeA.Connect(ctp.Broadcast)
		listenRes := <-done
		log.Info("demo complete",
			"connect_failed", connRes.Failed,
			"listen_is_connect", listenRes.IsConnect,
			"a_addr", nodeA.GetMyAddr(),
			"b_addr", nodeB.GetMyAddr(),
		)
	},
}

// serveCmd runs a long-lived cooperative-task shape: a periodic hello
// broadcaster and a blocking receive loop on separate goroutines, each
// owning its own radio socket, alongside an HTTP /metrics endpoint the
// hosting application's own HTTP server would expose in a real
// deployment (this repo ships only that one endpoint; everything else --
// the BLE/Wi-Fi surfaces, LED driver, message log -- is explicitly out
// of scope here).
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a periodic hello broadcaster and receive loop with metrics",
	Run: func(cmd *cobra.Command, args []string) {
		log := newLogger()
		sendSock, recvSock, closeFn := newSocketPair(log)
		defer closeFn()

		reg := prometheus.NewRegistry()
		m := endpoint.NewMetrics(reg)
		ep := endpoint.New(endpoint.Config{HardwareEUI: []byte(viper.GetString("eui")), Log: log}, sendSock, recvSock).WithMetrics(m)

		metricsAddr := viper.GetString("metrics_addr")
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		go func() {
			log.Info("serving metrics", "addr", metricsAddr)
			if err := http.ListenAndServe(metricsAddr, mux); err != nil {
				log.Error("metrics server stopped", "err", err)
			}
		}()

		helloInterval := viper.GetDuration("hello_interval")
		go func() {
			eui := []byte(viper.GetString("eui"))
			var seed uint32 = 0x9e3779b9
			for i, b := range eui {
				seed ^= uint32(b) << (8 * (i % 4))
			}
			for {
				res := ep.Hello(ctp.Broadcast)
				log.Debug("hello broadcast", "packets", res.PacketsSent)
				time.Sleep(internal.Jitter(helloInterval, &seed))
			}
		}()

		for {
			res := ep.Listen(ctp.Broadcast)
			log.Info("listen", "sender", res.Sender, "is_connect", res.IsConnect)
		}
	},
}
