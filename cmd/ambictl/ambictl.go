// Command ambictl allows performing basic operations on an AmbiVision PRO
// appliance over the LAN
package main

import (
	"bytes"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"

	"github.com/lilavd/ambivision"
	"github.com/lilavd/ambivision/common"
	"github.com/lilavd/ambivision/transport"
)

var (
	client *ambivision.Client
	udp    *transport.UDP

	flagTimeout  time.Duration
	flagSettle   time.Duration
	flagAddress  string
	flagLogLevel string

	logger = logrus.New()
	app    = &cobra.Command{
		Use: `ambictl`,
		PersistentPreRun: func(c *cobra.Command, args []string) {
			setLogger()
		},
	}

	cmdGenerateBashComp = &cobra.Command{
		Use:   `bashcomp <filename>`,
		Short: "generate bash completion at <file>",
		Run:   generateBashComp,
	}

	cmdGenerateDocs = &cobra.Command{
		Use:   `docs <path>`,
		Short: "generate markdown documentation at <path>",
		Run:   generateDocs,
	}
)

func init() {
	ambivision.SetLogger(logger)

	app.PersistentFlags().DurationVarP(&flagTimeout, `timeout`, `t`, 5*time.Second, `timeout waiting for address resolution`)
	app.PersistentFlags().DurationVarP(&flagSettle, `settle`, `s`, common.DefaultSettleTime, `settle time between consecutive commands`)
	app.PersistentFlags().StringVarP(&flagAddress, `address`, `a`, ``, `fallback device address, used until discovery succeeds`)
	app.PersistentFlags().StringVarP(&flagLogLevel, `log-level`, `L`, `info`, `log level, one of: [debug,info,warn,error]`)

	app.AddCommand(cmdPower)
	app.AddCommand(cmdBrightness)
	app.AddCommand(cmdColor)
	app.AddCommand(cmdMode)
	app.AddCommand(cmdSubMode)
	app.AddCommand(cmdDiscover)
	app.AddCommand(cmdWatch)
	app.AddCommand(cmdGenerateBashComp)
	app.AddCommand(cmdGenerateDocs)
}

func main() {
	_ = app.Execute()
}

func setupClient(c *cobra.Command, args []string) {
	udp = transport.NewUDP(func(payload []byte, src net.IP) {
		client.OnDatagramReceived(payload, src)
	})

	var err error
	client, err = ambivision.NewClient(udp)
	if err != nil {
		logger.WithField(`error`, err).Fatalln(`Failed initializing client`)
	}
	client.SetSettleTime(flagSettle)

	if flagAddress != `` {
		ip := net.ParseIP(flagAddress)
		if ip == nil {
			logger.WithField(`address`, flagAddress).Fatalln(`Invalid fallback address`)
		}
		client.SetFallbackAddress(ip)
	}

	go func() {
		if err := udp.Listen(); err != nil {
			logger.WithField(`error`, err).Errorln(`Listener terminated`)
		}
	}()

	if _, err := client.WaitForAddress(flagTimeout); err != nil {
		logger.Warnln(`Device address not resolved, commands will fail until discovery succeeds`)
	}
}

func closeClient(c *cobra.Command, args []string) {
	if err := client.Close(); err != nil {
		logger.WithField(`error`, err).Fatalln(`Failed closing client`)
	}
	_ = udp.Close()
}

func generateBashComp(c *cobra.Command, args []string) {
	if len(args) != 1 {
		_ = c.Usage()
		fmt.Println()
		logger.Fatalln(`Missing filename`)
	}

	buf := new(bytes.Buffer)
	f, err := os.Create(args[0])
	if err != nil {
		logger.WithFields(logrus.Fields{
			`filename`: args[0],
			`error`:    err,
		}).Fatalln(`Could not open file`)
	}
	_ = app.GenBashCompletion(buf)
	_, _ = buf.WriteTo(f)
}

func generateDocs(c *cobra.Command, args []string) {
	if len(args) != 1 {
		_ = c.Usage()
		fmt.Println()
		logger.Fatalln(`Missing output path`)
	}

	path := args[0]
	if path[len(path)-1] != os.PathSeparator {
		path += string(os.PathSeparator)
	}
	_ = doc.GenMarkdownTree(app, path)
}

func setLogger() {
	switch flagLogLevel {
	case `debug`:
		logger.Level = logrus.DebugLevel
	case `info`:
		logger.Level = logrus.InfoLevel
	case `warn`:
		logger.Level = logrus.WarnLevel
	case `error`:
		logger.Level = logrus.ErrorLevel
	default:
		logger.Fatalln(`Unknown log level`)
	}
}
