package main

import (
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/lilavd/ambivision/common"
)

var (
	cmdPower = &cobra.Command{
		Use:     `power <on|off>`,
		Short:   "switch the appliance on or off",
		PreRun:  setupClient,
		PostRun: closeClient,
		Run: func(c *cobra.Command, args []string) {
			if len(args) != 1 || (args[0] != `on` && args[0] != `off`) {
				_ = c.Usage()
				logger.Fatalln(`Expected on or off`)
			}
			report(client.SetPower(args[0] == `on`))
		},
	}

	cmdBrightness = &cobra.Command{
		Use:     `brightness <0-100>`,
		Short:   "set the overall brightness",
		PreRun:  setupClient,
		PostRun: closeClient,
		Run: func(c *cobra.Command, args []string) {
			if len(args) != 1 {
				_ = c.Usage()
				logger.Fatalln(`Missing brightness level`)
			}
			level := parseInt(c, args[0])
			report(client.SetBrightness(level))
		},
	}

	cmdColor = &cobra.Command{
		Use:     `color <hue> <saturation> <level>`,
		Short:   "set a direct color (each component 0-100)",
		PreRun:  setupClient,
		PostRun: closeClient,
		Run: func(c *cobra.Command, args []string) {
			if len(args) != 3 {
				_ = c.Usage()
				logger.Fatalln(`Expected hue, saturation and level`)
			}
			hue := parseInt(c, args[0])
			saturation := parseInt(c, args[1])
			level := parseInt(c, args[2])
			report(client.SetColor(hue, saturation, level))
		},
	}

	cmdMode = &cobra.Command{
		Use:     `mode <Capture|Mood|Audio|Off>`,
		Short:   "select a primary mode",
		PreRun:  setupClient,
		PostRun: closeClient,
		Run: func(c *cobra.Command, args []string) {
			if len(args) != 1 {
				_ = c.Usage()
				logger.Fatalln(`Missing mode name`)
			}
			report(client.SetMode(args[0]))
		},
	}

	cmdSubMode = &cobra.Command{
		Use:     `submode <capture|mood|audio> <name>`,
		Short:   "select a sub-mode within a mode family",
		PreRun:  setupClient,
		PostRun: closeClient,
		Run: func(c *cobra.Command, args []string) {
			if len(args) != 2 {
				_ = c.Usage()
				logger.Fatalln(`Expected a mode family and a sub-mode name`)
			}
			switch args[0] {
			case `capture`:
				report(client.SetCaptureSubMode(args[1]))
			case `mood`:
				report(client.SetMoodSubMode(args[1]))
			case `audio`:
				report(client.SetAudioSubMode(args[1]))
			default:
				_ = c.Usage()
				logger.Fatalln(`Unknown mode family`)
			}
		},
	}

	cmdDiscover = &cobra.Command{
		Use:     `discover`,
		Short:   "broadcast a discovery ping and report the result",
		PreRun:  setupClient,
		PostRun: closeClient,
		Run: func(c *cobra.Command, args []string) {
			if err := client.Discover(); err != nil {
				logger.WithField(`error`, err).Fatalln(`Discovery failed`)
			}
			if _, err := client.WaitForAddress(flagTimeout); err != nil {
				logger.Fatalln(`No discovery reply received`)
			}
			printAttributes(client.Attributes())
		},
	}

	cmdWatch = &cobra.Command{
		Use:     `watch`,
		Short:   "watch discovery and state events until interrupted",
		PreRun:  setupClient,
		PostRun: closeClient,
		Run:     watch,
	}
)

func watch(c *cobra.Command, args []string) {
	sub, err := client.NewSubscription()
	if err != nil {
		logger.WithField(`error`, err).Fatalln(`Failed subscribing to client events`)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	g := new(errgroup.Group)
	g.Go(func() error {
		for event := range sub.Events() {
			switch e := event.(type) {
			case common.EventDiscovered:
				fmt.Printf("discovered device=%s firmware=%s ip=%s\n", e.Record.DeviceID, e.Record.FirmwareVersion, e.Record.IP)
			case common.EventAddressUpdated:
				fmt.Printf("address updated ip=%s\n", e.Record.IP)
			case common.EventStateAsserted:
				fmt.Printf("state asserted mode=%s subMode=%s color=%s\n", e.State.Mode, e.State.SubMode, e.State.Color.Hex())
			}
		}
		return nil
	})
	g.Go(func() error {
		<-sigChan
		return sub.Close()
	})
	_ = g.Wait()
}

func report(attrs common.Attributes, err error) {
	if err != nil {
		logger.WithField(`error`, err).Fatalln(`Operation failed`)
	}
	printAttributes(attrs)
}

func printAttributes(attrs common.Attributes) {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("%s=%s\n", k, attrs[k])
	}
}

func parseInt(c *cobra.Command, arg string) int {
	v, err := strconv.Atoi(arg)
	if err != nil {
		_ = c.Usage()
		logger.Fatalln(`Expected a number`)
	}
	return v
}
