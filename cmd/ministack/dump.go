package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/gopacket"
	gplayers "github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/spf13/cobra"

	"github.com/ministack/ministack/internal/capture"
	"github.com/ministack/ministack/pkg/layers"
	"github.com/ministack/ministack/pkg/utils"
)

var dumpOpt struct {
	iface     string
	count     int
	writePath string
	promisc   bool
}

var dumpCmd = cobra.Command{
	Use:     "dump",
	Short:   "Dump decoded traffic on an interface",
	Aliases: []string{"d"},
	Args:    cobra.ExactArgs(0),
	Run: func(cmd *cobra.Command, args []string) {
		runDump()
	},
}

func init() {
	dumpCmd.Flags().StringVarP(&dumpOpt.iface, "interface", "i", "", "Interface name")
	dumpCmd.MarkFlagRequired("interface")
	dumpCmd.Flags().IntVarP(&dumpOpt.count, "count", "c", -1, "Exit after count frames, -1 unlimited")
	dumpCmd.Flags().StringVarP(&dumpOpt.writePath, "write", "w", "", "Write raw frames to pcap file")
	dumpCmd.Flags().BoolVarP(&dumpOpt.promisc, "promisc", "p", false, "Enable promiscuous mode")
}

func runDump() {
	var sockOpts []capture.SocketOpt
	if dumpOpt.promisc {
		sockOpts = append(sockOpts, capture.WithPromiscuous())
	}
	sock, err := capture.NewAFPacketSocket(dumpOpt.iface, sockOpts...)
	utils.CheckErrorAndExit(err, "Open packet socket failed")
	defer sock.Close()

	var pcapw *pcapgo.Writer
	if dumpOpt.writePath != "" {
		f, err := os.Create(dumpOpt.writePath)
		utils.CheckErrorAndExit(err, "Create pcap file failed")
		defer f.Close()

		pcapw = pcapgo.NewWriter(f)
		snaplen := uint32(layers.EthernetHeaderLen + layers.EthernetMTU)
		err = pcapw.WriteFileHeader(snaplen, gplayers.LinkTypeEthernet)
		utils.CheckErrorAndExit(err, "Write pcap header failed")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	buf := make([]byte, layers.EthernetHeaderLen+layers.EthernetMTU+layers.EthernetFCSLen)
	captured := 0
loop:
	for dumpOpt.count < 0 || captured < dumpOpt.count {
		select {
		case <-sigCh:
			break loop
		default:
		}

		n, err := sock.ReadFrame(buf)
		utils.CheckErrorAndExit(err, "Read frame failed")
		if n == 0 {
			continue
		}

		now := time.Now()
		fmt.Printf("%s %s\n", layers.FormatDumpTime(now), layers.Format(buf[:n]))

		if pcapw != nil {
			err = pcapw.WritePacket(gopacket.CaptureInfo{
				Timestamp:     now,
				CaptureLength: n,
				Length:        n,
			}, buf[:n])
			utils.CheckErrorAndExit(err, "Write pcap packet failed")
		}
		captured++
	}

	stats := sock.Stats()
	fmt.Printf("\n%d frames captured, %d dropped by kernel\n", captured, stats.RxDropped)
}
