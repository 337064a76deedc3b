package main

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/gopacket"
	gplayers "github.com/google/gopacket/layers"
	"github.com/spf13/cobra"
	"github.com/vishvananda/netlink"
	"golang.org/x/time/rate"

	"github.com/ministack/ministack/internal/capture"
	"github.com/ministack/ministack/pkg/layers"
	"github.com/ministack/ministack/pkg/netaddr"
	"github.com/ministack/ministack/pkg/utils"
)

var craftOpt struct {
	iface     string
	srcMAC    netaddr.HwAddr
	dstMAC    netaddr.HwAddr
	srcIP     netaddr.IPv4Addr
	dstIP     netaddr.IPv4Addr
	ttl       uint8
	ipID      uint16
	echoID    uint16
	echoSeq   uint16
	payload   string
	total     int
	rateLimit int
	send      bool
}

var craftCmd = cobra.Command{
	Use:     "craft",
	Short:   "Craft ICMPv4 echo request frames, optionally send them",
	Aliases: []string{"c"},
	Args:    cobra.ExactArgs(0),
	Run: func(cmd *cobra.Command, args []string) {
		runCraft()
	},
}

func init() {
	craftCmd.Flags().SortFlags = false
	craftCmd.Flags().StringVarP(&craftOpt.iface, "interface", "i", "", "Interface name, required for --send")

	// L2
	craftCmd.Flags().Var(&craftOpt.srcMAC, "smac", "Source mac address")
	craftCmd.Flags().Var(&craftOpt.dstMAC, "dmac", "Destination mac address")

	// L3
	craftCmd.Flags().VarP(&craftOpt.srcIP, "source", "s", "Source ip address")
	craftCmd.Flags().VarP(&craftOpt.dstIP, "destination", "d", "Destination ip address")
	craftCmd.MarkFlagRequired("destination")
	craftCmd.Flags().Uint8Var(&craftOpt.ttl, "ttl", 64, "Time to live")
	craftCmd.Flags().Uint16Var(&craftOpt.ipID, "ip-id", 0, "IPv4 identification")

	// ICMP
	craftCmd.Flags().Uint16Var(&craftOpt.echoID, "id", 0, "ICMPv4 echo request id")
	craftCmd.Flags().Uint16Var(&craftOpt.echoSeq, "seq", 0, "ICMPv4 echo request sequence")
	craftCmd.Flags().StringVar(&craftOpt.payload, "payload", "", "ICMPv4 echo payload")

	craftCmd.Flags().BoolVar(&craftOpt.send, "send", false, "Send crafted frames on the interface")
	craftCmd.Flags().IntVarP(&craftOpt.total, "total", "n", 1, "Send frame total")
	craftCmd.Flags().IntVarP(&craftOpt.rateLimit, "rate-limit", "r", -1, "Frame send rate limit (per second), -1 unlimited")
}

func runCraft() {
	if craftOpt.iface != "" {
		err := fillFromLink(craftOpt.iface)
		utils.CheckErrorAndExit(err, "Resolve interface failed")
	}
	if craftOpt.dstMAC.IsZero() {
		craftOpt.dstMAC = netaddr.Broadcast
	}

	data, err := craftEchoFrame(craftOpt.echoSeq)
	utils.CheckErrorAndExit(err, "Craft frame failed")

	pkt := gopacket.NewPacket(data, gplayers.LayerTypeEthernet, gopacket.Default)
	fmt.Println(pkt.String())
	fmt.Printf("FRAME hexdump %d bytes\n%v\n", len(data), hex.Dump(data))

	if !craftOpt.send {
		return
	}
	if craftOpt.iface == "" {
		utils.CheckErrorAndExit(fmt.Errorf("missing --interface"), "Send failed")
	}

	sock, err := capture.NewAFPacketSocket(craftOpt.iface)
	utils.CheckErrorAndExit(err, "Open packet socket failed")
	defer sock.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Println(sig.String())
		cancel()
	}()

	lim := rate.Inf
	if craftOpt.rateLimit > 0 {
		lim = rate.Limit(craftOpt.rateLimit)
	}
	limiter := rate.NewLimiter(lim, 1)

	sent := 0
	for ; sent < craftOpt.total; sent++ {
		if err := limiter.Wait(ctx); err != nil {
			break
		}

		data, err := craftEchoFrame(craftOpt.echoSeq + uint16(sent))
		utils.CheckErrorAndExit(err, "Craft frame failed")
		_, err = sock.WriteFrame(data)
		utils.CheckErrorAndExit(err, "Send frame failed")
	}
	fmt.Printf("%d frames sent on %s\n", sent, craftOpt.iface)
}

func craftEchoFrame(seq uint16) ([]byte, error) {
	echo := make([]byte, 4+len(craftOpt.payload))
	binary.BigEndian.PutUint16(echo[0:2], craftOpt.echoID)
	binary.BigEndian.PutUint16(echo[2:4], seq)
	copy(echo[4:], craftOpt.payload)

	icmp := &layers.ICMPv4{
		Type: layers.ICMPv4TypeEchoRequest,
		Data: echo,
	}
	pkt := &layers.IPv4Packet{
		Header: layers.IPv4Header{
			ID:       craftOpt.ipID,
			Flags:    layers.IPv4FlagDF,
			TTL:      craftOpt.ttl,
			Protocol: layers.IPProtoICMP,
			SrcIP:    craftOpt.srcIP,
			DstIP:    craftOpt.dstIP,
		},
		Payload: icmp.Encode(),
	}
	payload, err := pkt.Encode()
	if err != nil {
		return nil, err
	}

	frame := &layers.EthernetFrame{
		DstMAC:    craftOpt.dstMAC,
		SrcMAC:    craftOpt.srcMAC,
		EtherType: layers.EtherTypeIPv4,
		Payload:   payload,
	}
	return frame.Encode()
}

// fillFromLink fills the unset source mac and ip from the interface.
func fillFromLink(name string) error {
	link, err := netlink.LinkByName(name)
	if err != nil {
		return err
	}

	if craftOpt.srcMAC.IsZero() {
		copy(craftOpt.srcMAC[:], link.Attrs().HardwareAddr)
	}
	if craftOpt.srcIP == 0 {
		addrs, err := netlink.AddrList(link, netlink.FAMILY_V4)
		if err != nil {
			return err
		}
		if len(addrs) > 0 {
			craftOpt.srcIP = netaddr.NewIPv4AddrFromIP(addrs[0].IP)
		}
	}
	return nil
}
