package main

import (
	"fmt"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/ministack/ministack/internal/api"
	"github.com/ministack/ministack/internal/dispatch"
	"github.com/ministack/ministack/pkg/humanize"
	"github.com/ministack/ministack/pkg/netutil"
	"github.com/ministack/ministack/pkg/utils"
)

const defaultAPIAddr = "http://127.0.0.1:9921"

var statsOpt struct {
	addr     string
	iface    string
	interval time.Duration
}

var statsCmd = cobra.Command{
	Use:     "stats",
	Short:   "Show capture and decode statistics from ministackd",
	Aliases: []string{"s"},
	Args:    cobra.ExactArgs(0),
	Run: func(cmd *cobra.Command, args []string) {
		runStats()
	},
}

func init() {
	statsCmd.Flags().StringVar(&statsOpt.addr, "addr", defaultAPIAddr, "ministackd api address")
	statsCmd.Flags().StringVarP(&statsOpt.iface, "interface", "i", "", "Only show this interface")
	statsCmd.Flags().DurationVarP(&statsOpt.interval, "interval", "d", 0, "Redisplay stats every interval, 0 once")
}

func runStats() {
	prev := make(map[string]netutil.Statistics)
	for {
		reqOpts := []utils.ReqOpt{utils.WithReqAddr(statsOpt.addr)}
		if statsOpt.iface != "" {
			reqOpts = append(reqOpts, utils.WithReqQueryKV("interface", statsOpt.iface))
		}
		resp, err := utils.NewHTTPRequestMessage(api.APIPathQueryStats, api.GetBodyData[api.QueryStatsResp], reqOpts...)
		utils.CheckErrorAndExit(err, "Query stats failed")

		displayStats(resp.Interfaces, prev)
		if statsOpt.interval <= 0 {
			break
		}
		time.Sleep(statsOpt.interval)
	}
}

func decodeErrors(d dispatch.DecodeStats) uint64 {
	return d.TruncatedFrames + d.FCSMismatches + d.TruncatedPackets +
		d.UnsupportedVersions + d.MalformedHeaders + d.ChecksumMismatches
}

func displayStats(ifaces []api.InterfaceStats, prev map[string]netutil.Statistics) {
	tbl := tablewriter.NewTable(os.Stdout,
		tablewriter.WithRenderer(renderer.NewBlueprint(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Separators: tw.SeparatorsNone,
			},
		})),
		tablewriter.WithRowAlignment(tw.AlignCenter),
	)
	tbl.Header([]string{
		"interface", "rx_pkts", "rx_pps", "rx_bytes", "rx_bps", "rx_dropped",
		"ipv4", "icmp", "decode_err",
	})

	for _, iface := range ifaces {
		stat := iface.Link
		rateVal := stat.Rate(prev[iface.Name])
		prev[iface.Name] = stat

		tbl.Append([]string{
			iface.Name,
			fmt.Sprintf("%d", stat.RxPackets),
			fmt.Sprintf("%.0f", rateVal.RxPPS),
			humanize.Bytes(int(stat.RxBytes)),
			humanize.BitsRate(int(rateVal.RxBPS)),
			fmt.Sprintf("%d", stat.RxDropped),
			fmt.Sprintf("%d", iface.Decode.IPv4Packets),
			fmt.Sprintf("%d", iface.Decode.ICMPv4Messages),
			fmt.Sprintf("%d", decodeErrors(iface.Decode)),
		})
	}
	tbl.Render()
	fmt.Println()
}
