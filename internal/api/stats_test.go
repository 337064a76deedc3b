package api

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/ministack/ministack/internal/dispatch"
	"github.com/ministack/ministack/pkg/netutil"
)

type stubStats struct {
	ifaces []InterfaceStats
}

func (s *stubStats) QueryStats(name string) ([]InterfaceStats, error) {
	if name == "" {
		return s.ifaces, nil
	}
	for _, iface := range s.ifaces {
		if iface.Name == name {
			return []InterfaceStats{iface}, nil
		}
	}
	return nil, errors.Errorf("no such capture interface: %s", name)
}

func newStatsRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	g := gin.New()
	SetStatsRouter(g, &stubStats{
		ifaces: []InterfaceStats{
			{
				Name:   "eth0",
				Link:   netutil.Statistics{RxPackets: 100, RxBytes: 6400},
				Decode: dispatch.DecodeStats{Frames: 100, IPv4Packets: 80, ChecksumMismatches: 2},
			},
			{
				Name: "eth1",
			},
		},
	})
	return g
}

func queryStats(t *testing.T, g *gin.Engine, target string) (int, []byte) {
	w := httptest.NewRecorder()
	g.ServeHTTP(w, httptest.NewRequest("GET", target, nil))
	body, err := io.ReadAll(w.Body)
	assert.NoError(t, err)
	return w.Code, body
}

func TestQueryStats(t *testing.T) {
	g := newStatsRouter()

	code, body := queryStats(t, g, APIPathQueryStats)
	assert.Equal(t, 200, code)

	resp, err := GetBodyData[QueryStatsResp](body)
	assert.NoError(t, err)
	assert.Len(t, resp.Interfaces, 2)
	assert.Equal(t, "eth0", resp.Interfaces[0].Name)
	assert.Equal(t, uint64(100), resp.Interfaces[0].Link.RxPackets)
	assert.Equal(t, uint64(2), resp.Interfaces[0].Decode.ChecksumMismatches)
}

func TestQueryStatsByInterface(t *testing.T) {
	g := newStatsRouter()

	code, body := queryStats(t, g, APIPathQueryStats+"?interface=eth1")
	assert.Equal(t, 200, code)

	resp, err := GetBodyData[QueryStatsResp](body)
	assert.NoError(t, err)
	assert.Len(t, resp.Interfaces, 1)
	assert.Equal(t, "eth1", resp.Interfaces[0].Name)
}

func TestQueryStatsUnknownInterface(t *testing.T) {
	g := newStatsRouter()

	code, body := queryStats(t, g, APIPathQueryStats+"?interface=eth9")
	assert.Equal(t, 500, code)

	_, err := GetBodyData[QueryStatsResp](body)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "eth9")
}
