package web

import (
	"bytes"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelsense/go-kestrel/pkg/driver"
	"github.com/kestrelsense/go-kestrel/pkg/sensor"
)

var testModeTable = []driver.ModeDescriptor{
	{Token: 0x10, Format: driver.RawFormatDepth16, Resolution: driver.RawResolutionQVGA},
	{Token: 0x21, Format: driver.RawFormatRGB888, Resolution: driver.RawResolutionVGA},
}

func newTestServer(t *testing.T, mock *driver.Mock) (*Server, *sensor.Device) {
	t.Helper()
	mgr := sensor.NewManager()
	dev, err := mgr.Open(mock, 1)
	require.NoError(t, err)
	s := NewServer(mgr, "0")
	s.Attach(dev)
	return s, dev
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *http.Response {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.App().Test(req)
	require.NoError(t, err)
	return resp
}

func TestServer_ListDevices(t *testing.T) {
	mock := &driver.Mock{Modes: testModeTable}
	s, dev := newTestServer(t, mock)

	resp := doJSON(t, s, http.MethodGet, "/api/devices", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var devices []DeviceInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&devices))
	require.Len(t, devices, 1)
	assert.Equal(t, dev.Serial(), devices[0].Serial)
	assert.Equal(t, "depth16@320x240", devices[0].Mode)
	assert.False(t, devices[0].Running)
}

func TestServer_ListModes(t *testing.T) {
	mock := &driver.Mock{Modes: testModeTable}
	s, dev := newTestServer(t, mock)

	resp := doJSON(t, s, http.MethodGet, "/api/devices/"+dev.Serial()+"/modes", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var modes []ModeInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&modes))
	require.Len(t, modes, 2)
	assert.Equal(t, "depth16", modes[0].Format)
	assert.Equal(t, 320*240*2, modes[0].FrameSize)
	assert.Equal(t, "rgb888", modes[1].Format)
	assert.Equal(t, 640, modes[1].Width)
}

func TestServer_SetMode(t *testing.T) {
	mock := &driver.Mock{Modes: testModeTable}
	s, dev := newTestServer(t, mock)

	resp := doJSON(t, s, http.MethodPost, "/api/devices/"+dev.Serial()+"/mode",
		ModeRequest{Format: "rgb888", Resolution: "640x480"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "rgb888@640x480", dev.Video().Mode().String())
}

func TestServer_SetModeRejected(t *testing.T) {
	mock := &driver.Mock{Modes: testModeTable}
	s, dev := newTestServer(t, mock)

	// Parseable but not in the device's enumerated list.
	resp := doJSON(t, s, http.MethodPost, "/api/devices/"+dev.Serial()+"/mode",
		ModeRequest{Format: "rgb888", Resolution: "1280x1024"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "depth16@320x240", dev.Video().Mode().String())

	// Not even parseable.
	resp = doJSON(t, s, http.MethodPost, "/api/devices/"+dev.Serial()+"/mode",
		ModeRequest{Format: "yuv422", Resolution: "640x480"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_SetModeDriverFailure(t *testing.T) {
	mock := &driver.Mock{Modes: testModeTable}
	mock.SetVideoModeFunc = func(h driver.Handle, token uint32) driver.Status { return 17 }
	s, dev := newTestServer(t, mock)

	resp := doJSON(t, s, http.MethodPost, "/api/devices/"+dev.Serial()+"/mode",
		ModeRequest{Format: "rgb888", Resolution: "640x480"})
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

	var body ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, int32(17), body.Code)
}

func TestServer_StartStop(t *testing.T) {
	mock := &driver.Mock{Modes: testModeTable}
	s, dev := newTestServer(t, mock)

	resp := doJSON(t, s, http.MethodPost, "/api/devices/"+dev.Serial()+"/start", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, dev.Video().Running())

	resp = doJSON(t, s, http.MethodPost, "/api/devices/"+dev.Serial()+"/stop", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, dev.Video().Running())
}

func TestServer_UnknownDevice(t *testing.T) {
	mock := &driver.Mock{Modes: testModeTable}
	s, _ := newTestServer(t, mock)

	for _, req := range []struct{ method, path string }{
		{http.MethodGet, "/api/devices/nope/modes"},
		{http.MethodPost, "/api/devices/nope/start"},
		{http.MethodPost, "/api/devices/nope/stop"},
		{http.MethodGet, "/api/devices/nope/frame.png"},
	} {
		resp := doJSON(t, s, req.method, req.path, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, req.path)
	}
}

func TestServer_Snapshot(t *testing.T) {
	mock := &driver.Mock{Modes: testModeTable}
	s, dev := newTestServer(t, mock)

	resp := doJSON(t, s, http.MethodGet, "/api/devices/"+dev.Serial()+"/frame.png", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))

	img, err := png.Decode(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, 320, img.Bounds().Dx())
	assert.Equal(t, 240, img.Bounds().Dy())
}
