package upnp

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"

	"github.com/basiliscos/syncspirit-go/errs"
)

const (
	wanConnectionDeviceType = "urn:schemas-upnp-org:device:WANConnectionDevice:1"
	wanIPConnectionService  = "urn:schemas-upnp-org:service:WANIPConnection:1"
)

// descRoot mirrors the small slice of the UPnP device-description
// schema this client needs: a tree of nested devices, each carrying
// its own service list.
type descRoot struct {
	XMLName xml.Name `xml:"root"`
	Device  descDevice `xml:"device"`
}

type descDevice struct {
	DeviceType string       `xml:"deviceType"`
	Services   []descService `xml:"serviceList>service"`
	Devices    []descDevice `xml:"deviceList>device"`
}

type descService struct {
	ServiceType string `xml:"serviceType"`
	ControlURL  string `xml:"controlURL"`
	SCPDURL     string `xml:"SCPDURL"`
}

// WANService names the control endpoint for the WAN IP connection
// service located under a WANConnectionDevice.
type WANService struct {
	ControlURL string
	SCPDURL    string
}

// FetchDescription retrieves and parses the device-description
// document at location, returning the WAN IP connection service's
// control URL and SCPD URL.
func (c *Client) FetchDescription(ctx context.Context, location string) (WANService, error) {
	const op = "upnp.FetchDescription"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return WANService{}, errs.New(op, errs.KindXmlParseError, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return WANService{}, errs.New(op, errs.KindXmlParseError, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return WANService{}, errs.New(op, errs.KindXmlParseError, err)
	}

	var root descRoot
	if err := xml.Unmarshal(body, &root); err != nil {
		return WANService{}, errs.New(op, errs.KindXmlParseError, err)
	}

	svc, ok := findWANIPConnection(root.Device)
	if !ok {
		return WANService{}, errs.New(op, errs.KindWanNotFound, fmt.Errorf("no %s under a %s", wanIPConnectionService, wanConnectionDeviceType))
	}
	return svc, nil
}

// findWANIPConnection walks the device tree depth-first looking for a
// WANIPConnection service whose parent device is a WANConnectionDevice.
func findWANIPConnection(d descDevice) (WANService, bool) {
	if d.DeviceType == wanConnectionDeviceType {
		for _, s := range d.Services {
			if s.ServiceType == wanIPConnectionService {
				return WANService{ControlURL: s.ControlURL, SCPDURL: s.SCPDURL}, true
			}
		}
	}
	for _, child := range d.Devices {
		if svc, ok := findWANIPConnection(child); ok {
			return svc, true
		}
	}
	return WANService{}, false
}
