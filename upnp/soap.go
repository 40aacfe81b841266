package upnp

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"

	"github.com/basiliscos/syncspirit-go/errs"
)

const soapEnvelopeTemplate = `<?xml version="1.0"?>
<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/" s:encodingStyle="http://schemas.xmlsoap.org/soap/encoding/">
<s:Body>
<u:%s xmlns:u="%s">
%s
</u:%s>
</s:Body>
</s:Envelope>`

// soapAction performs one SOAP action against controlURL and returns
// the raw response body on success.
func (c *Client) soapAction(ctx context.Context, controlURL, action string, args string) ([]byte, error) {
	const op = "upnp.soapAction"

	envelope := fmt.Sprintf(soapEnvelopeTemplate, action, wanIPConnectionService, args, action)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, controlURL, bytes.NewBufferString(envelope))
	if err != nil {
		return nil, errs.New(op, errs.KindXmlParseError, err)
	}
	req.Header.Set("Content-Type", `text/xml; charset="utf-8"`)
	req.Header.Set("SOAPAction", fmt.Sprintf(`"%s#%s"`, wanIPConnectionService, action))
	req.Header.Set("Connection", "close")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errs.New(op, errs.KindXmlParseError, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, errs.New(op, errs.KindXmlParseError, err)
	}
	return body, nil
}

// GetExternalIPAddress returns the gateway's current external IP.
func (c *Client) GetExternalIPAddress(ctx context.Context, controlURL string) (string, error) {
	const op = "upnp.GetExternalIPAddress"

	body, err := c.soapAction(ctx, controlURL, "GetExternalIPAddress", "")
	if err != nil {
		return "", err
	}

	var envelope struct {
		Body struct {
			Response struct {
				NewExternalIPAddress string `xml:"NewExternalIPAddress"`
			} `xml:"GetExternalIPAddressResponse"`
		} `xml:"Body"`
	}
	if err := xml.Unmarshal(body, &envelope); err != nil {
		return "", errs.New(op, errs.KindXmlParseError, err)
	}
	if envelope.Body.Response.NewExternalIPAddress == "" {
		return "", errs.New(op, errs.KindXmlParseError, fmt.Errorf("response has no NewExternalIPAddress"))
	}
	return envelope.Body.Response.NewExternalIPAddress, nil
}

// PortMapping describes one installed or requested NAT mapping.
type PortMapping struct {
	ExternalPort   int
	InternalPort   int
	InternalClient string
	Protocol       string // "TCP" or "UDP"
	LeaseSeconds   int
}

// AddPortMapping installs m on the gateway.
func (c *Client) AddPortMapping(ctx context.Context, controlURL string, m PortMapping) error {
	const op = "upnp.AddPortMapping"

	args := fmt.Sprintf(
		"<NewRemoteHost></NewRemoteHost>"+
			"<NewExternalPort>%d</NewExternalPort>"+
			"<NewProtocol>%s</NewProtocol>"+
			"<NewInternalPort>%d</NewInternalPort>"+
			"<NewInternalClient>%s</NewInternalClient>"+
			"<NewEnabled>1</NewEnabled>"+
			"<NewPortMappingDescription>syncspirit</NewPortMappingDescription>"+
			"<NewLeaseDuration>%d</NewLeaseDuration>",
		m.ExternalPort, m.Protocol, m.InternalPort, m.InternalClient, m.LeaseSeconds)

	body, err := c.soapAction(ctx, controlURL, "AddPortMapping", args)
	if err != nil {
		return err
	}
	if !bytes.Contains(body, []byte("AddPortMappingResponse")) {
		return errs.New(op, errs.KindXmlParseError, fmt.Errorf("response missing AddPortMappingResponse"))
	}
	return nil
}

// DeletePortMapping removes a previously installed mapping.
func (c *Client) DeletePortMapping(ctx context.Context, controlURL string, externalPort int, protocol string) error {
	const op = "upnp.DeletePortMapping"

	args := fmt.Sprintf(
		"<NewRemoteHost></NewRemoteHost>"+
			"<NewExternalPort>%d</NewExternalPort>"+
			"<NewProtocol>%s</NewProtocol>",
		externalPort, protocol)

	body, err := c.soapAction(ctx, controlURL, "DeletePortMapping", args)
	if err != nil {
		return err
	}
	if !bytes.Contains(body, []byte("DeletePortMappingResponse")) {
		return errs.New(op, errs.KindXmlParseError, fmt.Errorf("response missing DeletePortMappingResponse"))
	}
	return nil
}

// GetSpecificPortMappingEntry checks whether a mapping still exists,
// returning its internal client/port on success.
func (c *Client) GetSpecificPortMappingEntry(ctx context.Context, controlURL string, externalPort int, protocol string) (PortMapping, error) {
	const op = "upnp.GetSpecificPortMappingEntry"

	args := fmt.Sprintf(
		"<NewRemoteHost></NewRemoteHost>"+
			"<NewExternalPort>%d</NewExternalPort>"+
			"<NewProtocol>%s</NewProtocol>",
		externalPort, protocol)

	body, err := c.soapAction(ctx, controlURL, "GetSpecificPortMappingEntry", args)
	if err != nil {
		return PortMapping{}, err
	}

	var envelope struct {
		Body struct {
			Response struct {
				NewInternalPort   int    `xml:"NewInternalPort"`
				NewInternalClient string `xml:"NewInternalClient"`
				NewLeaseDuration  int    `xml:"NewLeaseDuration"`
			} `xml:"GetSpecificPortMappingEntryResponse"`
		} `xml:"Body"`
	}
	if err := xml.Unmarshal(body, &envelope); err != nil {
		return PortMapping{}, errs.New(op, errs.KindXmlParseError, err)
	}
	if envelope.Body.Response.NewInternalClient == "" {
		return PortMapping{}, errs.New(op, errs.KindXmlParseError, fmt.Errorf("mapping not found"))
	}

	return PortMapping{
		ExternalPort:   externalPort,
		InternalPort:   envelope.Body.Response.NewInternalPort,
		InternalClient: envelope.Body.Response.NewInternalClient,
		Protocol:       protocol,
		LeaseSeconds:   envelope.Body.Response.NewLeaseDuration,
	}, nil
}
