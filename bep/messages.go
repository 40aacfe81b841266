package bep

import (
	"fmt"

	"github.com/basiliscos/syncspirit-go/bep/wire"
	"github.com/basiliscos/syncspirit-go/errs"
)

// MessageType tags a frame's payload. Hello is reserved: it never
// appears as a non-magic frame, since the hello handshake uses its own
// magic-prefixed wire form instead of the header+body framing the
// other eight variants share.
type MessageType int32

const (
	TypeClusterConfig    MessageType = 0
	TypeIndex            MessageType = 1
	TypeIndexUpdate       MessageType = 2
	TypeRequest           MessageType = 3
	TypeResponse          MessageType = 4
	TypeDownloadProgress  MessageType = 5
	TypePing              MessageType = 6
	TypeClose             MessageType = 7
	TypeHello             MessageType = 100
)

// Message is implemented by every frame payload variant.
type Message interface {
	bepType() MessageType
	marshal() []byte
}

// Hello is the first frame exchanged on a new connection, carried in
// the magic-prefixed form rather than the header+body form the other
// variants use.
type Hello struct {
	DeviceName    string
	ClientName    string
	ClientVersion string
}

func (Hello) bepType() MessageType { return TypeHello }

func (h Hello) marshal() []byte {
	var w wire.Writer
	w.String(1, h.DeviceName)
	w.String(2, h.ClientName)
	w.String(3, h.ClientVersion)
	return w.Bytes()
}

func unmarshalHello(data []byte) (*Hello, error) {
	h := &Hello{}
	r := wire.NewReader(data)
	for !r.Done() {
		field, wt, err := r.Tag()
		if err != nil {
			return nil, err
		}
		switch field {
		case 1:
			b, err := r.LengthDelimited()
			if err != nil {
				return nil, err
			}
			h.DeviceName = string(b)
		case 2:
			b, err := r.LengthDelimited()
			if err != nil {
				return nil, err
			}
			h.ClientName = string(b)
		case 3:
			b, err := r.LengthDelimited()
			if err != nil {
				return nil, err
			}
			h.ClientVersion = string(b)
		default:
			if err := r.Skip(wt); err != nil {
				return nil, err
			}
		}
	}
	return h, nil
}

// Device is one peer entry inside a Folder of a ClusterConfig.
type Device struct {
	ID        [32]byte
	Name      string
	Addresses []string
}

func (d Device) marshal() []byte {
	var w wire.Writer
	w.BytesField(1, d.ID[:])
	w.String(2, d.Name)
	for _, addr := range d.Addresses {
		w.String(3, addr)
	}
	return w.Bytes()
}

func unmarshalDevice(data []byte) (Device, error) {
	var d Device
	r := wire.NewReader(data)
	for !r.Done() {
		field, wt, err := r.Tag()
		if err != nil {
			return Device{}, err
		}
		switch field {
		case 1:
			b, err := r.LengthDelimited()
			if err != nil {
				return Device{}, err
			}
			if len(b) != 32 {
				return Device{}, fmt.Errorf("device id must be 32 bytes, got %d", len(b))
			}
			copy(d.ID[:], b)
		case 2:
			b, err := r.LengthDelimited()
			if err != nil {
				return Device{}, err
			}
			d.Name = string(b)
		case 3:
			b, err := r.LengthDelimited()
			if err != nil {
				return Device{}, err
			}
			d.Addresses = append(d.Addresses, string(b))
		default:
			if err := r.Skip(wt); err != nil {
				return Device{}, err
			}
		}
	}
	return d, nil
}

// Folder is one shared directory advertised in a ClusterConfig.
type Folder struct {
	ID      string
	Label   string
	Devices []Device
}

func (f Folder) marshal() []byte {
	var w wire.Writer
	w.String(1, f.ID)
	w.String(2, f.Label)
	for _, d := range f.Devices {
		w.Message(3, d.marshal())
	}
	return w.Bytes()
}

func unmarshalFolder(data []byte) (Folder, error) {
	var f Folder
	r := wire.NewReader(data)
	for !r.Done() {
		field, wt, err := r.Tag()
		if err != nil {
			return Folder{}, err
		}
		switch field {
		case 1:
			b, err := r.LengthDelimited()
			if err != nil {
				return Folder{}, err
			}
			f.ID = string(b)
		case 2:
			b, err := r.LengthDelimited()
			if err != nil {
				return Folder{}, err
			}
			f.Label = string(b)
		case 3:
			b, err := r.LengthDelimited()
			if err != nil {
				return Folder{}, err
			}
			d, err := unmarshalDevice(b)
			if err != nil {
				return Folder{}, err
			}
			f.Devices = append(f.Devices, d)
		default:
			if err := r.Skip(wt); err != nil {
				return Folder{}, err
			}
		}
	}
	return f, nil
}

// ClusterConfig announces the set of shared folders and their devices.
type ClusterConfig struct {
	Folders []Folder
}

func (ClusterConfig) bepType() MessageType { return TypeClusterConfig }

func (c ClusterConfig) marshal() []byte {
	var w wire.Writer
	for _, f := range c.Folders {
		w.Message(1, f.marshal())
	}
	return w.Bytes()
}

func unmarshalClusterConfig(data []byte) (*ClusterConfig, error) {
	c := &ClusterConfig{}
	r := wire.NewReader(data)
	for !r.Done() {
		field, wt, err := r.Tag()
		if err != nil {
			return nil, err
		}
		switch field {
		case 1:
			b, err := r.LengthDelimited()
			if err != nil {
				return nil, err
			}
			f, err := unmarshalFolder(b)
			if err != nil {
				return nil, err
			}
			c.Folders = append(c.Folders, f)
		default:
			if err := r.Skip(wt); err != nil {
				return nil, err
			}
		}
	}
	return c, nil
}

// FileInfo is one file entry carried in an Index or IndexUpdate.
type FileInfo struct {
	Name       string
	Size       int64
	ModifiedS  int64
	Deleted    bool
}

func (f FileInfo) marshal() []byte {
	var w wire.Writer
	w.String(1, f.Name)
	w.Int64(2, f.Size)
	w.Int64(3, f.ModifiedS)
	w.Bool(4, f.Deleted)
	return w.Bytes()
}

func unmarshalFileInfo(data []byte) (FileInfo, error) {
	var f FileInfo
	r := wire.NewReader(data)
	for !r.Done() {
		field, wt, err := r.Tag()
		if err != nil {
			return FileInfo{}, err
		}
		switch field {
		case 1:
			b, err := r.LengthDelimited()
			if err != nil {
				return FileInfo{}, err
			}
			f.Name = string(b)
		case 2:
			v, err := r.Varint()
			if err != nil {
				return FileInfo{}, err
			}
			f.Size = int64(v)
		case 3:
			v, err := r.Varint()
			if err != nil {
				return FileInfo{}, err
			}
			f.ModifiedS = int64(v)
		case 4:
			v, err := r.Varint()
			if err != nil {
				return FileInfo{}, err
			}
			f.Deleted = v != 0
		default:
			if err := r.Skip(wt); err != nil {
				return FileInfo{}, err
			}
		}
	}
	return f, nil
}

// Index is the full file list for one folder.
type Index struct {
	Folder string
	Files  []FileInfo
}

func (Index) bepType() MessageType { return TypeIndex }

func (i Index) marshal() []byte {
	var w wire.Writer
	w.String(1, i.Folder)
	for _, f := range i.Files {
		w.Message(2, f.marshal())
	}
	return w.Bytes()
}

func unmarshalIndex(data []byte) (*Index, error) {
	i := &Index{}
	r := wire.NewReader(data)
	for !r.Done() {
		field, wt, err := r.Tag()
		if err != nil {
			return nil, err
		}
		switch field {
		case 1:
			b, err := r.LengthDelimited()
			if err != nil {
				return nil, err
			}
			i.Folder = string(b)
		case 2:
			b, err := r.LengthDelimited()
			if err != nil {
				return nil, err
			}
			fi, err := unmarshalFileInfo(b)
			if err != nil {
				return nil, err
			}
			i.Files = append(i.Files, fi)
		default:
			if err := r.Skip(wt); err != nil {
				return nil, err
			}
		}
	}
	return i, nil
}

// IndexUpdate is an incremental update to a previously sent Index.
type IndexUpdate struct {
	Folder string
	Files  []FileInfo
}

func (IndexUpdate) bepType() MessageType { return TypeIndexUpdate }

func (i IndexUpdate) marshal() []byte {
	var w wire.Writer
	w.String(1, i.Folder)
	for _, f := range i.Files {
		w.Message(2, f.marshal())
	}
	return w.Bytes()
}

func unmarshalIndexUpdate(data []byte) (*IndexUpdate, error) {
	idx, err := unmarshalIndex(data)
	if err != nil {
		return nil, err
	}
	return &IndexUpdate{Folder: idx.Folder, Files: idx.Files}, nil
}

// Request asks a peer for a block of file data.
type Request struct {
	ID     int32
	Folder string
	Name   string
	Offset int64
	Size   int32
}

func (Request) bepType() MessageType { return TypeRequest }

func (req Request) marshal() []byte {
	var w wire.Writer
	w.Int32(1, req.ID)
	w.String(2, req.Folder)
	w.String(3, req.Name)
	w.Int64(4, req.Offset)
	w.Int32(5, req.Size)
	return w.Bytes()
}

func unmarshalRequest(data []byte) (*Request, error) {
	req := &Request{}
	r := wire.NewReader(data)
	for !r.Done() {
		field, wt, err := r.Tag()
		if err != nil {
			return nil, err
		}
		switch field {
		case 1:
			v, err := r.Varint()
			if err != nil {
				return nil, err
			}
			req.ID = int32(v)
		case 2:
			b, err := r.LengthDelimited()
			if err != nil {
				return nil, err
			}
			req.Folder = string(b)
		case 3:
			b, err := r.LengthDelimited()
			if err != nil {
				return nil, err
			}
			req.Name = string(b)
		case 4:
			v, err := r.Varint()
			if err != nil {
				return nil, err
			}
			req.Offset = int64(v)
		case 5:
			v, err := r.Varint()
			if err != nil {
				return nil, err
			}
			req.Size = int32(v)
		default:
			if err := r.Skip(wt); err != nil {
				return nil, err
			}
		}
	}
	return req, nil
}

// ResponseCode reports the outcome of a Request.
type ResponseCode int32

const (
	CodeNoError ResponseCode = 0
	CodeNoSuchFile ResponseCode = 1
	CodeInvalidFile ResponseCode = 2
	CodeGeneric ResponseCode = 3
)

// Response carries the requested block of data (or an error code).
type Response struct {
	ID   int32
	Data []byte
	Code ResponseCode
}

func (Response) bepType() MessageType { return TypeResponse }

func (resp Response) marshal() []byte {
	var w wire.Writer
	w.Int32(1, resp.ID)
	w.BytesField(2, resp.Data)
	w.Int32(3, int32(resp.Code))
	return w.Bytes()
}

func unmarshalResponse(data []byte) (*Response, error) {
	resp := &Response{}
	r := wire.NewReader(data)
	for !r.Done() {
		field, wt, err := r.Tag()
		if err != nil {
			return nil, err
		}
		switch field {
		case 1:
			v, err := r.Varint()
			if err != nil {
				return nil, err
			}
			resp.ID = int32(v)
		case 2:
			b, err := r.LengthDelimited()
			if err != nil {
				return nil, err
			}
			resp.Data = append([]byte(nil), b...)
		case 3:
			v, err := r.Varint()
			if err != nil {
				return nil, err
			}
			resp.Code = ResponseCode(v)
		default:
			if err := r.Skip(wt); err != nil {
				return nil, err
			}
		}
	}
	return resp, nil
}

// FileProgress reports how much of one in-flight file has been pulled.
type FileProgress struct {
	Name       string
	PulledSize int64
}

func (p FileProgress) marshal() []byte {
	var w wire.Writer
	w.String(1, p.Name)
	w.Int64(2, p.PulledSize)
	return w.Bytes()
}

func unmarshalFileProgress(data []byte) (FileProgress, error) {
	var p FileProgress
	r := wire.NewReader(data)
	for !r.Done() {
		field, wt, err := r.Tag()
		if err != nil {
			return FileProgress{}, err
		}
		switch field {
		case 1:
			b, err := r.LengthDelimited()
			if err != nil {
				return FileProgress{}, err
			}
			p.Name = string(b)
		case 2:
			v, err := r.Varint()
			if err != nil {
				return FileProgress{}, err
			}
			p.PulledSize = int64(v)
		default:
			if err := r.Skip(wt); err != nil {
				return FileProgress{}, err
			}
		}
	}
	return p, nil
}

// DownloadProgress reports in-flight block pulls for one folder.
type DownloadProgress struct {
	Folder  string
	Updates []FileProgress
}

func (DownloadProgress) bepType() MessageType { return TypeDownloadProgress }

func (d DownloadProgress) marshal() []byte {
	var w wire.Writer
	w.String(1, d.Folder)
	for _, u := range d.Updates {
		w.Message(2, u.marshal())
	}
	return w.Bytes()
}

func unmarshalDownloadProgress(data []byte) (*DownloadProgress, error) {
	d := &DownloadProgress{}
	r := wire.NewReader(data)
	for !r.Done() {
		field, wt, err := r.Tag()
		if err != nil {
			return nil, err
		}
		switch field {
		case 1:
			b, err := r.LengthDelimited()
			if err != nil {
				return nil, err
			}
			d.Folder = string(b)
		case 2:
			b, err := r.LengthDelimited()
			if err != nil {
				return nil, err
			}
			u, err := unmarshalFileProgress(b)
			if err != nil {
				return nil, err
			}
			d.Updates = append(d.Updates, u)
		default:
			if err := r.Skip(wt); err != nil {
				return nil, err
			}
		}
	}
	return d, nil
}

// Ping is a keepalive with no payload.
type Ping struct{}

func (Ping) bepType() MessageType { return TypePing }
func (Ping) marshal() []byte      { return nil }

func unmarshalPing(data []byte) (*Ping, error) {
	r := wire.NewReader(data)
	for !r.Done() {
		_, wt, err := r.Tag()
		if err != nil {
			return nil, err
		}
		if err := r.Skip(wt); err != nil {
			return nil, err
		}
	}
	return &Ping{}, nil
}

// Close tells the peer the connection is ending and why.
type Close struct {
	Reason string
}

func (Close) bepType() MessageType { return TypeClose }

func (c Close) marshal() []byte {
	var w wire.Writer
	w.String(1, c.Reason)
	return w.Bytes()
}

func unmarshalClose(data []byte) (*Close, error) {
	c := &Close{}
	r := wire.NewReader(data)
	for !r.Done() {
		field, wt, err := r.Tag()
		if err != nil {
			return nil, err
		}
		switch field {
		case 1:
			b, err := r.LengthDelimited()
			if err != nil {
				return nil, err
			}
			c.Reason = string(b)
		default:
			if err := r.Skip(wt); err != nil {
				return nil, err
			}
		}
	}
	return c, nil
}

// unmarshalByType dispatches to the right variant's decoder by tag,
// wrapping any field-level decode failure as KindProtobufErr and any
// unrecognized tag as KindUnexpectedMessage.
func unmarshalByType(t MessageType, data []byte) (Message, error) {
	const op = "bep.unmarshalByType"

	var (
		msg Message
		err error
	)
	switch t {
	case TypeClusterConfig:
		msg, err = unmarshalClusterConfig(data)
	case TypeIndex:
		msg, err = unmarshalIndex(data)
	case TypeIndexUpdate:
		msg, err = unmarshalIndexUpdate(data)
	case TypeRequest:
		msg, err = unmarshalRequest(data)
	case TypeResponse:
		msg, err = unmarshalResponse(data)
	case TypeDownloadProgress:
		msg, err = unmarshalDownloadProgress(data)
	case TypePing:
		msg, err = unmarshalPing(data)
	case TypeClose:
		msg, err = unmarshalClose(data)
	default:
		return nil, errs.New(op, errs.KindUnexpectedMessage, fmt.Errorf("unknown message type %d", t))
	}
	if err != nil {
		return nil, errs.New(op, errs.KindProtobufErr, err)
	}
	return msg, nil
}
