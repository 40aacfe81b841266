// Package errs defines the closed error taxonomy shared by the wire
// codec, identity, discovery and UPnP layers. Their encode, parse and
// protocol operations return either a nil error or an *errs.Error so
// callers can switch on Kind without depending on message text; a few
// setup helpers (localdiscovery.NewAnnouncer, globaldiscovery's Cache.Save)
// return plain wrapped errors instead.
package errs

import (
	"errors"
	"fmt"
)

// Kind is a stable, closed category code. Values never change meaning
// once released; new categories are appended, never inserted.
type Kind int

const (
	KindUnknown Kind = iota

	// Generic
	KindCantDetermineConfigDir
	KindTransportNotAvailable
	KindTimedOut
	KindServiceNotAvailable
	KindAlreadyConnected
	KindConnectionImpossible
	KindPeerHasBeenRemoved

	// TLS / crypto
	KindTLSContextInitFailure
	KindTLSParamInitFailure
	KindTLSParamGenFailure
	KindTLSKeyGenInitFailure
	KindTLSKeyGenFailure
	KindTLSEcCurveFailure
	KindTLSEcGroupFailure
	KindTLSCertSetFailure
	KindTLSCertExtFailure
	KindTLSCertSignFailure
	KindTLSCertSaveFailure
	KindTLSCertLoadFailure
	KindTLSKeySaveFailure
	KindTLSKeyLoadFailure
	KindTLSSha256InitFailure
	KindTLSSha256Failure
	KindTLSCnMissing

	// Encoding
	KindBase32DecodingFailure
	KindInvalidDeviceId

	// Discovery (HTTP/JSON)
	KindUnexpectedResponseCode
	KindNegativeReannounceInterval
	KindMalformedJson
	KindIncorrectJson
	KindMalformedUrl
	KindMalformedDate

	// UPnP
	KindIncompleteDiscoveryReply
	KindNoLocation
	KindNoSt
	KindNoUsn
	KindIgdMismatch
	KindXmlParseError
	KindWanNotFound

	// Frame codec
	KindProtobufErr
	KindUnexpectedMessage
	KindUnexpectedResponse
	KindLz4Decoding
	KindWrongMagic

	// Protocol
	KindUnknownFolder
	KindDigestMismatch

	// Request
	KindNoSuchFile
	KindInvalidFile
	KindGeneric
)

var kindNames = map[Kind]string{
	KindUnknown:                    "unknown",
	KindCantDetermineConfigDir:     "cant_determine_config_dir",
	KindTransportNotAvailable:      "transport_not_available",
	KindTimedOut:                   "timed_out",
	KindServiceNotAvailable:        "service_not_available",
	KindAlreadyConnected:           "already_connected",
	KindConnectionImpossible:       "connection_impossible",
	KindPeerHasBeenRemoved:         "peer_has_been_removed",
	KindTLSContextInitFailure:      "tls_context_init_failure",
	KindTLSParamInitFailure:        "tls_param_init_failure",
	KindTLSParamGenFailure:         "tls_param_gen_failure",
	KindTLSKeyGenInitFailure:       "tls_keygen_init_failure",
	KindTLSKeyGenFailure:           "tls_keygen_failure",
	KindTLSEcCurveFailure:          "tls_ec_curve_failure",
	KindTLSEcGroupFailure:          "tls_ec_group_failure",
	KindTLSCertSetFailure:          "tls_cert_set_failure",
	KindTLSCertExtFailure:          "tls_cert_ext_failure",
	KindTLSCertSignFailure:         "tls_cert_sign_failure",
	KindTLSCertSaveFailure:         "tls_cert_save_failure",
	KindTLSCertLoadFailure:         "tls_cert_load_failure",
	KindTLSKeySaveFailure:          "tls_key_save_failure",
	KindTLSKeyLoadFailure:          "tls_key_load_failure",
	KindTLSSha256InitFailure:       "tls_sha256_init_failure",
	KindTLSSha256Failure:           "tls_sha256_failure",
	KindTLSCnMissing:               "tls_cn_missing",
	KindBase32DecodingFailure:      "base32_decoding_failure",
	KindInvalidDeviceId:            "invalid_device_id",
	KindUnexpectedResponseCode:     "unexpected_response_code",
	KindNegativeReannounceInterval: "negative_reannounce_interval",
	KindMalformedJson:              "malformed_json",
	KindIncorrectJson:              "incorrect_json",
	KindMalformedUrl:               "malformed_url",
	KindMalformedDate:              "malformed_date",
	KindIncompleteDiscoveryReply:   "incomplete_discovery_reply",
	KindNoLocation:                 "no_location",
	KindNoSt:                       "no_st",
	KindNoUsn:                      "no_usn",
	KindIgdMismatch:                "igd_mismatch",
	KindXmlParseError:              "xml_parse_error",
	KindWanNotFound:                "wan_not_found",
	KindProtobufErr:                "protobuf_err",
	KindUnexpectedMessage:          "unexpected_message",
	KindUnexpectedResponse:         "unexpected_response",
	KindLz4Decoding:                "lz4_decoding",
	KindWrongMagic:                 "wrong_magic",
	KindUnknownFolder:              "unknown_folder",
	KindDigestMismatch:             "digest_mismatch",
	KindNoSuchFile:                 "no_such_file",
	KindInvalidFile:                "invalid_file",
	KindGeneric:                    "generic",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Error is the concrete error type returned by this module's public
// operations. Op names the failing operation (e.g. "base32enc.Decode",
// "upnp.AddPortMapping"); Err is the underlying cause, if any.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error with the same Kind. This lets
// callers write errors.Is(err, &errs.Error{Kind: errs.KindTimedOut})
// without caring about Op or the wrapped cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New builds an *Error for the given operation and kind, wrapping cause
// (which may be nil).
func New(op string, kind Kind, cause error) *Error {
	return &Error{Kind: kind, Op: op, Err: cause}
}

// Sentinel returns a bare Error of the given Kind, suitable for use with
// errors.Is(err, errs.Sentinel(KindTimedOut)).
func Sentinel(kind Kind) *Error {
	return &Error{Kind: kind}
}

// KindOf extracts the Kind from err if it (or something it wraps) is an
// *Error, else returns KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
