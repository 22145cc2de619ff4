package protocol

import (
	"fmt"
	"net"
	"regexp"
	"strings"

	"github.com/lilavd/ambivision/common"
)

// replySignature marks a payload as an AmbiVision discovery reply.  Payloads
// without it are simply not ours, the listening port sees other traffic.
const replySignature = `AmbiVision(`

var replyPattern = regexp.MustCompile(`AmbiVision\((\d+)_(V\.\d+)\)`)

// ParseDiscoveryReply parses one UDP payload as a discovery reply.  src must
// be the datagram's sender address as reported by the transport: the address
// some legacy payload encodings declare inline is unreliable and is ignored.
//
// The second return value reports whether the payload carried the AmbiVision
// signature at all.  A payload without it yields (nil, false, nil), which is
// not an error.  A payload with the signature but an unparseable structure
// yields common.ErrMalformedReply.
func ParseDiscoveryReply(payload []byte, src net.IP) (*common.DiscoveryRecord, bool, error) {
	text := string(payload)
	if !strings.Contains(text, replySignature) {
		return nil, false, nil
	}

	m := replyPattern.FindStringSubmatch(text)
	if m == nil {
		return nil, true, fmt.Errorf("%w: %q", common.ErrMalformedReply, text)
	}

	return &common.DiscoveryRecord{
		DeviceIdentity: common.DeviceIdentity{
			DeviceID:        m[1],
			FirmwareVersion: m[2],
		},
		IP: src,
	}, true, nil
}
