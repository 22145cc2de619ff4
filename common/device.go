package common

import "net"

// DeviceIdentity is the stable identity the appliance declares in its
// discovery replies.  Overwritten wholesale by each newer reply.
type DeviceIdentity struct {
	DeviceID        string
	FirmwareVersion string
}

// DiscoveryRecord is the result of parsing one discovery reply.  IP is the
// datagram's sender address as reported by the transport, never an address
// parsed out of the payload.
type DiscoveryRecord struct {
	DeviceIdentity
	IP net.IP
}

// Attributes is the set of state attributes a host platform publishes after
// a successful operation
type Attributes map[string]string

// Attribute keys published to the host platform
const (
	AttrDeviceID        = `deviceId`
	AttrFirmwareVersion = `firmwareVersion`
	AttrIPAddress       = `ipAddress`
	AttrMode            = `mode`
	AttrSubMode         = `subMode`
	AttrSwitch          = `switch`
	AttrLevel           = `level`
	AttrHue             = `hue`
	AttrSaturation      = `saturation`
	AttrColor           = `color`
)
