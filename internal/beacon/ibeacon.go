package beacon

import (
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"
)

// AppleCompanyID is the Bluetooth SIG company identifier carried by iBeacons.
const AppleCompanyID = 0x004C

const (
	iBeaconType   = 0x02
	iBeaconLength = 0x15
	iBeaconSize   = 2 + iBeaconLength
)

// Advertisement is a parsed iBeacon manufacturer data payload.
type Advertisement struct {
	UUID    uuid.UUID
	Major   uint16
	Minor   uint16
	TxPower int8
}

// ParseIBeacon parses the manufacturer specific data of an Apple
// advertisement, without the company identifier:
//
//	0x02 0x15 | uuid[16] | major u16 BE | minor u16 BE | tx i8
func ParseIBeacon(data []byte) (Advertisement, error) {
	if len(data) < 2 || data[0] != iBeaconType || data[1] != iBeaconLength {
		return Advertisement{}, ErrNotIBeacon
	}
	if len(data) < iBeaconSize {
		return Advertisement{}, fmt.Errorf("%w: %d bytes", ErrShortFrame, len(data))
	}

	var adv Advertisement
	copy(adv.UUID[:], data[2:18])
	adv.Major = binary.BigEndian.Uint16(data[18:20])
	adv.Minor = binary.BigEndian.Uint16(data[20:22])
	adv.TxPower = int8(data[22])
	return adv, nil
}

// Encode renders the advertisement back into manufacturer data.
func (a Advertisement) Encode() []byte {
	out := make([]byte, iBeaconSize)
	out[0] = iBeaconType
	out[1] = iBeaconLength
	copy(out[2:18], a.UUID[:])
	binary.BigEndian.PutUint16(out[18:20], a.Major)
	binary.BigEndian.PutUint16(out[20:22], a.Minor)
	out[22] = byte(a.TxPower)
	return out
}

// Event combines the advertisement with link-layer details into an Event.
func (a Advertisement) Event(mac string, rssi int) Event {
	return Event{
		MAC:     mac,
		UUID:    a.UUID.String(),
		Major:   a.Major,
		Minor:   a.Minor,
		TxPower: a.TxPower,
		RSSI:    rssi,
	}
}
