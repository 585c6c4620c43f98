package usb

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mniyk/uevent-monitoring-tools/internal/uevent"
)

// USBデバイスの識別情報
type Device struct {
	VendorID   string
	ProductID  string
	BCDDevice  string
	DeviceType string
	Serial     string
}

// PRODUCT 属性（"vid/pid/bcd"、16進数）からUSBデバイスの識別情報を取得
func parseDevice(record *uevent.Record) (Device, bool) {
	if record.Attribute(uevent.ATTR_SUBSYSTEM) != "usb" || !record.HasAttribute("PRODUCT") {
		return Device{}, false
	}

	fields := strings.Split(record.Attribute("PRODUCT"), "/")
	if len(fields) != 3 {
		return Device{}, false
	}

	ids := make([]string, len(fields))
	for i, field := range fields {
		v, err := strconv.ParseUint(field, 16, 16)
		if err != nil {
			return Device{}, false
		}
		ids[i] = fmt.Sprintf("%04x", v)
	}

	return Device{
		VendorID:   ids[0],
		ProductID:  ids[1],
		BCDDevice:  ids[2],
		DeviceType: record.Attribute("DEVTYPE"),
		Serial:     record.Attribute("ID_SERIAL_SHORT"),
	}, true
}
