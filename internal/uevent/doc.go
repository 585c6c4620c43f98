// Package uevent holds kernel uevent records and converts them from and to
// their textual form.
//
// A uevent as sent by the kernel over NETLINK_KOBJECT_UEVENT looks like:
//
//	add@/devices/pci0000:00/0000:00:14.0/usb1/1-1\0ACTION=add\0DEVPATH=...\0SUBSYSTEM=usb\0SEQNUM=4711\0
//
// Lines may be separated by NUL or newline. The header "ACTION@DEVPATH" is
// never stored; Record.HeaderLine rebuilds it from the ACTION and DEVPATH
// attributes, so the attribute map is the only source of truth.
//
// A Record is owned by a single goroutine and is not safe for concurrent
// mutation. Records built from independent inputs share no state.
package uevent
