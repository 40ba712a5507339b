package model

// Device is a removable block-device candidate. The list is ephemeral:
// rebuilt from scratch on every poll cycle, never persisted.
type Device struct {
	ID         string // kernel device node, e.g. /dev/sdb1
	Label      string
	Size       string
	Mountpoint string // empty until mounted
}
