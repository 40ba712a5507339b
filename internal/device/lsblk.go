package device

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"coldstar/internal/model"
)

// lsblk -J output shape, only the columns we ask for.
type lsblkOutput struct {
	BlockDevices []lsblkDevice `json:"blockdevices"`
}

type lsblkDevice struct {
	Name       string        `json:"name"`
	Size       string        `json:"size"`
	Type       string        `json:"type"`
	Removable  bool          `json:"rm"`
	Label      string        `json:"label"`
	Mountpoint string        `json:"mountpoint"`
	Children   []lsblkDevice `json:"children"`
}

// LsblkLister lists removable devices via lsblk.
type LsblkLister struct{}

func (LsblkLister) List() ([]model.Device, error) {
	out, err := exec.Command("lsblk", "-J", "-o", "NAME,SIZE,TYPE,RM,LABEL,MOUNTPOINT").Output()
	if err != nil {
		return nil, fmt.Errorf("lsblk: %w", err)
	}
	return parseLsblk(out)
}

func parseLsblk(raw []byte) ([]model.Device, error) {
	var parsed lsblkOutput
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse lsblk output: %w", err)
	}

	var devices []model.Device
	for _, disk := range parsed.BlockDevices {
		if disk.Type != "disk" || !disk.Removable {
			continue
		}
		// Prefer the first partition; fall back to the whole disk when the
		// stick is unpartitioned.
		candidate := disk
		for _, child := range disk.Children {
			if child.Type == "part" {
				candidate = child
				if disk.Label != "" && candidate.Label == "" {
					candidate.Label = disk.Label
				}
				break
			}
		}
		devices = append(devices, model.Device{
			ID:         "/dev/" + candidate.Name,
			Label:      candidate.Label,
			Size:       candidate.Size,
			Mountpoint: candidate.Mountpoint,
		})
	}
	return devices, nil
}

// ExecMounter mounts devices with the mount(8) command under a private
// directory tree. Requires the process to run with enough privilege to
// mount, same as any manual workflow on the signing host.
type ExecMounter struct {
	// BaseDir is where per-device mountpoints are created. Defaults to the
	// system temp directory.
	BaseDir string
}

func (m ExecMounter) Mount(id string) (string, error) {
	base := m.BaseDir
	if base == "" {
		base = os.TempDir()
	}
	mountpoint := filepath.Join(base, "coldstar-"+strings.TrimPrefix(filepath.Base(id), "/"))
	if err := os.MkdirAll(mountpoint, 0o700); err != nil {
		return "", fmt.Errorf("create mountpoint: %w", err)
	}
	if out, err := exec.Command("mount", id, mountpoint).CombinedOutput(); err != nil {
		return "", fmt.Errorf("mount %s: %v: %s", id, err, strings.TrimSpace(string(out)))
	}
	return mountpoint, nil
}

func (m ExecMounter) Unmount(mountpoint string) error {
	if out, err := exec.Command("umount", mountpoint).CombinedOutput(); err != nil {
		return fmt.Errorf("umount %s: %v: %s", mountpoint, err, strings.TrimSpace(string(out)))
	}
	return nil
}
