// Package device tracks the removable device that carries the wallet files.
// Discovery and mounting shell out to host tools behind small interfaces so
// the session logic stays testable.
package device

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"coldstar/internal/model"
)

// Wallet file layout on a mounted device.
const (
	PubkeyRelPath    = "wallet/pubkey.txt"
	ContainerRelPath = "wallet/keypair.json"
)

// Lister enumerates removable block devices.
type Lister interface {
	List() ([]model.Device, error)
}

// Mounter mounts and unmounts one block device.
type Mounter interface {
	Mount(id string) (string, error)
	Unmount(mountpoint string) error
}

// Tracker owns device selection and mount lifecycle bookkeeping. The mount
// is exclusive to the session from a successful Mount until Unmount.
//
// Discover runs on the poller worker while Select arrives from the UI
// thread, so internal state is guarded by a mutex; WalletSession itself
// stays lock-free.
type Tracker struct {
	lister   Lister
	mounter  Mounter
	cooldown time.Duration
	log      *zap.Logger

	mu               sync.Mutex
	devices          []model.Device
	selected         int // -1 when no selection
	mountpoint       string
	lastMountAttempt time.Time
}

// NewTracker builds a tracker. cooldown is the minimum spacing between mount
// attempts; it keeps a flaky device from triggering a mount storm.
func NewTracker(lister Lister, mounter Mounter, cooldown time.Duration, log *zap.Logger) *Tracker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Tracker{
		lister:   lister,
		mounter:  mounter,
		cooldown: cooldown,
		log:      log.Named("device"),
		selected: -1,
	}
}

// Discover rebuilds the candidate list. When exactly one candidate exists it
// is selected automatically; with several, selection is left to the user and
// selectionRequired is true. A previous selection survives rediscovery when
// the same device node is still present.
func (t *Tracker) Discover() (devices []model.Device, selectionRequired bool, err error) {
	found, err := t.lister.List()
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", model.ErrDevice, err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	prevID := ""
	if t.selected >= 0 && t.selected < len(t.devices) {
		prevID = t.devices[t.selected].ID
	}

	t.devices = found
	t.selected = -1
	for i, d := range found {
		if prevID != "" && d.ID == prevID {
			t.selected = i
			break
		}
	}

	switch {
	case len(found) == 1:
		t.selected = 0
	case len(found) > 1 && t.selected == -1:
		selectionRequired = true
	}

	// The mount belongs to the previously selected device; forfeit it
	// unless the same device is still the selection.
	if t.selected == -1 || found[t.selected].ID != prevID {
		t.mountpoint = ""
	}

	return found, selectionRequired, nil
}

// Select picks a device by index. Selecting a different device than before
// drops the current mount; the caller must treat the session as invalidated.
func (t *Tracker) Select(index int) (changed bool, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if index < 0 || index >= len(t.devices) {
		return false, fmt.Errorf("%w: device index %d out of range", model.ErrDevice, index)
	}
	if index == t.selected {
		return false, nil
	}

	t.log.Info("device selected",
		zap.String("id", t.devices[index].ID),
		zap.String("label", t.devices[index].Label))
	t.selected = index
	t.mountpoint = ""
	return true, nil
}

// Selected returns the currently selected device.
func (t *Tracker) Selected() (model.Device, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.selected < 0 || t.selected >= len(t.devices) {
		return model.Device{}, false
	}
	return t.devices[t.selected], true
}

// SelectedIndex returns the index of the current selection, -1 for none.
func (t *Tracker) SelectedIndex() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.selected
}

// EnsureMounted returns a mountpoint for the selected device, mounting it if
// needed. Mount attempts are spaced at least one cooldown apart; an attempt
// inside the window fails fast instead of hammering the device.
func (t *Tracker) EnsureMounted() (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.selected < 0 || t.selected >= len(t.devices) {
		return "", fmt.Errorf("%w: no device selected", model.ErrDevice)
	}
	device := t.devices[t.selected]

	// Already mounted by the host
	if device.Mountpoint != "" {
		t.mountpoint = device.Mountpoint
		return t.mountpoint, nil
	}
	if t.mountpoint != "" {
		return t.mountpoint, nil
	}

	if since := time.Since(t.lastMountAttempt); since < t.cooldown {
		return "", fmt.Errorf("%w: mount attempted %s ago, cooling down", model.ErrDevice, since.Round(time.Second))
	}
	t.lastMountAttempt = time.Now()

	mountpoint, err := t.mounter.Mount(device.ID)
	if err != nil {
		t.log.Warn("mount failed", zap.String("id", device.ID), zap.Error(err))
		return "", fmt.Errorf("%w: mount %s: %v", model.ErrDevice, device.ID, err)
	}

	t.log.Info("device mounted", zap.String("id", device.ID), zap.String("mountpoint", mountpoint))
	t.mountpoint = mountpoint
	return mountpoint, nil
}

// Mountpoint returns the active mountpoint, empty when unmounted.
func (t *Tracker) Mountpoint() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.mountpoint
}

// PubkeyPath returns the path of the plaintext public key file on the
// mounted device, or empty when nothing is mounted.
func (t *Tracker) PubkeyPath() string {
	if mp := t.Mountpoint(); mp != "" {
		return filepath.Join(mp, PubkeyRelPath)
	}
	return ""
}

// ContainerPath returns the path of the encrypted key container on the
// mounted device, or empty when nothing is mounted.
func (t *Tracker) ContainerPath() string {
	if mp := t.Mountpoint(); mp != "" {
		return filepath.Join(mp, ContainerRelPath)
	}
	return ""
}

// Unmount releases the device. Safe to call when nothing is mounted.
func (t *Tracker) Unmount() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.mountpoint == "" {
		return nil
	}
	if err := t.mounter.Unmount(t.mountpoint); err != nil {
		return fmt.Errorf("%w: unmount %s: %v", model.ErrDevice, t.mountpoint, err)
	}

	t.log.Info("device unmounted", zap.String("mountpoint", t.mountpoint))
	t.mountpoint = ""
	return nil
}
