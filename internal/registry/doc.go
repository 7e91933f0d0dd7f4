// Package registry provides the Entity Registry for Hearth Core.
//
// The registry is the authoritative, eventually-consistent view of every
// device and scene the hardware layer knows about. It owns no hardware
// connections itself: snapshots are rebuilt wholesale from the hardware
// adapter on each reload and swapped atomically, so concurrent readers always
// see a complete snapshot and never a torn one.
//
// # Key operations
//
//   - ReloadDevices / ReloadScenes: full refetch and atomic snapshot swap
//   - ResolveDevice / ResolveScene: fuzzy identity resolution (exact id,
//     exact name, substring, token-fuzzy)
//   - DevicesInRoom / Rooms: room-scoped views derived from the snapshot
//   - Subscribe: best-effort change notifications for WebSocket broadcast
//     and telemetry
//
// # Usage
//
//	reg := registry.New(adapter)
//	reg.SetLogger(log)
//	if err := reg.ReloadDevices(ctx); err != nil {
//	    return err
//	}
//	dev, err := reg.ResolveDevice("office_light")
package registry
