package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/Unpiloted0852/TrashCompass/pkg/geo"
	"github.com/Unpiloted0852/TrashCompass/pkg/logger"
	"github.com/Unpiloted0852/TrashCompass/pkg/session"
)

// GeoClue (geoclue2) position source.
//
// Connects to GeoClue on the system bus, creates a client, sets accuracy
// and thresholds, starts updates and forwards every fix to the session
// controller. GeoClue requires a DesktopId matching a .desktop file with
// X-Geoclue-2-Client=true in the XDG data dirs; a minimal one is written
// on first run. AccessDenied from the bus is reported to the controller as
// a permission condition and the loop keeps retrying with backoff.

const (
	geoService    = "org.freedesktop.GeoClue2"
	managerPath   = dbus.ObjectPath("/org/freedesktop/GeoClue2/Manager")
	managerIface  = "org.freedesktop.GeoClue2.Manager"
	clientIface   = "org.freedesktop.GeoClue2.Client"
	locationIface = "org.freedesktop.GeoClue2.Location"
	propsIface    = "org.freedesktop.DBus.Properties"

	dbusAccessDenied = "org.freedesktop.DBus.Error.AccessDenied"
)

// locationTracker bridges GeoClue fixes into the controller.
type locationTracker struct {
	desktopID string
	onFix     func(session.PositionFix)
	onDenied  func()
	cancel    context.CancelFunc
}

// startLocationTracking ensures a .desktop file is present and starts the
// GeoClue client loop in the background.
func startLocationTracking(desktopID string, onFix func(session.PositionFix), onDenied func()) *locationTracker {
	t := &locationTracker{desktopID: desktopID, onFix: onFix, onDenied: onDenied}
	if err := t.ensureDesktopFile(); err != nil {
		logger.Error("location: failed to ensure desktop file: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel
	go t.run(ctx)
	return t
}

func (t *locationTracker) stop() {
	if t.cancel != nil {
		t.cancel()
	}
}

// ensureDesktopFile writes a minimal desktop file if it does not already
// exist, so GeoClue accepts our DesktopId.
func (t *locationTracker) ensureDesktopFile() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return err
	}
	appsDir := filepath.Join(home, ".local", "share", "applications")
	if err := os.MkdirAll(appsDir, 0o755); err != nil {
		return err
	}
	dest := filepath.Join(appsDir, t.desktopID)
	if _, err := os.Stat(dest); err == nil {
		// Exists; do not overwrite to allow user customization.
		return nil
	}
	content := `[Desktop Entry]
Type=Application
Name=TrashCompass
Comment=Nearest amenity compass (GeoClue client)
Exec=trashcompass
Icon=trashcompass
Terminal=false
Categories=Utility;
X-Geoclue-2-Client=true
X-Geoclue-2-Access-Fine=true
`
	return os.WriteFile(dest, []byte(content), 0o644)
}

// run keeps trying to establish location updates until the context is
// cancelled.
func (t *locationTracker) run(ctx context.Context) {
	const (
		maxInitialRetries = 5
		retryBaseDelay    = 2 * time.Second
		requestedAccuracy = uint32(5) // "exact"
		distanceThreshold = uint32(0) // every update; the core does its own gating
		timeThreshold     = uint32(1) // seconds between updates
	)

	var attempt int
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		err := func() error {
			cl, err := newGeoClueClient(t.desktopID, requestedAccuracy, distanceThreshold, timeThreshold)
			if err != nil {
				return err
			}
			defer cl.close()
			if err := cl.start(); err != nil {
				return err
			}
			cl.fetchInitialLocation(t.onFix)
			return cl.runSignalLoop(ctx, t.onFix)
		}()
		if err == nil {
			return
		}
		if isAccessDenied(err) && t.onDenied != nil {
			t.onDenied()
		}
		attempt++
		var delay time.Duration
		if attempt <= maxInitialRetries {
			delay = retryBaseDelay * time.Duration(attempt)
		} else {
			delay = 30 * time.Second
		}
		logger.Error("location: retrying after error (%v), attempt=%d delay=%s", err, attempt, delay)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return
		}
	}
}

func isAccessDenied(err error) bool {
	var dbusErr dbus.Error
	if errors.As(err, &dbusErr) {
		return dbusErr.Name == dbusAccessDenied
	}
	return false
}

type geoClient struct {
	path dbus.ObjectPath
	bus  *dbus.Conn
}

func newGeoClueClient(desktopID string, acc, dist, sec uint32) (*geoClient, error) {
	bus, err := dbus.SystemBus()
	if err != nil {
		return nil, err
	}
	manager := bus.Object(geoService, managerPath)

	var clientPath dbus.ObjectPath
	if call := manager.Call(managerIface+".CreateClient", 0); call.Err != nil {
		return nil, call.Err
	} else if err := call.Store(&clientPath); err != nil {
		return nil, err
	}
	clientObj := bus.Object(geoService, clientPath)

	setProp := func(name string, val interface{}) error {
		call := clientObj.Call(propsIface+".Set", 0, clientIface, name, dbus.MakeVariant(val))
		return call.Err
	}

	if err := setProp("DesktopId", desktopID); err != nil {
		return nil, fmt.Errorf("set DesktopId: %w", err)
	}
	if err := setProp("RequestedAccuracyLevel", acc); err != nil {
		return nil, fmt.Errorf("set accuracy: %w", err)
	}
	_ = setProp("DistanceThreshold", dist)
	_ = setProp("TimeThreshold", sec)

	return &geoClient{path: clientPath, bus: bus}, nil
}

func (c *geoClient) start() error {
	call := c.bus.Object(geoService, c.path).Call(clientIface+".Start", 0)
	return call.Err
}

func (c *geoClient) close() {
	_ = c.bus.Object(geoService, c.path).Call(clientIface+".Stop", 0)
	c.bus.Close()
}

func (c *geoClient) fetchInitialLocation(onFix func(session.PositionFix)) {
	locPath, err := c.getLocationPath()
	if err != nil || locPath == "" {
		return
	}
	c.readLocation(locPath, onFix)
}

func (c *geoClient) getLocationPath() (dbus.ObjectPath, error) {
	var variant dbus.Variant
	call := c.bus.Object(geoService, c.path).Call(propsIface+".Get", 0, clientIface, "Location")
	if call.Err != nil {
		return "", call.Err
	}
	if err := call.Store(&variant); err != nil {
		return "", err
	}
	locPath, _ := variant.Value().(dbus.ObjectPath)
	return locPath, nil
}

func (c *geoClient) runSignalLoop(ctx context.Context, onFix func(session.PositionFix)) error {
	matchRule := fmt.Sprintf("type='signal',interface='%s',path='%s'", propsIface, c.path)
	if call := c.bus.BusObject().Call("org.freedesktop.DBus.AddMatch", 0, matchRule); call.Err != nil {
		return call.Err
	}
	sigCh := make(chan *dbus.Signal, 10)
	c.bus.Signal(sigCh)

	for {
		select {
		case <-ctx.Done():
			return nil
		case sig := <-sigCh:
			if sig == nil {
				return errors.New("dbus signal channel closed")
			}
			if sig.Name == propsIface+".PropertiesChanged" && sig.Path == c.path {
				// Body[1] should be the changed map[string]Variant
				if len(sig.Body) >= 2 {
					if changed, ok := sig.Body[1].(map[string]dbus.Variant); ok {
						if v, ok := changed["Location"]; ok {
							if lp, ok := v.Value().(dbus.ObjectPath); ok && lp != "" {
								c.readLocation(lp, onFix)
							}
						}
					}
				}
			}
		}
	}
}

// readLocation fetches the GeoClue location object and forwards it as a
// fix. GeoClue reports Speed and Heading as negative when unknown.
func (c *geoClient) readLocation(locPath dbus.ObjectPath, onFix func(session.PositionFix)) {
	locObj := c.bus.Object(geoService, locPath)
	var props map[string]dbus.Variant
	call := locObj.Call(propsIface+".GetAll", 0, locationIface)
	if call.Err != nil {
		return
	}
	if err := call.Store(&props); err != nil {
		return
	}

	getF64 := func(key string) (float64, bool) {
		if v, ok := props[key]; ok {
			if f, ok2 := v.Value().(float64); ok2 {
				return f, true
			}
		}
		return 0, false
	}

	lat, _ := getF64("Latitude")
	lon, _ := getF64("Longitude")
	speed, _ := getF64("Speed")
	course, hasCourse := getF64("Heading")

	if lat == 0 && lon == 0 {
		return // ignore obviously invalid fix
	}
	if speed < 0 {
		speed = 0
	}

	fix := session.PositionFix{
		Point:      geo.Point{Lat: lat, Lon: lon},
		SpeedMps:   speed,
		BearingDeg: course,
		HasBearing: hasCourse && course >= 0,
		TimeMillis: time.Now().UnixMilli(),
	}
	if onFix != nil {
		onFix(fix)
	}
}
