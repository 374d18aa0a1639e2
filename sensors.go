package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/Unpiloted0852/TrashCompass/pkg/heading"
	"github.com/Unpiloted0852/TrashCompass/pkg/logger"
)

// iio-sensor-proxy compass source.
//
// Claims the compass on the system bus and forwards every heading change
// to the session controller as an orientation sample. The proxy reports a
// plain azimuth in degrees; it is packed into a z-axis quaternion so the
// engine's rotation-matrix path yields the same azimuth back.

const (
	sensorService      = "net.hadess.SensorProxy"
	sensorPath         = dbus.ObjectPath("/net/hadess/SensorProxy")
	compassPath        = dbus.ObjectPath("/net/hadess/SensorProxy/Compass")
	compassIface       = "net.hadess.SensorProxy.Compass"
	compassHeadingProp = "CompassHeading"
)

type compassTracker struct {
	onSample func(heading.OrientationSample)
	cancel   context.CancelFunc
}

// startCompassTracking claims the platform compass in the background. A
// missing proxy or compass is logged and retried; the engine simply stays
// without orientation input meanwhile.
func startCompassTracking(onSample func(heading.OrientationSample)) *compassTracker {
	t := &compassTracker{onSample: onSample}
	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel
	go t.run(ctx)
	return t
}

func (t *compassTracker) stop() {
	if t.cancel != nil {
		t.cancel()
	}
}

func (t *compassTracker) run(ctx context.Context) {
	const retryDelay = 30 * time.Second

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		err := t.claimAndListen(ctx)
		if err == nil {
			return
		}
		logger.Error("compass: retrying after error (%v), delay=%s", err, retryDelay)
		select {
		case <-time.After(retryDelay):
		case <-ctx.Done():
			return
		}
	}
}

func (t *compassTracker) claimAndListen(ctx context.Context) error {
	bus, err := dbus.SystemBus()
	if err != nil {
		return err
	}
	defer bus.Close()

	proxy := bus.Object(sensorService, sensorPath)
	if call := proxy.Call(sensorService+".ClaimCompass", 0); call.Err != nil {
		return fmt.Errorf("claim compass: %w", call.Err)
	}
	defer proxy.Call(sensorService+".ReleaseCompass", 0)

	// Initial reading, then property-change signals.
	compass := bus.Object(sensorService, compassPath)
	var variant dbus.Variant
	if call := compass.Call(propsIface+".Get", 0, compassIface, compassHeadingProp); call.Err == nil {
		if err := call.Store(&variant); err == nil {
			if deg, ok := variant.Value().(float64); ok {
				t.emit(deg)
			}
		}
	}

	matchRule := fmt.Sprintf("type='signal',interface='%s',path='%s'", propsIface, compassPath)
	if call := bus.BusObject().Call("org.freedesktop.DBus.AddMatch", 0, matchRule); call.Err != nil {
		return call.Err
	}
	sigCh := make(chan *dbus.Signal, 10)
	bus.Signal(sigCh)

	for {
		select {
		case <-ctx.Done():
			return nil
		case sig := <-sigCh:
			if sig == nil {
				return errors.New("dbus signal channel closed")
			}
			if sig.Name != propsIface+".PropertiesChanged" || sig.Path != compassPath {
				continue
			}
			if len(sig.Body) < 2 {
				continue
			}
			changed, ok := sig.Body[1].(map[string]dbus.Variant)
			if !ok {
				continue
			}
			if v, ok := changed[compassHeadingProp]; ok {
				if deg, ok := v.Value().(float64); ok {
					t.emit(deg)
				}
			}
		}
	}
}

// emit packs an azimuth into a rotation-vector sample. Desktop screens do
// not rotate under the app, so the display rotation is always 0.
func (t *compassTracker) emit(azimuthDeg float64) {
	if azimuthDeg < 0 {
		return
	}
	half := azimuthDeg * math.Pi / 360
	t.onSample(heading.OrientationSample{
		RotationVector: []float64{0, 0, -math.Sin(half), math.Cos(half)},
		MagAccuracy:    heading.MagAccuracyUnknown,
	})
}
