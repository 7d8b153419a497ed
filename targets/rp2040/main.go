//go:build rp2040

package main

import (
	"machine"
	"time"

	"focdrive/config"
	"focdrive/core"
)

const firmwareVersion = "0.1.0"

// Pin assignment for the reference board.
var (
	// Phase PWM outputs, one PWM slice per phase.
	pinPhaseU = machine.GPIO2
	pinPhaseV = machine.GPIO4
	pinPhaseW = machine.GPIO6

	// Gate driver enable lines.
	pinEnableU = machine.GPIO3
	pinEnableV = machine.GPIO5
	pinEnableW = machine.GPIO7

	// Hall sensor inputs.
	pinHallU = machine.GPIO10
	pinHallV = machine.GPIO11
	pinHallW = machine.GPIO12

	// MCP2515 CAN controller on SPI0.
	pinCANSCK = machine.GPIO18
	pinCANSDO = machine.GPIO19
	pinCANSDI = machine.GPIO16
	pinCANCS  = machine.GPIO17

	// Bus voltage divider into ADC0.
	pinVSense = machine.GPIO26
)

func main() {
	core.SetDebugWriter(func(s string) { println(s) })
	core.SetDebugEnabled(true)

	// Configuration: stored record or compiled-in defaults.
	store := config.NewStore(NewFlashStorage())
	if err := store.Load(); err != nil {
		core.DebugPrintln("[BOOT] config load failed, using defaults: " + err.Error())
	}
	cfg := store.Current()

	state := core.NewSharedState(cfg.SpeedKp, cfg.SpeedKi)
	state.PublishConfigStatus(store.Version(), store.CRCValid())
	server := core.NewCommandServer(state, store)

	// Hardware drivers.
	pwm, err := NewPhasePWM(pinPhaseU, pinPhaseV, pinPhaseW,
		pinEnableU, pinEnableV, pinEnableW, cfg.PWMFrequency, cfg.MaxDuty)
	if err != nil {
		core.DebugPrintln("[BOOT] pwm init failed: " + err.Error())
		return
	}
	hall := NewHallCapture(pinHallU, pinHallV, pinHallW)
	vsense := NewVSense(pinVSense)

	controller := core.NewMotorController(state, cfg, pwm, hall)

	// Command link.
	canLink, err := NewCANLink(machine.SPI0, pinCANSCK, pinCANSDO, pinCANSDI,
		pinCANCS, cfg.CANBitrate, server)
	if err != nil {
		core.DebugPrintln("[BOOT] can init failed: " + err.Error())
		return
	}
	go canLink.Run()

	// USB CDC carries the same protocol for bench use.
	go NewSerialLink(server).Run()

	// Housekeeping: voltage monitor plus slow maintenance at 100ms.
	go func() {
		monitor := core.NewVoltageMonitor(core.DefaultVoltageMonitorConfig())
		for {
			monitor.Service(vsense, state)

			// A successful calibration is copied into the pending
			// configuration so a save command persists it.
			if result, ok := state.CalibrationResult(); ok {
				server.RecordCalibrationToConfig(result)
			}

			time.Sleep(100 * time.Millisecond)
		}
	}()

	// Status LED heartbeat.
	go func() {
		led := machine.LED
		led.Configure(machine.PinConfig{Mode: machine.PinOutput})
		for {
			led.High()
			time.Sleep(500 * time.Millisecond)
			led.Low()
			time.Sleep(500 * time.Millisecond)
		}
	}()

	core.DebugPrintln("[BOOT] focdrive " + firmwareVersion + ", control period " + utoaDebug(cfg.ControlPeriodUS) + "us")

	// The control loop owns this goroutine and the PWM output.
	stop := make(chan struct{})
	controller.Run(stop)
}

// utoaDebug formats a small unsigned value for boot logging.
func utoaDebug(n uint32) string {
	if n == 0 {
		return "0"
	}
	var buf [10]byte
	pos := len(buf)
	for n > 0 {
		pos--
		buf[pos] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[pos:])
}
